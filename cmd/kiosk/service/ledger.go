package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/forusastrid/info-booth-2025/cmd/kiosk/booth"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/models"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage"
	"github.com/forusastrid/info-booth-2025/common/cache"
	"github.com/forusastrid/info-booth-2025/common/events"
	"github.com/forusastrid/info-booth-2025/common/logger"
	"github.com/forusastrid/info-booth-2025/common/metrics"
	"github.com/google/uuid"
)

var studentNumberPattern = regexp.MustCompile(`^\d{5}$`)

// BoothPurchase is one booth line of an incoming purchase
type BoothPurchase struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
	Price  int    `json:"price"`
	models.ProvenanceFlags
}

// PurchaseInput is a purchase submitted by a kiosk
type PurchaseInput struct {
	StudentNumber string          `json:"student_number"`
	Phone         string          `json:"phone"`
	Name          string          `json:"name"`
	Booths        []BoothPurchase `json:"booths"`
	TotalPrice    *int            `json:"totalPrice"`
}

// PurchaseResult reports where a purchase landed
type PurchaseResult struct {
	ID     int64
	Merged bool
}

// LedgerService owns the entitlement merge and adjustment logic. All
// mutations for one student number are serialized through a per-student
// mutex so that lookup-merge-persist never interleaves and produces
// duplicate rows.
type LedgerService struct {
	store   storage.LedgerStore
	cache   cache.Cache
	events  events.Publisher
	metrics *metrics.Registry
	log     *logger.Logger

	muMap map[string]*sync.Mutex
	mapMu sync.Mutex
}

// NewLedgerService creates a ledger service. cache and metrics may be nil.
func NewLedgerService(store storage.LedgerStore, c cache.Cache, pub events.Publisher, reg *metrics.Registry, log *logger.Logger) *LedgerService {
	return &LedgerService{
		store:   store,
		cache:   c,
		events:  pub,
		metrics: reg,
		log:     log,
		muMap:   make(map[string]*sync.Mutex),
	}
}

func (s *LedgerService) studentLock(studentNumber string) *sync.Mutex {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()

	if _, exists := s.muMap[studentNumber]; !exists {
		s.muMap[studentNumber] = &sync.Mutex{}
	}
	return s.muMap[studentNumber]
}

// RecordPurchase validates a purchase, derives per-booth remaining counts
// from the booth names, and merges the result into the student's existing
// ledger record, or inserts a new one when the student has none.
func (s *LedgerService) RecordPurchase(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
	if err := validatePurchase(in); err != nil {
		return nil, err
	}

	start := time.Now()

	incoming := make([]models.BoothEntitlement, 0, len(in.Booths))
	for _, b := range in.Booths {
		incoming = append(incoming, models.BoothEntitlement{
			Number:          b.Number,
			Name:            b.Name,
			Price:           b.Price,
			Remaining:       booth.InitialUses(b.Name),
			ProvenanceFlags: b.ProvenanceFlags,
		})
	}

	totalPrice := 0
	if in.TotalPrice != nil {
		totalPrice = *in.TotalPrice
	} else {
		for _, e := range incoming {
			totalPrice += e.Price
		}
	}

	// Critical section: lookup-merge-persist must not interleave for the
	// same student, or two kiosk submissions would produce duplicate rows
	// instead of merged counts
	lock := s.studentLock(in.StudentNumber)
	lock.Lock()
	defer lock.Unlock()

	existing, err := s.store.FindLatestByStudent(ctx, in.StudentNumber)
	if err != nil && err != storage.ErrNotFound {
		s.countStorageError()
		return nil, fmt.Errorf("lookup ledger for student %s: %w", in.StudentNumber, err)
	}

	var result PurchaseResult
	if existing == nil || err == storage.ErrNotFound {
		rec := &models.LedgerRecord{
			StudentNumber: in.StudentNumber,
			Phone:         in.Phone,
			Name:          in.Name,
			Entitlements:  incoming,
			TotalPrice:    totalPrice,
		}
		if err := s.store.Insert(ctx, rec); err != nil {
			s.countStorageError()
			return nil, fmt.Errorf("insert ledger record: %w", err)
		}
		result = PurchaseResult{ID: rec.ID, Merged: false}

		s.log.Info("ledger record created",
			"record_id", rec.ID,
			"student_number", in.StudentNumber,
			"booths", len(incoming),
			"total_price", totalPrice,
		)
	} else {
		mergeEntitlements(existing, incoming)
		existing.TotalPrice += totalPrice

		if err := s.store.Update(ctx, existing); err != nil {
			s.countStorageError()
			return nil, fmt.Errorf("update ledger record %d: %w", existing.ID, err)
		}
		result = PurchaseResult{ID: existing.ID, Merged: true}

		s.log.Info("ledger record merged",
			"record_id", existing.ID,
			"student_number", in.StudentNumber,
			"added_price", totalPrice,
		)
	}

	s.invalidate(ctx, result.ID)
	if s.metrics != nil {
		s.metrics.PurchasesRecorded.Inc()
		if result.Merged {
			s.metrics.PurchasesMerged.Inc()
		}
		s.metrics.PurchaseLatency.Observe(time.Since(start).Seconds())
	}
	s.publish(ctx, events.Event{
		Type:          events.TypePurchaseRecorded,
		RecordID:      result.ID,
		StudentNumber: in.StudentNumber,
		Merged:        result.Merged,
		TotalPrice:    totalPrice,
	})

	return &result, nil
}

// mergeEntitlements folds incoming lines into the record: same booth number
// accumulates remaining uses and takes the incoming provenance flags when
// set; unknown booth numbers are appended
func mergeEntitlements(rec *models.LedgerRecord, incoming []models.BoothEntitlement) {
	for _, in := range incoming {
		if existing := rec.FindEntitlement(in.Number); existing != nil {
			existing.Remaining += in.Remaining
			existing.ProvenanceFlags.Overwrite(in.ProvenanceFlags)
			continue
		}
		rec.Entitlements = append(rec.Entitlements, in)
	}
}

func validatePurchase(in PurchaseInput) error {
	if in.Phone == "" {
		return fmt.Errorf("%w: phone is required", ErrInvalidInput)
	}
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(in.Booths) == 0 {
		return fmt.Errorf("%w: at least one booth is required", ErrInvalidInput)
	}
	if !studentNumberPattern.MatchString(in.StudentNumber) {
		return fmt.Errorf("%w: student number must be exactly 5 digits", ErrInvalidInput)
	}
	return nil
}

// GetLedger returns a single ledger record by id
func (s *LedgerService) GetLedger(ctx context.Context, id int64) (*models.LedgerRecord, error) {
	if s.cache != nil {
		if data, ok, _ := s.cache.Get(ctx, recordCacheKey(id)); ok {
			rec := &models.LedgerRecord{}
			if err := json.Unmarshal(data, rec); err == nil {
				return rec, nil
			}
		}
	}

	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, err
		}
		s.countStorageError()
		return nil, fmt.Errorf("get ledger record %d: %w", id, err)
	}

	if s.cache != nil {
		if data, err := json.Marshal(rec); err == nil {
			_ = s.cache.Set(ctx, recordCacheKey(id), data, 5*time.Minute)
		}
	}

	return rec, nil
}

// ListLedgers returns records matching the filter, most recent first
func (s *LedgerService) ListLedgers(ctx context.Context, filter storage.ListFilter) ([]*models.LedgerRecord, error) {
	records, err := s.store.List(ctx, filter)
	if err != nil {
		s.countStorageError()
		return nil, fmt.Errorf("list ledger records: %w", err)
	}
	return records, nil
}

// AdjustRemaining bumps one booth's remaining-use counter by delta, clamped
// at zero, and returns the post-adjustment entitlement list
func (s *LedgerService) AdjustRemaining(ctx context.Context, id int64, boothNumber, delta int) ([]models.BoothEntitlement, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, err
		}
		s.countStorageError()
		return nil, fmt.Errorf("get ledger record %d: %w", id, err)
	}

	ent := rec.FindEntitlement(boothNumber)
	if ent == nil {
		return nil, ErrBoothNotFound
	}

	ent.Remaining = max(0, ent.Remaining+delta)

	if err := s.store.UpdateEntitlements(ctx, id, rec.Entitlements); err != nil {
		s.countStorageError()
		return nil, fmt.Errorf("persist adjusted entitlements for record %d: %w", id, err)
	}

	s.invalidate(ctx, id)
	if s.metrics != nil {
		s.metrics.BoothAdjustments.Inc()
	}
	s.publish(ctx, events.Event{
		Type:          events.TypeBoothAdjusted,
		RecordID:      id,
		StudentNumber: rec.StudentNumber,
		BoothNumber:   boothNumber,
		Delta:         delta,
	})

	s.log.Info("booth remaining adjusted",
		"record_id", id,
		"booth_number", boothNumber,
		"delta", delta,
		"remaining", ent.Remaining,
	)

	return rec.Entitlements, nil
}

// AddPayment adds a signed amount to the record's total and returns the new
// total. Negative amounts represent refunds; no floor is applied.
func (s *LedgerService) AddPayment(ctx context.Context, id int64, amount int) (int, error) {
	rec, err := s.store.FindByID(ctx, id)
	if err != nil {
		if err == storage.ErrNotFound {
			return 0, err
		}
		s.countStorageError()
		return 0, fmt.Errorf("get ledger record %d: %w", id, err)
	}

	newTotal := rec.TotalPrice + amount
	if err := s.store.UpdateTotalPrice(ctx, id, newTotal); err != nil {
		s.countStorageError()
		return 0, fmt.Errorf("persist total for record %d: %w", id, err)
	}

	s.invalidate(ctx, id)
	if s.metrics != nil {
		s.metrics.PaymentsAdded.Inc()
	}
	s.publish(ctx, events.Event{
		Type:          events.TypePaymentAdded,
		RecordID:      id,
		StudentNumber: rec.StudentNumber,
		Amount:        amount,
		TotalPrice:    newTotal,
	})

	s.log.Info("payment added", "record_id", id, "amount", amount, "total_price", newTotal)

	return newTotal, nil
}

// DeleteLedger removes a record
func (s *LedgerService) DeleteLedger(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if err == storage.ErrNotFound {
			return err
		}
		s.countStorageError()
		return fmt.Errorf("delete ledger record %d: %w", id, err)
	}

	s.invalidate(ctx, id)
	if s.metrics != nil {
		s.metrics.RecordsDeleted.Inc()
	}
	s.publish(ctx, events.Event{
		Type:     events.TypeRecordDeleted,
		RecordID: id,
	})

	s.log.Info("ledger record deleted", "record_id", id)

	return nil
}

func (s *LedgerService) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, recordCacheKey(id)); err != nil {
		s.log.Warn("cache invalidation failed", "record_id", id, "error", err)
	}
}

// publish emits the event best-effort; a broker failure never fails the
// request that already committed
func (s *LedgerService) publish(ctx context.Context, event events.Event) {
	event.EventID = uuid.NewString()
	event.OccurredAt = time.Now().UTC()
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.Warn("event publish failed", "type", event.Type, "record_id", event.RecordID, "error", err)
	}
}

func (s *LedgerService) countStorageError() {
	if s.metrics != nil {
		s.metrics.StorageErrors.Inc()
	}
}

func recordCacheKey(id int64) string {
	return fmt.Sprintf("ledger:record:%d", id)
}
