package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/forusastrid/info-booth-2025/cmd/kiosk/models"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage"
)

// Store is an in-memory ledger store for tests and local development
type Store struct {
	mu      sync.RWMutex
	records map[int64]*models.LedgerRecord
	nextID  int64
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{
		records: make(map[int64]*models.LedgerRecord),
		nextID:  1,
	}
}

// Insert stores a new record and assigns its ID and CreatedAt
func (s *Store) Insert(ctx context.Context, rec *models.LedgerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec.ID = s.nextID
	s.nextID++
	rec.CreatedAt = time.Now().UTC()

	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// Update replaces entitlements and total and refreshes CreatedAt
func (s *Store) Update(ctx context.Context, rec *models.LedgerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return storage.ErrNotFound
	}

	rec.CreatedAt = time.Now().UTC()
	s.records[rec.ID] = cloneRecord(rec)
	return nil
}

// UpdateEntitlements replaces only the entitlement list, CreatedAt untouched
func (s *Store) UpdateEntitlements(ctx context.Context, id int64, entitlements []models.BoothEntitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return storage.ErrNotFound
	}

	rec.Entitlements = cloneEntitlements(entitlements)
	return nil
}

// UpdateTotalPrice replaces the total and refreshes CreatedAt
func (s *Store) UpdateTotalPrice(ctx context.Context, id int64, totalPrice int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return storage.ErrNotFound
	}

	rec.TotalPrice = totalPrice
	rec.CreatedAt = time.Now().UTC()
	return nil
}

// FindByID returns the record with the given ID or storage.ErrNotFound
func (s *Store) FindByID(ctx context.Context, id int64) (*models.LedgerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneRecord(rec), nil
}

// FindLatestByStudent returns the most recently touched record for the student
func (s *Store) FindLatestByStudent(ctx context.Context, studentNumber string) (*models.LedgerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.LedgerRecord
	for _, rec := range s.records {
		if rec.StudentNumber != studentNumber {
			continue
		}
		if latest == nil || rec.CreatedAt.After(latest.CreatedAt) ||
			(rec.CreatedAt.Equal(latest.CreatedAt) && rec.ID > latest.ID) {
			latest = rec
		}
	}

	if latest == nil {
		return nil, storage.ErrNotFound
	}
	return cloneRecord(latest), nil
}

// List returns records matching the filter, most recent first
func (s *Store) List(ctx context.Context, filter storage.ListFilter) ([]*models.LedgerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*models.LedgerRecord
	for _, rec := range s.records {
		switch {
		case filter.StudentNumber != "":
			if rec.StudentNumber != filter.StudentNumber {
				continue
			}
		case filter.Search != "":
			if !strings.Contains(rec.Name, filter.Search) &&
				!strings.Contains(rec.StudentNumber, filter.Search) {
				continue
			}
		}
		records = append(records, cloneRecord(rec))
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].CreatedAt.After(records[j].CreatedAt)
		}
		return records[i].ID > records[j].ID
	})

	return records, nil
}

// Delete removes the record or returns storage.ErrNotFound
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

// Count reports how many records the store holds. Test helper.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func cloneRecord(rec *models.LedgerRecord) *models.LedgerRecord {
	out := *rec
	out.Entitlements = cloneEntitlements(rec.Entitlements)
	return &out
}

func cloneEntitlements(in []models.BoothEntitlement) []models.BoothEntitlement {
	out := make([]models.BoothEntitlement, len(in))
	copy(out, in)
	return out
}

var _ storage.LedgerStore = (*Store)(nil)
