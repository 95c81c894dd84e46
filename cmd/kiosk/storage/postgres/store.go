package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/forusastrid/info-booth-2025/cmd/kiosk/models"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage"
	"github.com/forusastrid/info-booth-2025/common/db"
	"github.com/jackc/pgx/v5"
)

// Store is the Postgres-backed ledger store. Booths are kept as a JSONB
// array in a single column next to the scalar record fields.
type Store struct {
	db *db.DB
}

// New creates a Postgres ledger store on an existing pool
func New(database *db.DB) *Store {
	return &Store{db: database}
}

// InitSchema creates the students table if it does not exist
func (s *Store) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS students (
			id SERIAL PRIMARY KEY,
			student_number TEXT,
			phone TEXT NOT NULL,
			name TEXT NOT NULL,
			booths JSONB NOT NULL,
			total_price INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`

	if _, err := s.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create students table: %w", err)
	}

	return nil
}

// Insert stores a new record and assigns its ID and CreatedAt
func (s *Store) Insert(ctx context.Context, rec *models.LedgerRecord) error {
	booths, err := json.Marshal(rec.Entitlements)
	if err != nil {
		return fmt.Errorf("failed to encode booths: %w", err)
	}

	query := `
		INSERT INTO students (student_number, phone, name, booths, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now().UTC()
	err = s.db.QueryRow(ctx, query,
		rec.StudentNumber,
		rec.Phone,
		rec.Name,
		booths,
		rec.TotalPrice,
		now,
	).Scan(&rec.ID)

	if err != nil {
		return fmt.Errorf("failed to insert ledger record: %w", err)
	}

	rec.CreatedAt = now
	return nil
}

// Update replaces entitlements and total and refreshes CreatedAt
func (s *Store) Update(ctx context.Context, rec *models.LedgerRecord) error {
	booths, err := json.Marshal(rec.Entitlements)
	if err != nil {
		return fmt.Errorf("failed to encode booths: %w", err)
	}

	query := `
		UPDATE students
		SET booths = $2, total_price = $3, created_at = $4
		WHERE id = $1
	`

	now := time.Now().UTC()
	tag, err := s.db.Exec(ctx, query, rec.ID, booths, rec.TotalPrice, now)
	if err != nil {
		return fmt.Errorf("failed to update ledger record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	rec.CreatedAt = now
	return nil
}

// UpdateEntitlements replaces only the entitlement list, CreatedAt untouched
func (s *Store) UpdateEntitlements(ctx context.Context, id int64, entitlements []models.BoothEntitlement) error {
	booths, err := json.Marshal(entitlements)
	if err != nil {
		return fmt.Errorf("failed to encode booths: %w", err)
	}

	query := `UPDATE students SET booths = $2 WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id, booths)
	if err != nil {
		return fmt.Errorf("failed to update entitlements: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// UpdateTotalPrice replaces the total and refreshes CreatedAt
func (s *Store) UpdateTotalPrice(ctx context.Context, id int64, totalPrice int) error {
	query := `UPDATE students SET total_price = $2, created_at = $3 WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id, totalPrice, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to update total price: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// FindByID returns the record with the given ID or storage.ErrNotFound
func (s *Store) FindByID(ctx context.Context, id int64) (*models.LedgerRecord, error) {
	query := `
		SELECT id, student_number, phone, name, booths, total_price, created_at
		FROM students
		WHERE id = $1
	`

	rec, err := s.scanRecord(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ledger record: %w", err)
	}

	return rec, nil
}

// FindLatestByStudent returns the most recently touched record for the student
func (s *Store) FindLatestByStudent(ctx context.Context, studentNumber string) (*models.LedgerRecord, error) {
	query := `
		SELECT id, student_number, phone, name, booths, total_price, created_at
		FROM students
		WHERE student_number = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	rec, err := s.scanRecord(s.db.QueryRow(ctx, query, studentNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get latest ledger record: %w", err)
	}

	return rec, nil
}

// List returns records matching the filter, most recent first
func (s *Store) List(ctx context.Context, filter storage.ListFilter) ([]*models.LedgerRecord, error) {
	base := `
		SELECT id, student_number, phone, name, booths, total_price, created_at
		FROM students
	`

	var rows pgx.Rows
	var err error
	switch {
	case filter.StudentNumber != "":
		rows, err = s.db.Query(ctx, base+` WHERE student_number = $1 ORDER BY created_at DESC, id DESC`, filter.StudentNumber)
	case filter.Search != "":
		like := "%" + filter.Search + "%"
		rows, err = s.db.Query(ctx, base+` WHERE name LIKE $1 OR student_number LIKE $1 ORDER BY created_at DESC, id DESC`, like)
	default:
		rows, err = s.db.Query(ctx, base+` ORDER BY created_at DESC, id DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger records: %w", err)
	}
	defer rows.Close()

	var records []*models.LedgerRecord
	for rows.Next() {
		rec, err := s.scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger records: %w", err)
	}

	return records, nil
}

// Delete removes the record or returns storage.ErrNotFound
func (s *Store) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM students WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) scanRecord(row pgx.Row) (*models.LedgerRecord, error) {
	rec := &models.LedgerRecord{}
	var booths []byte

	err := row.Scan(
		&rec.ID,
		&rec.StudentNumber,
		&rec.Phone,
		&rec.Name,
		&booths,
		&rec.TotalPrice,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(booths, &rec.Entitlements); err != nil {
		return nil, fmt.Errorf("failed to decode booths: %w", err)
	}

	return rec, nil
}

var _ storage.LedgerStore = (*Store)(nil)
