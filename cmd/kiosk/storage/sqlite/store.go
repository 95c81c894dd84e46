package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/forusastrid/info-booth-2025/cmd/kiosk/models"
	"github.com/forusastrid/info-booth-2025/cmd/kiosk/storage"

	_ "modernc.org/sqlite"
)

// timeLayout is how created_at is stored; lexicographic order matches
// chronological order so ORDER BY created_at stays correct
const timeLayout = time.RFC3339Nano

// Store is the SQLite-backed ledger store. Booths are kept as a JSON text
// column next to the scalar record fields, matching the Postgres layout.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file and ensures the schema exists
func Open(ctx context.Context, path string) (*Store, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One writer at a time; the kiosk workload is tiny and this avoids
	// SQLITE_BUSY on concurrent requests
	database.SetMaxOpenConns(1)

	s := &Store{db: database}
	if err := s.initSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS students (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			student_number TEXT,
			phone TEXT NOT NULL,
			name TEXT NOT NULL,
			booths TEXT NOT NULL,
			total_price INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)
	`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
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
		VALUES (?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, query,
		rec.StudentNumber,
		rec.Phone,
		rec.Name,
		string(booths),
		rec.TotalPrice,
		now.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger record: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read inserted id: %w", err)
	}

	rec.ID = id
	rec.CreatedAt = now
	return nil
}

// Update replaces entitlements and total and refreshes CreatedAt
func (s *Store) Update(ctx context.Context, rec *models.LedgerRecord) error {
	booths, err := json.Marshal(rec.Entitlements)
	if err != nil {
		return fmt.Errorf("failed to encode booths: %w", err)
	}

	query := `UPDATE students SET booths = ?, total_price = ?, created_at = ? WHERE id = ?`

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, query, string(booths), rec.TotalPrice, now.Format(timeLayout), rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update ledger record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
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

	query := `UPDATE students SET booths = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, string(booths), id)
	if err != nil {
		return fmt.Errorf("failed to update entitlements: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// UpdateTotalPrice replaces the total and refreshes CreatedAt
func (s *Store) UpdateTotalPrice(ctx context.Context, id int64, totalPrice int) error {
	query := `UPDATE students SET total_price = ?, created_at = ? WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, totalPrice, time.Now().UTC().Format(timeLayout), id)
	if err != nil {
		return fmt.Errorf("failed to update total price: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// FindByID returns the record with the given ID or storage.ErrNotFound
func (s *Store) FindByID(ctx context.Context, id int64) (*models.LedgerRecord, error) {
	query := `
		SELECT id, student_number, phone, name, booths, total_price, created_at
		FROM students
		WHERE id = ?
	`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		WHERE student_number = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, studentNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	var rows *sql.Rows
	var err error
	switch {
	case filter.StudentNumber != "":
		rows, err = s.db.QueryContext(ctx, base+` WHERE student_number = ? ORDER BY created_at DESC, id DESC`, filter.StudentNumber)
	case filter.Search != "":
		like := "%" + filter.Search + "%"
		rows, err = s.db.QueryContext(ctx, base+` WHERE name LIKE ? OR student_number LIKE ? ORDER BY created_at DESC, id DESC`, like, like)
	default:
		rows, err = s.db.QueryContext(ctx, base+` ORDER BY created_at DESC, id DESC`)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger records: %w", err)
	}
	defer rows.Close()

	var records []*models.LedgerRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
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
	query := `DELETE FROM students WHERE id = ?`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// Close closes the database file
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.LedgerRecord, error) {
	rec := &models.LedgerRecord{}
	var booths string
	var createdAt string

	err := row.Scan(
		&rec.ID,
		&rec.StudentNumber,
		&rec.Phone,
		&rec.Name,
		&booths,
		&rec.TotalPrice,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(booths), &rec.Entitlements); err != nil {
		return nil, fmt.Errorf("failed to decode booths: %w", err)
	}

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	rec.CreatedAt = ts

	return rec, nil
}

var _ storage.LedgerStore = (*Store)(nil)
