// Package storage defines the persistence boundary of the ledger service.
// Concrete engines (postgres, sqlite, memory) live in subpackages and are
// selected at configuration time, never branched on in business logic.
package storage

import (
	"context"
	"errors"

	"github.com/forusastrid/info-booth-2025/cmd/kiosk/models"
)

// ErrNotFound is returned when no ledger record matches the lookup
var ErrNotFound = errors.New("ledger record not found")

// ListFilter narrows List results. Zero value lists everything.
// StudentNumber is an exact match; Search is a substring match over
// name and student number. StudentNumber wins when both are set.
type ListFilter struct {
	StudentNumber string
	Search        string
}

// LedgerStore is the storage capability the ledger core depends on
type LedgerStore interface {
	// Insert stores a new record and assigns its ID and CreatedAt
	Insert(ctx context.Context, rec *models.LedgerRecord) error

	// Update replaces entitlements and total of an existing record and
	// refreshes CreatedAt
	Update(ctx context.Context, rec *models.LedgerRecord) error

	// UpdateEntitlements replaces only the entitlement list of a record.
	// CreatedAt is left untouched.
	UpdateEntitlements(ctx context.Context, id int64, entitlements []models.BoothEntitlement) error

	// UpdateTotalPrice replaces the total of a record and refreshes CreatedAt
	UpdateTotalPrice(ctx context.Context, id int64, totalPrice int) error

	// FindByID returns the record with the given ID or ErrNotFound
	FindByID(ctx context.Context, id int64) (*models.LedgerRecord, error)

	// FindLatestByStudent returns the most recently touched record for the
	// student number, or ErrNotFound
	FindLatestByStudent(ctx context.Context, studentNumber string) (*models.LedgerRecord, error)

	// List returns records matching the filter, most recent first
	List(ctx context.Context, filter ListFilter) ([]*models.LedgerRecord, error)

	// Delete removes the record or returns ErrNotFound
	Delete(ctx context.Context, id int64) error

	// Close releases the underlying storage handle
	Close() error
}
