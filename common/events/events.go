package events

import (
	"context"
	"time"
)

// Event types emitted by the ledger service
const (
	TypePurchaseRecorded = "purchase.recorded"
	TypeBoothAdjusted    = "booth.adjusted"
	TypePaymentAdded     = "payment.added"
	TypeRecordDeleted    = "record.deleted"
)

// Event is the payload published for every ledger mutation
type Event struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	RecordID      int64     `json:"record_id"`
	StudentNumber string    `json:"student_number,omitempty"`
	Merged        bool      `json:"merged,omitempty"`
	BoothNumber   int       `json:"booth_number,omitempty"`
	Delta         int       `json:"delta,omitempty"`
	Amount        int       `json:"amount,omitempty"`
	TotalPrice    int       `json:"total_price,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher publishes ledger events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher discards events. Used when event publishing is disabled.
type NoopPublisher struct{}

// NewNoopPublisher creates a publisher that drops everything
func NewNoopPublisher() *NoopPublisher {
	return &NoopPublisher{}
}

// Publish discards the event
func (p *NoopPublisher) Publish(ctx context.Context, event Event) error {
	return nil
}

// Close is a no-op
func (p *NoopPublisher) Close() error {
	return nil
}

var _ Publisher = (*NoopPublisher)(nil)
