// Package events publishes post-commit domain notifications.
package events

import (
	"context"
	"time"

	"propertyops-backend/internal/infrastructure/redisstream"

	"github.com/rs/zerolog/log"
)

const (
	HoldPlaced         = "hold.placed"
	HoldReleased       = "hold.released"
	HoldsExpired       = "holds.expired"
	LeaseConfirmed     = "lease.confirmed"
	LeaseDrafted       = "lease.drafted"
	LeaseTerminated    = "lease.terminated"
	PaymentPosted      = "payment.posted"
	OverdueProcessed   = "payments.overdue_processed"
	UnitsRepaired      = "units.repaired"
	MaintenanceCreated = "maintenance.created"
	MaintenanceUpdated = "maintenance.status_changed"
)

// Event is the envelope written to the stream.
type Event struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// Publisher appends events to a Redis stream. Call only after commit.
type Publisher struct {
	Stream *redisstream.Stream
	Now    func() time.Time
}

// Publish is best-effort: failures are logged, never returned.
func (p *Publisher) Publish(ctx context.Context, eventType string, data interface{}) {
	if p == nil || p.Stream == nil {
		return
	}
	now := time.Now().UTC()
	if p.Now != nil {
		now = p.Now().UTC()
	}
	if _, err := p.Stream.Append(ctx, eventType, Event{Type: eventType, OccurredAt: now, Data: data}); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("event publish failed")
	}
}
