package redis

import (
	"context"
	"fmt"
	"time"
)

const ledgerKeyPrefix = "proposal:event:"

// EventLedger tracks processed event ids in Redis so redelivered events
// can be dropped. Entries expire after the configured TTL, which bounds
// the window during which a redelivery is recognized.
type EventLedger struct {
	client *Client
	ttl    time.Duration
}

// NewEventLedger creates a new event ledger
func NewEventLedger(client *Client, ttl time.Duration) *EventLedger {
	return &EventLedger{client: client, ttl: ttl}
}

// Seen reports whether an event id has already been processed
func (l *EventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	count, err := l.client.Exists(ctx, ledgerKeyPrefix+eventID)
	if err != nil {
		return false, fmt.Errorf("failed to check event ledger: %w", err)
	}
	return count > 0, nil
}

// Record marks an event id as processed. The return value reports whether
// this call was the first to record it.
func (l *EventLedger) Record(ctx context.Context, eventID string) (bool, error) {
	first, err := l.client.SetNX(ctx, ledgerKeyPrefix+eventID, 1, l.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to record event: %w", err)
	}
	return first, nil
}
