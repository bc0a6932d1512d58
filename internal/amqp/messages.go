package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"brankas/internal/core"
)

type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// TransactionEvent announces a committed ledger change. Updates carry the
// previous snapshot so consumers can retract the old row.
type TransactionEvent struct {
	ID          string            `json:"id"`
	Kind        EventKind         `json:"kind"`
	UserID      string            `json:"user_id"`
	Transaction core.Transaction  `json:"transaction"`
	Previous    *core.Transaction `json:"previous,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// NewTransactionEvent stamps a fresh event id and time.
func NewTransactionEvent(kind EventKind, userID string, tx core.Transaction, prev *core.Transaction) *TransactionEvent {
	return &TransactionEvent{
		ID:          uuid.NewString(),
		Kind:        kind,
		UserID:      userID,
		Transaction: tx,
		Previous:    prev,
		OccurredAt:  time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and sanity-checks an event body.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case EventCreated, EventUpdated, EventDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		return nil, fmt.Errorf("invalid event id %q: %w", e.ID, err)
	}
	return &e, nil
}
