package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"famfin/internal/core"
)

// EventKind names what happened to a transaction.
type EventKind string

const (
	EventTransactionCreated EventKind = "transaction.created"
	EventTransactionDeleted EventKind = "transaction.deleted"
)

// TransactionEvent carries a snapshot of the transaction as it was when the
// event was raised, so consumers never read the database back. Deleted
// transactions no longer exist there.
type TransactionEvent struct {
	MessageID   string           `json:"messageId"`
	Kind        EventKind        `json:"kind"`
	UserID      int64            `json:"userId"`
	Transaction core.Transaction `json:"transaction"`
	OccurredAt  time.Time        `json:"occurredAt"`
}

// NewTransactionEvent stamps a new event with a random message id.
func NewTransactionEvent(kind EventKind, t core.Transaction, now time.Time) TransactionEvent {
	return TransactionEvent{
		MessageID:   uuid.NewString(),
		Kind:        kind,
		UserID:      t.UserID,
		Transaction: t,
		OccurredAt:  now.UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and sanity-checks an event body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var e TransactionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return TransactionEvent{}, err
	}
	switch e.Kind {
	case EventTransactionCreated, EventTransactionDeleted:
	default:
		return TransactionEvent{}, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.Transaction.ID <= 0 {
		return TransactionEvent{}, fmt.Errorf("event %s has no transaction id", e.MessageID)
	}
	return e, nil
}
