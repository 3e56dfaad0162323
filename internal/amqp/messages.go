package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"conti/internal/core"
)

// ErrInvalidMessage is returned for a message without a collection.
var ErrInvalidMessage = errors.New("invalid ledger change message")

// LedgerChangeMessage announces one applied ledger mutation. It carries only
// identifiers; consumers read the current state from storage.
type LedgerChangeMessage struct {
	Collection string    `json:"collection"`
	Op         string    `json:"op"`
	ID         string    `json:"id,omitempty"`
	Month      string    `json:"month,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewLedgerChangeMessage builds a message stamped with the current time.
func NewLedgerChangeMessage(collection, op, id string, month core.Month) *LedgerChangeMessage {
	msg := &LedgerChangeMessage{
		Collection: collection,
		Op:         op,
		ID:         id,
		Timestamp:  time.Now(),
	}
	if !month.IsZero() {
		msg.Month = month.String()
	}
	return msg
}

// MonthKey returns the affected month, if the message names one.
func (m *LedgerChangeMessage) MonthKey() (core.Month, bool) {
	if m.Month == "" {
		return core.Month{}, false
	}
	month, err := core.ParseMonth(m.Month)
	if err != nil {
		return core.Month{}, false
	}
	return month, true
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangeMessageFromJSON decodes and checks a message body.
func LedgerChangeMessageFromJSON(data []byte) (*LedgerChangeMessage, error) {
	var msg LedgerChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Collection == "" {
		return nil, ErrInvalidMessage
	}
	return &msg, nil
}
