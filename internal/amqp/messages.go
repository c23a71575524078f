package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEventMessage announces a fact mutation. It carries only the fact
// identity and the affected period key; the worker replays the full history
// from the database, so a stale or duplicated message is harmless.
type LedgerEventMessage struct {
	Kind      string    `json:"kind"` // expense, salary, extra_income, invoice
	Op        string    `json:"op"`   // create, update, delete, upsert
	ID        int64     `json:"id"`
	PeriodKey string    `json:"period_key"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(kind, op string, id int64, periodKey string) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:      kind,
		Op:        op,
		ID:        id,
		PeriodKey: periodKey,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
