package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expensedash/internal/core"
)

// ExpenseEventMessage is the wire form of a core.ExpenseEvent. It carries
// only the id; consumers fetch the expense from the API if they need it.
type ExpenseEventMessage struct {
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseEventMessage stamps ev with the current time.
func NewExpenseEventMessage(ev core.ExpenseEvent) *ExpenseEventMessage {
	return &ExpenseEventMessage{
		Action:    ev.Action,
		ID:        ev.ID,
		Timestamp: time.Now().UTC(),
	}
}

// Event strips the wire-only fields.
func (m *ExpenseEventMessage) Event() core.ExpenseEvent {
	return core.ExpenseEvent{Action: m.Action, ID: m.ID}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseEventMessageFromJSON decodes and checks a message body.
func ExpenseEventMessageFromJSON(data []byte) (*ExpenseEventMessage, error) {
	var msg ExpenseEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case core.ActionCreated, core.ActionUpdated, core.ActionDeleted:
	default:
		return nil, fmt.Errorf("unknown action %q", msg.Action)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("missing expense id")
	}
	return &msg, nil
}
