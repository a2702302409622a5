package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseUpdated EventType = "expense.updated"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent is the lightweight fan-out message for one expense
// mutation. It carries ids and the expense date only; consumers fetch
// whatever else they need from the database.
type ExpenseEvent struct {
	Type        EventType `json:"type"`
	ExpenseID   uuid.UUID `json:"expense_id"`
	HouseholdID uuid.UUID `json:"household_id"`
	Date        string    `json:"date"` // YYYY-MM-DD, drives narrative invalidation
	// Silent suppresses the LINE notification. A bulk registration emits
	// one audible event and marks the rest silent, so the household gets a
	// single message instead of one per line.
	Silent    bool      `json:"silent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseEvent(eventType EventType, expenseID, householdID uuid.UUID, date time.Time) *ExpenseEvent {
	return &ExpenseEvent{
		Type:        eventType,
		ExpenseID:   expenseID,
		HouseholdID: householdID,
		Date:        date.Format("2006-01-02"),
		Timestamp:   time.Now(),
	}
}

func (e *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var e ExpenseEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// ExpenseDate parses the event's date field.
func (e *ExpenseEvent) ExpenseDate() (time.Time, error) {
	return time.Parse("2006-01-02", e.Date)
}
