package amqp

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewExpenseEvent(t *testing.T) {
	expenseID := uuid.New()
	householdID := uuid.New()
	date := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	event := NewExpenseEvent(EventExpenseCreated, expenseID, householdID, date)

	if event.Type != EventExpenseCreated {
		t.Errorf("Type = %v, want %v", event.Type, EventExpenseCreated)
	}
	if event.ExpenseID != expenseID {
		t.Errorf("ExpenseID = %v, want %v", event.ExpenseID, expenseID)
	}
	if event.Date != "2024-03-10" {
		t.Errorf("Date = %q, want 2024-03-10", event.Date)
	}
	if event.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestExpenseEventJSON(t *testing.T) {
	event := &ExpenseEvent{
		Type:        EventExpenseUpdated,
		ExpenseID:   uuid.New(),
		HouseholdID: uuid.New(),
		Date:        "2024-03-10",
		Timestamp:   time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}

	body, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := ExpenseEventFromJSON(body)
	if err != nil {
		t.Fatalf("ExpenseEventFromJSON() error = %v", err)
	}
	if parsed.Type != event.Type {
		t.Errorf("Type = %v, want %v", parsed.Type, event.Type)
	}
	if parsed.ExpenseID != event.ExpenseID || parsed.HouseholdID != event.HouseholdID {
		t.Errorf("ids lost in round trip: %+v", parsed)
	}
	if !parsed.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, event.Timestamp)
	}

	d, err := parsed.ExpenseDate()
	if err != nil {
		t.Fatalf("ExpenseDate() error = %v", err)
	}
	if !d.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ExpenseDate() = %v", d)
	}
}

func TestExpenseEventInvalidJSON(t *testing.T) {
	if _, err := ExpenseEventFromJSON([]byte(`{"expense_id": 42}`)); err == nil {
		t.Error("ExpenseEventFromJSON() should fail with invalid JSON")
	}
}
