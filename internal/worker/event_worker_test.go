package worker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/amqp"
	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/log"
	"github.com/smilior/kakeibo/internal/notify"
	"github.com/smilior/kakeibo/internal/period"
	"github.com/smilior/kakeibo/internal/storage"
)

type fakeStore struct {
	household   core.Household
	expenses    []core.ExpenseDetail
	rules       []core.RuleDetail
	invalidated []time.Time
}

func (s *fakeStore) GetHousehold(_ context.Context, id uuid.UUID) (core.Household, error) {
	if id != s.household.ID {
		return core.Household{}, storage.ErrNotFound
	}
	return s.household, nil
}

func (s *fakeStore) GetExpense(_ context.Context, id uuid.UUID) (core.Expense, error) {
	for _, e := range s.expenses {
		if e.ID == id {
			return e.Expense, nil
		}
	}
	return core.Expense{}, storage.ErrNotFound
}

func (s *fakeStore) ListExpenses(_ context.Context, _ uuid.UUID, from, to time.Time) ([]core.ExpenseDetail, error) {
	var out []core.ExpenseDetail
	for _, e := range s.expenses {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) ListActiveRules(_ context.Context, _ uuid.UUID) ([]core.RuleDetail, error) {
	return s.rules, nil
}

func (s *fakeStore) DeleteNarrativesCovering(_ context.Context, _ uuid.UUID, date time.Time) (int64, error) {
	s.invalidated = append(s.invalidated, date)
	return 1, nil
}

type fakeNotifier struct {
	tokens   []string
	messages []notify.ExpenseMessage
}

func (n *fakeNotifier) NotifyExpense(_ context.Context, token string, m notify.ExpenseMessage) {
	n.tokens = append(n.tokens, token)
	n.messages = append(n.messages, m)
}

func workerFixture() (*fakeStore, *fakeNotifier, *EventWorker, core.ExpenseDetail) {
	householdID := uuid.New()
	food := uuid.New()
	expense := core.ExpenseDetail{
		Expense: core.Expense{
			ID:          uuid.New(),
			HouseholdID: householdID,
			UserID:      uuid.New(),
			CategoryID:  food,
			Amount:      6800,
			Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
			Memo:        "焼肉",
		},
		CategoryName: "外食",
		UserNickname: "たな",
	}
	store := &fakeStore{
		household: core.Household{
			ID:                  householdID,
			Name:                "家計",
			ResetDay:            25,
			LineNotifyToken:     "token",
			HighAmountThreshold: 5000,
			CreatedAt:           time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		expenses: []core.ExpenseDetail{expense},
		rules: []core.RuleDetail{
			{Rule: core.Rule{ID: uuid.New(), HouseholdID: householdID, CategoryID: food,
				MonthlyLimit: 2, IsActive: true}, CategoryName: "外食"},
		},
	}
	notifier := &fakeNotifier{}
	w := NewEventWorker(store, notifier, period.JapaneseHolidays{}, log.New(log.DefaultConfig()))
	return store, notifier, w, expense
}

func TestHandleEventCreatedNotifiesAndInvalidates(t *testing.T) {
	store, notifier, w, expense := workerFixture()

	event := amqp.NewExpenseEvent(amqp.EventExpenseCreated, expense.ID, expense.HouseholdID, expense.Date)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}

	if len(store.invalidated) != 1 || !store.invalidated[0].Equal(expense.Date) {
		t.Errorf("invalidated = %v", store.invalidated)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("sent %d notifications, want 1", len(notifier.messages))
	}
	msg := notifier.messages[0]
	if msg.OwnerName != "たな" || msg.CategoryName != "外食" || msg.Amount != 6800 {
		t.Errorf("message = %+v", msg)
	}
	if !msg.HighAmount {
		t.Error("6800 over threshold 5000 should flag high amount")
	}
	if !msg.HasRule || msg.RemainingCount != 1 {
		t.Errorf("rule status = HasRule %v Remaining %d, want true/1", msg.HasRule, msg.RemainingCount)
	}
	if notifier.tokens[0] != "token" {
		t.Errorf("token = %q", notifier.tokens[0])
	}
}

func TestHandleEventUpdateSkipsNotification(t *testing.T) {
	store, notifier, w, expense := workerFixture()

	event := amqp.NewExpenseEvent(amqp.EventExpenseUpdated, expense.ID, expense.HouseholdID, expense.Date)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}
	if len(store.invalidated) != 1 {
		t.Errorf("update must invalidate narratives, got %v", store.invalidated)
	}
	if len(notifier.messages) != 0 {
		t.Errorf("update must not notify, got %d messages", len(notifier.messages))
	}
}

func TestHandleEventWithoutToken(t *testing.T) {
	store, notifier, w, expense := workerFixture()
	store.household.LineNotifyToken = ""

	event := amqp.NewExpenseEvent(amqp.EventExpenseCreated, expense.ID, expense.HouseholdID, expense.Date)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}
	if len(notifier.messages) != 0 {
		t.Error("unconfigured household must not be notified")
	}
}

func TestHandleEventExpenseVanished(t *testing.T) {
	store, notifier, w, expense := workerFixture()
	store.expenses = nil // deleted before the worker consumed the event

	event := amqp.NewExpenseEvent(amqp.EventExpenseCreated, expense.ID, expense.HouseholdID, expense.Date)
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error: %v, vanished expense is not a retryable failure", err)
	}
	if len(notifier.messages) != 0 {
		t.Error("vanished expense must not be notified")
	}
}

func TestHandleEventBadDate(t *testing.T) {
	_, _, w, expense := workerFixture()

	event := &amqp.ExpenseEvent{
		Type:        amqp.EventExpenseCreated,
		ExpenseID:   expense.ID,
		HouseholdID: expense.HouseholdID,
		Date:        "not-a-date",
	}
	if err := w.HandleEvent(context.Background(), event); err == nil {
		t.Error("HandleEvent() should fail on unparseable date")
	}
}

func TestHandleEventSilentCreatedSkipsNotification(t *testing.T) {
	store, notifier, w, expense := workerFixture()

	event := amqp.NewExpenseEvent(amqp.EventExpenseCreated, expense.ID, expense.HouseholdID, expense.Date)
	event.Silent = true
	if err := w.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("HandleEvent() error: %v", err)
	}

	if len(store.invalidated) != 1 {
		t.Errorf("invalidated = %v, silent events still invalidate", store.invalidated)
	}
	if len(notifier.messages) != 0 {
		t.Errorf("sent %d notifications, want none for a silent event", len(notifier.messages))
	}
}
