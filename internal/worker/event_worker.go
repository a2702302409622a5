// Package worker processes expense events off the queue: LINE
// notifications for new expenses and narrative-cache invalidation for
// every mutation.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/aggregate"
	"github.com/smilior/kakeibo/internal/amqp"
	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/log"
	"github.com/smilior/kakeibo/internal/notify"
	"github.com/smilior/kakeibo/internal/period"
	"github.com/smilior/kakeibo/internal/storage"
)

// Store is the repository slice the worker reads and invalidates through.
type Store interface {
	GetHousehold(ctx context.Context, id uuid.UUID) (core.Household, error)
	GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error)
	ListExpenses(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]core.ExpenseDetail, error)
	ListActiveRules(ctx context.Context, householdID uuid.UUID) ([]core.RuleDetail, error)
	DeleteNarrativesCovering(ctx context.Context, householdID uuid.UUID, date time.Time) (int64, error)
}

// Notifier sends the LINE push for one registered expense.
type Notifier interface {
	NotifyExpense(ctx context.Context, token string, m notify.ExpenseMessage)
}

type EventWorker struct {
	store    Store
	notifier Notifier
	calendar period.HolidayCalendar
	logger   *log.Logger
}

func NewEventWorker(store Store, notifier Notifier, calendar period.HolidayCalendar, logger *log.Logger) *EventWorker {
	return &EventWorker{
		store:    store,
		notifier: notifier,
		calendar: calendar,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes a single expense event. Invalidation errors are
// returned so the delivery is retried; notification failures are not.
func (w *EventWorker) HandleEvent(ctx context.Context, event *amqp.ExpenseEvent) error {
	date, err := event.ExpenseDate()
	if err != nil {
		return fmt.Errorf("parse event date: %w", err)
	}

	deleted, err := w.store.DeleteNarrativesCovering(ctx, event.HouseholdID, date)
	if err != nil {
		return fmt.Errorf("invalidate narratives: %w", err)
	}
	if deleted > 0 {
		w.logger.InfoContext(ctx, "invalidated cached narratives",
			log.FieldOperation, log.OpInvalidate,
			log.FieldHouseholdID, event.HouseholdID.String(),
			log.FieldDate, event.Date,
			"count", deleted)
	}

	if event.Type == amqp.EventExpenseCreated && !event.Silent {
		w.notifyCreated(ctx, event, date)
	}
	return nil
}

// notifyCreated resolves the expense with its joins and pushes the LINE
// message. Everything here is best-effort.
func (w *EventWorker) notifyCreated(ctx context.Context, event *amqp.ExpenseEvent, date time.Time) {
	if w.notifier == nil {
		return
	}

	household, err := w.store.GetHousehold(ctx, event.HouseholdID)
	if err != nil {
		w.logger.WarnContext(ctx, "notification skipped, household lookup failed",
			log.FieldHouseholdID, event.HouseholdID.String(),
			log.FieldError, err.Error())
		return
	}
	if household.LineNotifyToken == "" {
		return
	}

	cfg := period.Config{
		ResetDay:     household.ResetDay,
		SkipHolidays: household.SkipHolidays,
		CreatedAt:    household.CreatedAt,
	}
	current, err := period.ResolveMonthly(cfg, date, w.calendar)
	if err != nil {
		w.logger.WarnContext(ctx, "notification skipped, period resolution failed",
			log.FieldError, err.Error())
		return
	}

	expenses, err := w.store.ListExpenses(ctx, event.HouseholdID, current.Start, current.End)
	if err != nil {
		w.logger.WarnContext(ctx, "notification skipped, expense listing failed",
			log.FieldError, err.Error())
		return
	}

	var detail *core.ExpenseDetail
	for i := range expenses {
		if expenses[i].ID == event.ExpenseID {
			detail = &expenses[i]
			break
		}
	}
	if detail == nil {
		// deleted between publish and consume
		if _, err := w.store.GetExpense(ctx, event.ExpenseID); errors.Is(err, storage.ErrNotFound) {
			return
		}
		w.logger.WarnContext(ctx, "notification skipped, expense not in resolved period",
			log.FieldExpenseID, event.ExpenseID.String())
		return
	}

	msg := notify.ExpenseMessage{
		OwnerName:    detail.OwnerLabel(),
		CategoryName: detail.CategoryName,
		Amount:       detail.Amount,
		Memo:         detail.Memo,
		HighAmount:   detail.Amount >= household.HighAmountThreshold,
	}
	if detail.CategoryName == "" {
		msg.CategoryName = core.UncategorizedName
	}

	rules, err := w.store.ListActiveRules(ctx, event.HouseholdID)
	if err == nil {
		for _, usage := range aggregate.ComputeRuleUsage(expenses, rules) {
			if usage.CategoryID == detail.CategoryID {
				msg.HasRule = true
				msg.RemainingCount = usage.Remaining
				break
			}
		}
	}

	w.notifier.NotifyExpense(ctx, household.LineNotifyToken, msg)
}
