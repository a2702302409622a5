// Package services orchestrates storage, period resolution, aggregation
// and the messaging side effects behind the HTTP handlers.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/amqp"
	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/log"
)

// ExpenseStore is the slice of the repository the expense service uses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, e core.Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) error
	DeleteExpense(ctx context.Context, householdID, id uuid.UUID) error
	GetPreset(ctx context.Context, householdID, id uuid.UUID) (core.PresetDetail, error)
}

// EventPublisher fans an expense mutation out to the worker.
type EventPublisher interface {
	PublishExpenseEvent(ctx context.Context, event *amqp.ExpenseEvent) error
}

// ExpenseService writes expenses and publishes their events. Publishing is
// best-effort: the local write is the source of truth, a lost event never
// fails the request.
type ExpenseService struct {
	store     ExpenseStore
	publisher EventPublisher
	logger    *log.Logger
}

func NewExpenseService(store ExpenseStore, publisher EventPublisher, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentExpense),
	}
}

func (s *ExpenseService) Create(ctx context.Context, e core.Expense) (core.Expense, error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	if err := s.store.CreateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseCreated, e.ID, e.HouseholdID, e.Date))
	return e, nil
}

// BulkRequest registers every line of a preset as an expense on one date.
// Amounts maps item id to an amount override; an override of zero (or a
// stored amount of zero after override) drops the line.
type BulkRequest struct {
	HouseholdID uuid.UUID
	UserID      uuid.UUID
	PresetID    uuid.UUID
	Date        time.Time
	Amounts     map[uuid.UUID]int64
}

// BulkCreateFromPreset writes one expense per registrable preset item.
// Each expense gets its own created event, but only the first is audible,
// so the household receives a single LINE message for the batch.
func (s *ExpenseService) BulkCreateFromPreset(ctx context.Context, req BulkRequest) ([]core.Expense, error) {
	if req.Date.IsZero() {
		return nil, core.ErrInvalidDate
	}

	preset, err := s.store.GetPreset(ctx, req.HouseholdID, req.PresetID)
	if err != nil {
		return nil, fmt.Errorf("load preset: %w", err)
	}

	now := time.Now().UTC()
	expenses := make([]core.Expense, 0, len(preset.Items))
	for _, item := range preset.Items {
		amount := item.Amount
		if override, ok := req.Amounts[item.ID]; ok {
			amount = override
		}
		if amount <= 0 {
			continue
		}
		e := core.Expense{
			ID:             uuid.New(),
			HouseholdID:    req.HouseholdID,
			UserID:         req.UserID,
			FamilyMemberID: item.FamilyMemberID,
			CategoryID:     item.CategoryID,
			Amount:         amount,
			Date:           req.Date,
			Memo:           item.Memo,
			CreatedAt:      now,
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("preset item %s: %w", item.ID, err)
		}
		expenses = append(expenses, e)
	}
	if len(expenses) == 0 {
		return nil, core.ErrEmptyPreset
	}

	for i, e := range expenses {
		if err := s.store.CreateExpense(ctx, e); err != nil {
			return nil, fmt.Errorf("create expense from preset: %w", err)
		}
		event := amqp.NewExpenseEvent(amqp.EventExpenseCreated, e.ID, e.HouseholdID, e.Date)
		event.Silent = i > 0
		s.publish(ctx, event)
	}

	s.logger.InfoContext(ctx, "bulk-registered expenses from preset",
		log.FieldHouseholdID, req.HouseholdID.String(),
		"preset", preset.Name,
		"count", len(expenses))
	return expenses, nil
}

func (s *ExpenseService) Update(ctx context.Context, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	// fetch before the write so a date change invalidates both periods
	prev, err := s.store.GetExpense(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseUpdated, e.ID, e.HouseholdID, e.Date))
	if !prev.Date.Equal(e.Date) {
		s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseUpdated, e.ID, e.HouseholdID, prev.Date))
	}
	return nil
}

func (s *ExpenseService) Delete(ctx context.Context, householdID, id uuid.UUID) error {
	prev, err := s.store.GetExpense(ctx, id)
	if err != nil {
		return fmt.Errorf("load expense: %w", err)
	}

	if err := s.store.DeleteExpense(ctx, householdID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseDeleted, id, householdID, prev.Date))
	return nil
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "event publisher not available, skipping",
			log.FieldEventType, string(event.Type))
		return
	}
	if err := s.publisher.PublishExpenseEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish expense event",
			log.FieldEventType, string(event.Type),
			log.FieldExpenseID, event.ExpenseID.String(),
			log.FieldError, err.Error())
		// expense is already persisted locally, do not fail the request
	}
}
