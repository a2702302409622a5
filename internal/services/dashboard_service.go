package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/aggregate"
	"github.com/smilior/kakeibo/internal/compare"
	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/log"
	"github.com/smilior/kakeibo/internal/period"
)

// ReadStore is the read-side slice of the repository shared by the
// dashboard and analytics services.
type ReadStore interface {
	GetHousehold(ctx context.Context, id uuid.UUID) (core.Household, error)
	ListExpenses(ctx context.Context, householdID uuid.UUID, from, to time.Time) ([]core.ExpenseDetail, error)
	ListActiveRules(ctx context.Context, householdID uuid.UUID) ([]core.RuleDetail, error)
	ListActiveTrackers(ctx context.Context, householdID uuid.UUID) ([]core.TrackerDetail, error)
	ListActiveSubscriptions(ctx context.Context, householdID uuid.UUID) ([]core.Subscription, error)
}

// Summary is the one-call dashboard payload for the current billing period.
type Summary struct {
	Period            period.Period
	TotalExpense      int64
	SubscriptionTotal int64
	CategoryTotals    []aggregate.CategoryAggregate
	PersonTotals      []aggregate.PersonAggregate
	RemainingCounts   []aggregate.RuleUsage
	TrackerSummaries  []compare.TrackerSummary
	RecentExpenses    []core.ExpenseDetail
}

// DashboardService assembles the landing-page summary. Household settings
// are read fresh on every call so a reset-day change takes effect on the
// next request, and the whole summary is computed against one reference
// date.
type DashboardService struct {
	store    ReadStore
	calendar period.HolidayCalendar
	logger   *log.Logger
}

func NewDashboardService(store ReadStore, calendar period.HolidayCalendar, logger *log.Logger) *DashboardService {
	return &DashboardService{
		store:    store,
		calendar: calendar,
		logger:   logger.WithComponent(log.ComponentDashboard),
	}
}

const recentExpenseLimit = 10

func (s *DashboardService) Summary(ctx context.Context, householdID uuid.UUID, refDate time.Time) (Summary, error) {
	household, err := s.store.GetHousehold(ctx, householdID)
	if err != nil {
		return Summary{}, fmt.Errorf("load household: %w", err)
	}

	cfg := period.Config{
		ResetDay:     household.ResetDay,
		SkipHolidays: household.SkipHolidays,
		CreatedAt:    household.CreatedAt,
	}
	current, err := period.ResolveMonthly(cfg, refDate, s.calendar)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve period: %w", err)
	}

	expenses, err := s.store.ListExpenses(ctx, householdID, current.Start, current.End)
	if err != nil {
		return Summary{}, fmt.Errorf("list expenses: %w", err)
	}

	rules, err := s.store.ListActiveRules(ctx, householdID)
	if err != nil {
		return Summary{}, fmt.Errorf("list rules: %w", err)
	}

	trackers, err := s.store.ListActiveTrackers(ctx, householdID)
	if err != nil {
		return Summary{}, fmt.Errorf("list trackers: %w", err)
	}

	subs, err := s.store.ListActiveSubscriptions(ctx, householdID)
	if err != nil {
		return Summary{}, fmt.Errorf("list subscriptions: %w", err)
	}
	var subTotal int64
	for _, sub := range subs {
		subTotal += sub.MonthlyAmount
	}

	var prevExpenses []core.ExpenseDetail
	if prev, ok, err := period.ResolvePreviousMonthly(cfg, current, s.calendar); err == nil && ok {
		prevExpenses, err = s.store.ListExpenses(ctx, householdID, prev.Start, prev.End)
		if err != nil {
			return Summary{}, fmt.Errorf("list previous expenses: %w", err)
		}
	}

	recent := expenses
	if len(recent) > recentExpenseLimit {
		// ListExpenses orders oldest first; the tail is the newest
		recent = recent[len(recent)-recentExpenseLimit:]
	}

	return Summary{
		Period:            current,
		TotalExpense:      aggregate.Total(expenses),
		SubscriptionTotal: subTotal,
		CategoryTotals:    aggregate.ByCategory(expenses),
		PersonTotals:      aggregate.ByPerson(expenses),
		RemainingCounts:   aggregate.ComputeRuleUsage(expenses, rules),
		TrackerSummaries:  compare.BuildTrackerSummaries(trackers, expenses, prevExpenses),
		RecentExpenses:    recent,
	}, nil
}
