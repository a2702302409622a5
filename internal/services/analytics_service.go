package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/aggregate"
	"github.com/smilior/kakeibo/internal/compare"
	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/llm"
	"github.com/smilior/kakeibo/internal/log"
	"github.com/smilior/kakeibo/internal/narrative"
	"github.com/smilior/kakeibo/internal/period"
)

// PeriodComparison is the analytics payload: the current period fully
// aggregated, the previous one when it exists, and the deltas between
// them.
type PeriodComparison struct {
	Current            period.Period
	Previous           *period.Period
	Comparison         compare.Comparison
	CurrentCategories  []aggregate.CategoryAggregate
	PreviousCategories []aggregate.CategoryAggregate
	CategoryChanges    []compare.CategoryChange
	PersonTotals       []aggregate.PersonAggregate
	DailyBuckets       []aggregate.DayBucket
	WeekBuckets        []aggregate.WeekBucket
}

// YearlyBucketTotal pairs one cycle-aligned month bucket with its total.
type YearlyBucketTotal struct {
	Period period.Period
	Total  int64
	Count  int
}

type AnalyticsService struct {
	store      ReadStore
	narratives *narrative.Service
	calendar   period.HolidayCalendar
	logger     *log.Logger
}

func NewAnalyticsService(store ReadStore, narratives *narrative.Service, calendar period.HolidayCalendar, logger *log.Logger) *AnalyticsService {
	return &AnalyticsService{
		store:      store,
		narratives: narratives,
		calendar:   calendar,
		logger:     logger.WithComponent(log.ComponentAnalytics),
	}
}

func (s *AnalyticsService) periodConfig(ctx context.Context, householdID uuid.UUID) (core.Household, period.Config, error) {
	household, err := s.store.GetHousehold(ctx, householdID)
	if err != nil {
		return core.Household{}, period.Config{}, fmt.Errorf("load household: %w", err)
	}
	return household, period.Config{
		ResetDay:     household.ResetDay,
		SkipHolidays: household.SkipHolidays,
		CreatedAt:    household.CreatedAt,
	}, nil
}

func (s *AnalyticsService) resolve(cfg period.Config, g period.Granularity, refDate time.Time) (period.Period, error) {
	if g == period.Week {
		return period.ResolveWeekly(refDate), nil
	}
	return period.ResolveMonthly(cfg, refDate, s.calendar)
}

// Comparison aggregates the period containing refDate at the requested
// granularity and compares it against the immediately preceding one.
func (s *AnalyticsService) Comparison(ctx context.Context, householdID uuid.UUID, g period.Granularity, refDate time.Time) (PeriodComparison, error) {
	_, cfg, err := s.periodConfig(ctx, householdID)
	if err != nil {
		return PeriodComparison{}, err
	}

	current, err := s.resolve(cfg, g, refDate)
	if err != nil {
		return PeriodComparison{}, fmt.Errorf("resolve period: %w", err)
	}

	currentExpenses, err := s.store.ListExpenses(ctx, householdID, current.Start, current.End)
	if err != nil {
		return PeriodComparison{}, fmt.Errorf("list expenses: %w", err)
	}

	out := PeriodComparison{
		Current:           current,
		CurrentCategories: aggregate.ByCategory(currentExpenses),
		PersonTotals:      aggregate.ByPerson(currentExpenses),
		DailyBuckets:      aggregate.BucketByDay(currentExpenses, current),
	}
	if g == period.Month {
		out.WeekBuckets = aggregate.BucketByWeekOfPeriod(currentExpenses, current)
	}

	var prevExpenses []core.ExpenseDetail
	prev, ok, err := compare.ResolveComparisonWindow(cfg, current, s.calendar)
	if err != nil {
		return PeriodComparison{}, fmt.Errorf("resolve previous period: %w", err)
	}
	if ok {
		prevExpenses, err = s.store.ListExpenses(ctx, householdID, prev.Start, prev.End)
		if err != nil {
			return PeriodComparison{}, fmt.Errorf("list previous expenses: %w", err)
		}
		out.Previous = &prev
		out.PreviousCategories = aggregate.ByCategory(prevExpenses)
	}

	out.Comparison = compare.CompareTotals(aggregate.Total(currentExpenses), aggregate.Total(prevExpenses))
	out.CategoryChanges = compare.CategoryBreakdown(out.CurrentCategories, out.PreviousCategories)
	return out, nil
}

// YearlyOverview totals the twelve cycle-aligned buckets of one year.
func (s *AnalyticsService) YearlyOverview(ctx context.Context, householdID uuid.UUID, year int) ([]YearlyBucketTotal, error) {
	_, cfg, err := s.periodConfig(ctx, householdID)
	if err != nil {
		return nil, err
	}

	buckets, err := period.ResolveYearlyBuckets(cfg, year, s.calendar)
	if err != nil {
		return nil, fmt.Errorf("resolve yearly buckets: %w", err)
	}

	// one query spanning the whole year, then bucket in memory
	expenses, err := s.store.ListExpenses(ctx, householdID, buckets[0].Start, buckets[11].End)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	out := make([]YearlyBucketTotal, len(buckets))
	for i, b := range buckets {
		out[i].Period = b
		for _, e := range expenses {
			if b.Contains(e.Date) {
				out[i].Total += e.Amount
				out[i].Count++
			}
		}
	}
	return out, nil
}

// Narrative produces (or serves from cache) the AI text for the period
// containing refDate. Force regenerates and replaces the cached row.
func (s *AnalyticsService) Narrative(ctx context.Context, householdID uuid.UUID, g period.Granularity, refDate time.Time, force bool) (narrative.Result, error) {
	household, _, err := s.periodConfig(ctx, householdID)
	if err != nil {
		return narrative.Result{}, err
	}

	comparison, err := s.Comparison(ctx, householdID, g, refDate)
	if err != nil {
		return narrative.Result{}, err
	}

	prompt := llm.BuildPeriodAnalysisPrompt(llm.PeriodAnalysisData{
		Granularity:        g,
		Comparison:         comparison.Comparison,
		CurrentCategories:  comparison.CurrentCategories,
		PreviousCategories: comparison.PreviousCategories,
		Changes:            comparison.CategoryChanges,
		Persons:            comparison.PersonTotals,
	})

	periodType := "month"
	if g == period.Week {
		periodType = "week"
	}

	return s.narratives.Generate(ctx, narrative.Request{
		HouseholdID: householdID,
		PeriodType:  periodType,
		PeriodStart: comparison.Current.Start,
		PeriodEnd:   comparison.Current.End,
		Model:       household.AIModel,
		Prompt:      prompt,
		HasData:     comparison.Comparison.CurrentTotal > 0 || len(comparison.CurrentCategories) > 0,
		Force:       force,
	})
}

// adviceData assembles the monthly-period snapshot both daily text
// features feed off of.
func (s *AnalyticsService) adviceData(ctx context.Context, householdID uuid.UUID, refDate time.Time) (core.Household, llm.AdviceData, error) {
	household, cfg, err := s.periodConfig(ctx, householdID)
	if err != nil {
		return core.Household{}, llm.AdviceData{}, err
	}

	current, err := period.ResolveMonthly(cfg, refDate, s.calendar)
	if err != nil {
		return core.Household{}, llm.AdviceData{}, fmt.Errorf("resolve period: %w", err)
	}

	expenses, err := s.store.ListExpenses(ctx, householdID, current.Start, current.End)
	if err != nil {
		return core.Household{}, llm.AdviceData{}, fmt.Errorf("list expenses: %w", err)
	}

	rules, err := s.store.ListActiveRules(ctx, householdID)
	if err != nil {
		return core.Household{}, llm.AdviceData{}, fmt.Errorf("list rules: %w", err)
	}

	subs, err := s.store.ListActiveSubscriptions(ctx, householdID)
	if err != nil {
		return core.Household{}, llm.AdviceData{}, fmt.Errorf("list subscriptions: %w", err)
	}
	var subTotal int64
	for _, sub := range subs {
		subTotal += sub.MonthlyAmount
	}

	return household, llm.AdviceData{
		SystemPrompt:      household.AISystemPrompt,
		Total:             aggregate.Total(expenses),
		SubscriptionTotal: subTotal,
		Categories:        aggregate.ByCategory(expenses),
		Persons:           aggregate.ByPerson(expenses),
		Rules:             aggregate.ComputeRuleUsage(expenses, rules),
		Today:             refDate,
		PeriodStart:       current.Start,
		PeriodEnd:         current.End,
	}, nil
}

// DailyAdvice produces (or serves from cache) the one-shot coaching text
// for refDate. Cached per day under its own period type, so it shares the
// storage arbiter with the period narratives.
func (s *AnalyticsService) DailyAdvice(ctx context.Context, householdID uuid.UUID, refDate time.Time, force bool) (narrative.Result, error) {
	household, data, err := s.adviceData(ctx, householdID, refDate)
	if err != nil {
		return narrative.Result{}, err
	}

	return s.narratives.Generate(ctx, narrative.Request{
		HouseholdID: householdID,
		PeriodType:  "advice",
		PeriodStart: refDate,
		PeriodEnd:   refDate,
		Model:       household.AIModel,
		Prompt:      llm.BuildAdvicePrompt(data),
		HasData:     data.Total > 0 || len(data.Categories) > 0,
		Force:       force,
	})
}

// Diary produces (or serves from cache) the daily diary entry. Unlike the
// advice text it is written even on a no-spend day: the weekday theme
// carries the entry.
func (s *AnalyticsService) Diary(ctx context.Context, householdID uuid.UUID, refDate time.Time, force bool) (narrative.Result, error) {
	household, data, err := s.adviceData(ctx, householdID, refDate)
	if err != nil {
		return narrative.Result{}, err
	}

	return s.narratives.Generate(ctx, narrative.Request{
		HouseholdID: householdID,
		PeriodType:  "diary",
		PeriodStart: refDate,
		PeriodEnd:   refDate,
		Model:       household.AIModel,
		Prompt:      llm.BuildDiaryPrompt(data),
		HasData:     true,
		Force:       force,
	})
}
