package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/narrative"
	"github.com/smilior/kakeibo/internal/period"
	"github.com/smilior/kakeibo/internal/storage"
)

func analyticsFixture() (*fakeReadStore, uuid.UUID, uuid.UUID, uuid.UUID) {
	householdID := uuid.New()
	food := uuid.New()
	fun := uuid.New()
	store := &fakeReadStore{
		household: core.Household{
			ID:        householdID,
			Name:      "家計",
			ResetDay:  25,
			CreatedAt: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		expenses: []core.ExpenseDetail{
			// current period [2024-02-25, 2024-03-24]
			expenseOn(householdID, food, "食費", 30000, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
			expenseOn(householdID, fun, "娯楽", 5000, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
			// previous period [2024-01-25, 2024-02-24]
			expenseOn(householdID, food, "食費", 28000, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		},
	}
	return store, householdID, food, fun
}

func newAnalytics(store *fakeReadStore) *AnalyticsService {
	return NewAnalyticsService(store, nil, period.JapaneseHolidays{}, testLogger())
}

func TestComparisonMonthly(t *testing.T) {
	store, householdID, _, _ := analyticsFixture()
	svc := newAnalytics(store)

	got, err := svc.Comparison(context.Background(), householdID, period.Month,
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Comparison() error: %v", err)
	}

	if got.Comparison.CurrentTotal != 35000 || got.Comparison.PreviousTotal != 28000 {
		t.Errorf("totals = %+v", got.Comparison)
	}
	if got.Comparison.Diff != 7000 || got.Comparison.DiffPercent != 25 {
		t.Errorf("diff = %+v", got.Comparison)
	}
	if got.Previous == nil {
		t.Fatal("previous period missing")
	}
	if !got.Previous.Start.Equal(time.Date(2024, 1, 25, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("previous start = %v", got.Previous.Start)
	}
	if len(got.DailyBuckets) != got.Current.Days() {
		t.Errorf("daily buckets = %d, want %d", len(got.DailyBuckets), got.Current.Days())
	}
	if len(got.WeekBuckets) == 0 {
		t.Error("month comparison should carry week-of-period buckets")
	}
	if len(got.CategoryChanges) == 0 || got.CategoryChanges[0].CategoryName != "娯楽" {
		// 娯楽 +5000 is the biggest mover (食費 +2000)
		t.Errorf("CategoryChanges = %+v", got.CategoryChanges)
	}
}

func TestComparisonWeekly(t *testing.T) {
	store, householdID, _, _ := analyticsFixture()
	svc := newAnalytics(store)

	got, err := svc.Comparison(context.Background(), householdID, period.Week,
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Comparison() error: %v", err)
	}
	if !got.Current.Start.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("weekly start = %v, want Monday 2024-03-11", got.Current.Start)
	}
	if got.Comparison.CurrentTotal != 5000 {
		t.Errorf("weekly total = %d, want 5000", got.Comparison.CurrentTotal)
	}
	if got.Previous == nil {
		t.Fatal("weekly comparison always has a previous window")
	}
	if len(got.WeekBuckets) != 0 {
		t.Error("week granularity should not emit week-of-period buckets")
	}
}

func TestComparisonFirstCycleHasNoPrevious(t *testing.T) {
	store, householdID, _, _ := analyticsFixture()
	store.household.CreatedAt = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := newAnalytics(store)

	got, err := svc.Comparison(context.Background(), householdID, period.Month,
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Comparison() error: %v", err)
	}
	if got.Previous != nil {
		t.Errorf("previous = %+v, want nil for first cycle", got.Previous)
	}
	if got.Comparison.PreviousTotal != 0 || got.Comparison.DiffPercent != 0 {
		t.Errorf("comparison = %+v, want zero-filled previous", got.Comparison)
	}
}

func TestYearlyOverview(t *testing.T) {
	store, householdID, _, _ := analyticsFixture()
	svc := newAnalytics(store)

	got, err := svc.YearlyOverview(context.Background(), householdID, 2024)
	if err != nil {
		t.Fatalf("YearlyOverview() error: %v", err)
	}
	if len(got) != 12 {
		t.Fatalf("buckets = %d, want 12", len(got))
	}

	var total int64
	for _, b := range got {
		total += b.Total
	}
	// all three seeded expenses fall inside the 2024 cycle year
	if total != 63000 {
		t.Errorf("year total = %d, want 63000", total)
	}
	// 2024-02-01 belongs to bucket 1 ([2024-01-25, 2024-02-24])
	if got[1].Total != 28000 || got[1].Count != 1 {
		t.Errorf("bucket[1] = %+v", got[1])
	}
	// 2024-03-01 and 2024-03-15 belong to bucket 2
	if got[2].Total != 35000 || got[2].Count != 2 {
		t.Errorf("bucket[2] = %+v", got[2])
	}
}

type recordingProvider struct {
	prompt string
}

func (p *recordingProvider) Generate(_ context.Context, _, prompt string) (string, error) {
	p.prompt = prompt
	return "分析テキスト", nil
}

type memoryNarrativeStore struct {
	rows map[string]core.Narrative
}

func (s *memoryNarrativeStore) key(id uuid.UUID, pt string, start time.Time) string {
	return id.String() + pt + start.Format("2006-01-02")
}

func (s *memoryNarrativeStore) GetNarrative(_ context.Context, id uuid.UUID, pt string, start time.Time) (core.Narrative, error) {
	if n, ok := s.rows[s.key(id, pt, start)]; ok {
		return n, nil
	}
	return core.Narrative{}, storage.ErrNotFound
}

func (s *memoryNarrativeStore) InsertNarrative(_ context.Context, n core.Narrative) error {
	s.rows[s.key(n.HouseholdID, n.PeriodType, n.PeriodStart)] = n
	return nil
}

func (s *memoryNarrativeStore) ReplaceNarrative(_ context.Context, n core.Narrative) error {
	s.rows[s.key(n.HouseholdID, n.PeriodType, n.PeriodStart)] = n
	return nil
}

func TestNarrativeBuildsPromptFromComparison(t *testing.T) {
	store, householdID, _, _ := analyticsFixture()
	provider := &recordingProvider{}
	narrStore := &memoryNarrativeStore{rows: make(map[string]core.Narrative)}
	narrSvc := narrative.NewService(narrStore, provider, testLogger(), time.Minute)
	svc := NewAnalyticsService(store, narrSvc, period.JapaneseHolidays{}, testLogger())

	res, err := svc.Narrative(context.Background(), householdID, period.Month,
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), false)
	if err != nil {
		t.Fatalf("Narrative() error: %v", err)
	}
	if res.State != narrative.StateReady || res.Text != "分析テキスト" {
		t.Errorf("result = %+v", res)
	}
	for _, want := range []string{"¥35,000", "食費", "娯楽", "今月と先月"} {
		if !strings.Contains(provider.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	stored, err := narrStore.GetNarrative(context.Background(), householdID, "month",
		time.Date(2024, 2, 25, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("narrative not cached: %v", err)
	}
	if stored.Text != "分析テキスト" {
		t.Errorf("cached text = %q", stored.Text)
	}
}

func TestDailyAdviceBuildsPromptAndCachesPerDay(t *testing.T) {
	store, householdID, food, fun := analyticsFixture()
	store.rules = []core.RuleDetail{
		{Rule: core.Rule{ID: uuid.New(), HouseholdID: householdID, CategoryID: food,
			MonthlyLimit: 3, IsActive: true}, CategoryName: "食費"},
	}
	store.subscriptions = []core.Subscription{
		{ID: uuid.New(), HouseholdID: householdID, CategoryID: fun,
			Name: "動画配信", MonthlyAmount: 990, IsActive: true},
	}
	provider := &recordingProvider{}
	narrStore := &memoryNarrativeStore{rows: make(map[string]core.Narrative)}
	narrSvc := narrative.NewService(narrStore, provider, testLogger(), time.Minute)
	svc := NewAnalyticsService(store, narrSvc, period.JapaneseHolidays{}, testLogger())

	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	res, err := svc.DailyAdvice(context.Background(), householdID, day, false)
	if err != nil {
		t.Fatalf("DailyAdvice() error: %v", err)
	}
	if res.State != narrative.StateReady {
		t.Fatalf("state = %v", res.State)
	}
	for _, want := range []string{"¥35,000", "¥990", "食費: 1/3回", "金曜日"} {
		if !strings.Contains(provider.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}

	if _, err := narrStore.GetNarrative(context.Background(), householdID, "advice", day); err != nil {
		t.Fatalf("advice not cached under its day: %v", err)
	}
}

func TestDiaryWrittenOnNoSpendDay(t *testing.T) {
	store, householdID, _, _ := analyticsFixture()
	store.expenses = nil
	provider := &recordingProvider{}
	narrStore := &memoryNarrativeStore{rows: make(map[string]core.Narrative)}
	narrSvc := narrative.NewService(narrStore, provider, testLogger(), time.Minute)
	svc := NewAnalyticsService(store, narrSvc, period.JapaneseHolidays{}, testLogger())

	// Monday's theme
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	res, err := svc.Diary(context.Background(), householdID, day, false)
	if err != nil {
		t.Fatalf("Diary() error: %v", err)
	}
	if res.State != narrative.StateReady {
		t.Fatalf("state = %v, diary should generate even with no expenses", res.State)
	}
	if !strings.Contains(provider.prompt, "今週の目標設定") {
		t.Errorf("prompt missing Monday theme: %q", provider.prompt)
	}
	if _, err := narrStore.GetNarrative(context.Background(), householdID, "diary", day); err != nil {
		t.Fatalf("diary not cached: %v", err)
	}
}
