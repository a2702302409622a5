package compare

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/aggregate"
	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/period"
)

func TestCompareTotals(t *testing.T) {
	cases := []struct {
		name        string
		cur, prev   int64
		diff        int64
		diffPercent int
	}{
		{"increase", 12000, 10000, 2000, 20},
		{"decrease", 8000, 10000, -2000, -20},
		{"flat", 5000, 5000, 0, 0},
		{"no data at all", 0, 0, 0, 0},
		{"first period", 5000, 0, 5000, 0}, // never infinite
		{"rounding", 1000, 3000, -2000, -67},
		{"positive half rounds up", 333, 200, 133, 67},   // +66.5%
		{"negative half rounds up", 67, 200, -133, -66},  // -66.5%, not -67
	}
	for _, tc := range cases {
		got := CompareTotals(tc.cur, tc.prev)
		if got.Diff != tc.diff || got.DiffPercent != tc.diffPercent {
			t.Errorf("%s: got diff=%d percent=%d, want diff=%d percent=%d",
				tc.name, got.Diff, got.DiffPercent, tc.diff, tc.diffPercent)
		}
	}
}

func TestCategoryBreakdown(t *testing.T) {
	food := uuid.New()
	fun := uuid.New()
	clothes := uuid.New()

	current := []aggregate.CategoryAggregate{
		{CategoryID: food, CategoryName: "食費", TotalAmount: 30000},
		{CategoryID: fun, CategoryName: "娯楽", TotalAmount: 5000},
	}
	previous := []aggregate.CategoryAggregate{
		{CategoryID: food, CategoryName: "食費", TotalAmount: 28000},
		{CategoryID: clothes, CategoryName: "衣服", TotalAmount: 12000},
	}

	changes := CategoryBreakdown(current, previous)
	if len(changes) != 3 {
		t.Fatalf("got %d changes, want 3 (symmetric join)", len(changes))
	}
	// sorted by abs(change) desc: clothes -12000, fun +5000, food +2000
	if changes[0].CategoryID != clothes || changes[0].Change != -12000 {
		t.Errorf("changes[0] = %+v, want clothes -12000", changes[0])
	}
	if changes[0].Current != 0 {
		t.Errorf("missing side should be zero, got %d", changes[0].Current)
	}
	if changes[1].CategoryID != fun || changes[1].Change != 5000 || changes[1].ChangePercent != 0 {
		t.Errorf("changes[1] = %+v, want fun +5000 percent 0", changes[1])
	}
	if changes[2].CategoryID != food || changes[2].Change != 2000 || changes[2].ChangePercent != 7 {
		t.Errorf("changes[2] = %+v, want food +2000 percent 7", changes[2])
	}
}

func TestBuildTrackerSummaries(t *testing.T) {
	watched := uuid.New()
	idle := uuid.New()
	trackers := []core.TrackerDetail{
		{Tracker: core.Tracker{ID: uuid.New(), CategoryID: watched}, CategoryName: "外食", CategoryIcon: "🍜"},
		{Tracker: core.Tracker{ID: uuid.New(), CategoryID: idle}, CategoryName: "書籍"},
	}
	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	mk := func(cat uuid.UUID, amount int64) core.ExpenseDetail {
		return core.ExpenseDetail{Expense: core.Expense{CategoryID: cat, Amount: amount, Date: day}}
	}
	current := []core.ExpenseDetail{mk(watched, 3000), mk(watched, 1500), mk(uuid.New(), 9000)}
	previous := []core.ExpenseDetail{mk(watched, 2000)}

	sums := BuildTrackerSummaries(trackers, current, previous)
	if len(sums) != 2 {
		t.Fatalf("got %d summaries, want one per tracker", len(sums))
	}
	if sums[0].CurrentTotal != 4500 || sums[0].CurrentCount != 2 ||
		sums[0].PreviousTotal != 2000 || sums[0].Diff != 2500 {
		t.Errorf("watched summary = %+v", sums[0])
	}
	// the idle tracker still gets a zero-filled row
	if sums[1].CurrentTotal != 0 || sums[1].PreviousTotal != 0 || sums[1].Diff != 0 {
		t.Errorf("idle summary = %+v, want all zeros", sums[1])
	}
}

func TestResolveComparisonWindow(t *testing.T) {
	cfg := period.Config{ResetDay: 25}

	week := period.ResolveWeekly(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	prev, ok, err := ResolveComparisonWindow(cfg, week, nil)
	if err != nil || !ok {
		t.Fatalf("weekly window: ok=%v err=%v", ok, err)
	}
	if !prev.End.Equal(week.Start.AddDate(0, 0, -1)) || prev.Days() != 7 {
		t.Errorf("weekly previous = [%s, %s]", prev.Start.Format(time.DateOnly), prev.End.Format(time.DateOnly))
	}

	month, err := period.ResolveMonthly(cfg, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), nil)
	if err != nil {
		t.Fatalf("resolve monthly: %v", err)
	}
	prev, ok, err = ResolveComparisonWindow(cfg, month, nil)
	if err != nil || !ok {
		t.Fatalf("monthly window: ok=%v err=%v", ok, err)
	}
	if !prev.End.Equal(month.Start.AddDate(0, 0, -1)) {
		t.Errorf("monthly previous ends %s, want day before current start", prev.End.Format(time.DateOnly))
	}

	// a first-cycle household has no monthly window
	young := period.Config{ResetDay: 1, CreatedAt: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}
	m2, err := period.ResolveMonthly(young, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), nil)
	if err != nil {
		t.Fatalf("resolve monthly: %v", err)
	}
	if _, ok, _ := ResolveComparisonWindow(young, m2, nil); ok {
		t.Error("expected absent window for first cycle")
	}
}
