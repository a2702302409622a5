// Package compare combines two aggregation passes of equal granularity
// into period-over-period deltas. It is stateless: callers hand it the
// already-aggregated current and previous sets.
package compare

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/aggregate"
	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/period"
)

type (
	// Comparison follows the sign convention of the product: a positive
	// Diff means spending went up. DiffPercent is 0 whenever the previous
	// total is zero, so a household's first period never shows a
	// nonsensical percentage.
	Comparison struct {
		CurrentTotal  int64
		PreviousTotal int64
		Diff          int64
		DiffPercent   int
	}

	CategoryChange struct {
		CategoryID    uuid.UUID
		CategoryName  string
		Icon          string
		Current       int64
		Previous      int64
		Change        int64
		ChangePercent int
	}

	// TrackerSummary pairs current and previous totals for one tracked
	// category. Trackers are opt-in watch-list entries: a summary is
	// emitted even when both sides are zero.
	TrackerSummary struct {
		TrackerID     uuid.UUID
		CategoryID    uuid.UUID
		CategoryName  string
		CategoryIcon  string
		CurrentTotal  int64
		CurrentCount  int
		PreviousTotal int64
		PreviousCount int
		Diff          int64
	}
)

// percentOf rounds half up, so -66.5% becomes -66, not -67. Matches the
// established client behavior.
func percentOf(diff, previous int64) int {
	return int(math.Floor(float64(diff)/float64(previous)*100 + 0.5))
}

// CompareTotals computes the delta between two period totals.
func CompareTotals(current, previous int64) Comparison {
	diff := current - previous
	percent := 0
	if previous > 0 {
		percent = percentOf(diff, previous)
	}
	return Comparison{
		CurrentTotal:  current,
		PreviousTotal: previous,
		Diff:          diff,
		DiffPercent:   percent,
	}
}

// CategoryBreakdown joins the two aggregate sets on category id; a
// category present on only one side counts as zero on the other. The
// result is sorted by absolute change descending so callers can truncate
// to the most significant movers.
func CategoryBreakdown(current, previous []aggregate.CategoryAggregate) []CategoryChange {
	type entry struct {
		id         uuid.UUID
		name, icon string
		cur, prev  int64
	}
	merged := make(map[uuid.UUID]*entry)
	var order []uuid.UUID

	add := func(a aggregate.CategoryAggregate) *entry {
		e, ok := merged[a.CategoryID]
		if !ok {
			e = &entry{id: a.CategoryID, name: a.CategoryName, icon: a.Icon}
			merged[a.CategoryID] = e
			order = append(order, a.CategoryID)
		}
		return e
	}
	for _, a := range current {
		add(a).cur = a.TotalAmount
	}
	for _, a := range previous {
		add(a).prev = a.TotalAmount
	}

	out := make([]CategoryChange, 0, len(order))
	for _, id := range order {
		e := merged[id]
		change := e.cur - e.prev
		percent := 0
		if e.prev > 0 {
			percent = percentOf(change, e.prev)
		}
		out = append(out, CategoryChange{
			CategoryID:    e.id,
			CategoryName:  e.name,
			Icon:          e.icon,
			Current:       e.cur,
			Previous:      e.prev,
			Change:        change,
			ChangePercent: percent,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		ai, aj := abs64(out[i].Change), abs64(out[j].Change)
		if ai != aj {
			return ai > aj
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// BuildTrackerSummaries emits one summary per tracked category, zero-filled
// when a side has no matching records.
func BuildTrackerSummaries(trackers []core.TrackerDetail, current, previous []core.ExpenseDetail) []TrackerSummary {
	out := make([]TrackerSummary, 0, len(trackers))
	for _, tr := range trackers {
		s := TrackerSummary{
			TrackerID:    tr.ID,
			CategoryID:   tr.CategoryID,
			CategoryName: tr.CategoryName,
			CategoryIcon: tr.CategoryIcon,
		}
		if s.CategoryName == "" {
			s.CategoryName = core.UncategorizedName
		}
		if s.CategoryIcon == "" {
			s.CategoryIcon = core.UncategorizedIcon
		}
		for _, e := range current {
			if e.CategoryID == tr.CategoryID {
				s.CurrentTotal += e.Amount
				s.CurrentCount++
			}
		}
		for _, e := range previous {
			if e.CategoryID == tr.CategoryID {
				s.PreviousTotal += e.Amount
				s.PreviousCount++
			}
		}
		s.Diff = s.CurrentTotal - s.PreviousTotal
		out = append(out, s)
	}
	return out
}

// ResolveComparisonWindow resolves the period immediately preceding p at
// the same granularity. The boolean is false when no previous period
// exists (month granularity, household too young); callers treat that as a
// zero-filled comparison, not an error.
func ResolveComparisonWindow(cfg period.Config, p period.Period, cal period.HolidayCalendar) (period.Period, bool, error) {
	switch p.Granularity {
	case period.Week:
		return period.ResolvePreviousWeekly(p), true, nil
	default:
		return period.ResolvePreviousMonthly(cfg, p, cal)
	}
}
