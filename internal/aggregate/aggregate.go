// Package aggregate folds raw expense records into the grouped totals the
// dashboard, analytics and prompt feed consume. All input records are
// expected to be pre-fetched; nothing here touches I/O.
package aggregate

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/period"
)

type (
	// CategoryAggregate is the per-category total for one period.
	// Records whose category is unknown land in a synthetic bucket
	// (uuid.Nil id, fallback name/icon) rather than being dropped.
	CategoryAggregate struct {
		CategoryID   uuid.UUID
		CategoryName string
		Icon         string
		TotalAmount  int64
		Count        int
	}

	// PersonAggregate is the per-owner total. OwnerKey carries a prefix
	// ("member:" or "user:") so family members and account users can never
	// collide even if their ids did.
	PersonAggregate struct {
		OwnerKey       string
		Label          string
		TotalAmount    int64
		Count          int
		IsFamilyMember bool
	}

	DayBucket struct {
		Date   time.Time
		Amount int64
	}

	// WeekBucket is one Monday-aligned segment of a month-granularity
	// period. The first and last segments may be partial.
	WeekBucket struct {
		Index  int
		Start  time.Time
		End    time.Time
		Amount int64
	}

	// RuleUsage carries both the raw remaining count (may go negative when
	// usage exceeds the limit) and a zero-floored one for display.
	RuleUsage struct {
		RuleID           uuid.UUID
		CategoryID       uuid.UUID
		CategoryName     string
		CategoryIcon     string
		MonthlyLimit     int
		CurrentCount     int
		Remaining        int
		RemainingClamped int
	}
)

// FilterByPeriod keeps the records whose date falls inside p, comparing
// calendar dates only.
func FilterByPeriod(records []core.ExpenseDetail, p period.Period) []core.ExpenseDetail {
	var out []core.ExpenseDetail
	for _, r := range records {
		if p.Contains(r.Date) {
			out = append(out, r)
		}
	}
	return out
}

// Total sums the amounts of all records.
func Total(records []core.ExpenseDetail) int64 {
	var sum int64
	for _, r := range records {
		sum += r.Amount
	}
	return sum
}

// ByCategory groups records by category, summing amounts and counting.
// Result is sorted by total descending; equal totals fall back to name so
// output is deterministic.
func ByCategory(records []core.ExpenseDetail) []CategoryAggregate {
	byID := make(map[uuid.UUID]*CategoryAggregate)
	for _, r := range records {
		agg, ok := byID[r.CategoryID]
		if !ok {
			agg = &CategoryAggregate{
				CategoryID:   r.CategoryID,
				CategoryName: r.CategoryName,
				Icon:         r.CategoryIcon,
			}
			if r.CategoryID == uuid.Nil || r.CategoryName == "" {
				agg.CategoryName = core.UncategorizedName
			}
			if r.CategoryIcon == "" {
				agg.Icon = core.UncategorizedIcon
			}
			byID[r.CategoryID] = agg
		}
		agg.TotalAmount += r.Amount
		agg.Count++
	}

	out := make([]CategoryAggregate, 0, len(byID))
	for _, agg := range byID {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}

// ByPerson groups records by their owner dimension: family member when the
// record carries one, otherwise the account user.
func ByPerson(records []core.ExpenseDetail) []PersonAggregate {
	byKey := make(map[string]*PersonAggregate)
	var order []string
	for _, r := range records {
		key, isFamily := ownerKey(r)
		agg, ok := byKey[key]
		if !ok {
			agg = &PersonAggregate{
				OwnerKey:       key,
				Label:          r.OwnerLabel(),
				IsFamilyMember: isFamily,
			}
			byKey[key] = agg
			order = append(order, key)
		}
		agg.TotalAmount += r.Amount
		agg.Count++
	}

	out := make([]PersonAggregate, 0, len(order))
	for _, key := range order {
		out = append(out, *byKey[key])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].OwnerKey < out[j].OwnerKey
	})
	return out
}

func ownerKey(r core.ExpenseDetail) (string, bool) {
	if r.FamilyMemberID != uuid.Nil {
		return "member:" + r.FamilyMemberID.String(), true
	}
	return "user:" + r.UserID.String(), false
}

// BucketByDay produces one bucket per calendar day in the period, zero
// days included, so chart axes stay continuous. Records outside the period
// are ignored.
func BucketByDay(records []core.ExpenseDetail, p period.Period) []DayBucket {
	n := p.Days()
	buckets := make([]DayBucket, n)
	index := make(map[time.Time]int, n)
	for i := 0; i < n; i++ {
		d := p.Start.AddDate(0, 0, i)
		buckets[i] = DayBucket{Date: d}
		index[d] = i
	}
	for _, r := range records {
		if i, ok := index[period.DateOnly(r.Date)]; ok {
			buckets[i].Amount += r.Amount
		}
	}
	return buckets
}

// BucketByWeekOfPeriod splits a month-granularity period into
// Monday-aligned segments. A record belongs to the segment containing its
// date; records outside the period never count even when their natural
// week straddles the boundary.
func BucketByWeekOfPeriod(records []core.ExpenseDetail, p period.Period) []WeekBucket {
	var buckets []WeekBucket
	start := p.Start
	for idx := 0; !start.After(p.End); idx++ {
		weekEnd := period.ResolveWeekly(start).End
		if weekEnd.After(p.End) {
			weekEnd = p.End
		}
		buckets = append(buckets, WeekBucket{Index: idx, Start: start, End: weekEnd})
		start = weekEnd.AddDate(0, 0, 1)
	}
	for _, r := range records {
		d := period.DateOnly(r.Date)
		if !p.Contains(d) {
			continue
		}
		for i := range buckets {
			if !d.Before(buckets[i].Start) && !d.After(buckets[i].End) {
				buckets[i].Amount += r.Amount
				break
			}
		}
	}
	return buckets
}

// ComputeRuleUsage counts current-period records per rule category,
// household-wide. Remaining may go negative; consumers treat <= 0 as
// "limit reached" and == 1 as a final warning.
func ComputeRuleUsage(records []core.ExpenseDetail, rules []core.RuleDetail) []RuleUsage {
	counts := make(map[uuid.UUID]int)
	for _, r := range records {
		counts[r.CategoryID]++
	}
	out := make([]RuleUsage, 0, len(rules))
	for _, rule := range rules {
		count := counts[rule.CategoryID]
		remaining := rule.MonthlyLimit - count
		clamped := remaining
		if clamped < 0 {
			clamped = 0
		}
		out = append(out, RuleUsage{
			RuleID:           rule.ID,
			CategoryID:       rule.CategoryID,
			CategoryName:     rule.CategoryName,
			CategoryIcon:     rule.CategoryIcon,
			MonthlyLimit:     rule.MonthlyLimit,
			CurrentCount:     count,
			Remaining:        remaining,
			RemainingClamped: clamped,
		})
	}
	return out
}
