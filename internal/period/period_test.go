package period

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveMonthlyResetDay25(t *testing.T) {
	cfg := Config{ResetDay: 25}
	p, err := ResolveMonthly(cfg, date(2024, 3, 10), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !p.Start.Equal(date(2024, 2, 25)) || !p.End.Equal(date(2024, 3, 24)) {
		t.Errorf("got [%s, %s], want [2024-02-25, 2024-03-24]",
			p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
	}
}

func TestResolveMonthlyCalendarMode(t *testing.T) {
	// resetDay=1 degrades to calendar months, leap year included
	cfg := Config{ResetDay: 1}
	p, err := ResolveMonthly(cfg, date(2024, 2, 15), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !p.Start.Equal(date(2024, 2, 1)) || !p.End.Equal(date(2024, 2, 29)) {
		t.Errorf("got [%s, %s], want [2024-02-01, 2024-02-29]",
			p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
	}
}

func TestResolveMonthlyTruncatedFirstPeriod(t *testing.T) {
	cfg := Config{ResetDay: 1, CreatedAt: date(2024, 3, 10)}
	p, err := ResolveMonthly(cfg, date(2024, 3, 15), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !p.Start.Equal(date(2024, 3, 10)) || !p.End.Equal(date(2024, 3, 31)) {
		t.Errorf("got [%s, %s], want [2024-03-10, 2024-03-31]",
			p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
	}
}

func TestResolveMonthlyContainment(t *testing.T) {
	// P1: every valid reset day contains its target date
	targets := []time.Time{
		date(2024, 1, 1), date(2024, 2, 29), date(2024, 3, 10),
		date(2024, 6, 30), date(2024, 12, 31), date(2025, 1, 15),
	}
	for resetDay := 1; resetDay <= 28; resetDay++ {
		cfg := Config{ResetDay: resetDay}
		for _, target := range targets {
			p, err := ResolveMonthly(cfg, target, nil)
			if err != nil {
				t.Fatalf("resetDay=%d target=%s: %v", resetDay, target.Format(time.DateOnly), err)
			}
			if !p.Contains(target) {
				t.Errorf("resetDay=%d: period [%s, %s] does not contain %s",
					resetDay, p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly),
					target.Format(time.DateOnly))
			}
		}
	}
}

func TestResolveMonthlyNoGapsNoOverlaps(t *testing.T) {
	// P2: walking a year day by day, consecutive periods tile the calendar
	for _, resetDay := range []int{1, 15, 25, 28} {
		cfg := Config{ResetDay: resetDay}
		prev, err := ResolveMonthly(cfg, date(2024, 1, 10), nil)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		for i := 0; i < 12; i++ {
			next, err := ResolveMonthly(cfg, prev.End.AddDate(0, 0, 1), nil)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if !next.Start.Equal(prev.End.AddDate(0, 0, 1)) {
				t.Fatalf("resetDay=%d: gap/overlap between end %s and next start %s",
					resetDay, prev.End.Format(time.DateOnly), next.Start.Format(time.DateOnly))
			}
			prev = next
		}
	}
}

func TestResolveMonthlyNoGapsNoOverlapsWithHolidayShift(t *testing.T) {
	// the tiling guarantee must survive holiday/weekend back-shifts: these
	// reset days land on national holidays in 2024 (2/11 建国記念の日,
	// 2/23 天皇誕生日, 11/3 文化の日 which is also a Sunday) plus weekends
	cal := JapaneseHolidays{}
	for _, resetDay := range []int{1, 3, 11, 23} {
		cfg := Config{ResetDay: resetDay, SkipHolidays: true}
		prev, err := ResolveMonthly(cfg, date(2024, 1, 10), cal)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		for i := 0; i < 12; i++ {
			next, err := ResolveMonthly(cfg, prev.End.AddDate(0, 0, 1), cal)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if !next.Start.Equal(prev.End.AddDate(0, 0, 1)) {
				t.Fatalf("resetDay=%d: gap/overlap between end %s and next start %s",
					resetDay, prev.End.Format(time.DateOnly), next.Start.Format(time.DateOnly))
			}
			prev = next
		}
	}
}

func TestResolveMonthlyWeekendShift(t *testing.T) {
	// 2024-09-01 is a Sunday; with skip enabled the cycle starts on the
	// preceding Friday, and that early-started cycle must contain its own
	// shifted start date.
	cfg := Config{ResetDay: 1, SkipHolidays: true}
	p, err := ResolveMonthly(cfg, date(2024, 9, 15), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !p.Start.Equal(date(2024, 8, 30)) {
		t.Errorf("start = %s, want 2024-08-30 (Friday before Sunday the 1st)",
			p.Start.Format(time.DateOnly))
	}
	if !p.End.Equal(date(2024, 9, 30)) {
		t.Errorf("end = %s, want 2024-09-30", p.End.Format(time.DateOnly))
	}

	// a target inside the shifted head of the cycle resolves to the same period
	again, err := ResolveMonthly(cfg, date(2024, 8, 30), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !again.Start.Equal(p.Start) || !again.End.Equal(p.End) {
		t.Errorf("shifted-head target resolved to [%s, %s], want [%s, %s]",
			again.Start.Format(time.DateOnly), again.End.Format(time.DateOnly),
			p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
	}
}

func TestResolveMonthlyHolidayShift(t *testing.T) {
	// 2024-11-23 is both a Saturday and 勤労感謝の日; the anchor lands on
	// Friday the 22nd.
	cfg := Config{ResetDay: 23, SkipHolidays: true}
	p, err := ResolveMonthly(cfg, date(2024, 12, 1), JapaneseHolidays{})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !p.Start.Equal(date(2024, 11, 22)) {
		t.Errorf("start = %s, want 2024-11-22", p.Start.Format(time.DateOnly))
	}
	if !p.End.Equal(date(2024, 12, 22)) {
		t.Errorf("end = %s, want 2024-12-22", p.End.Format(time.DateOnly))
	}
}

func TestResolveMonthlyInvalidResetDay(t *testing.T) {
	for _, day := range []int{0, 29, 31, -3} {
		_, err := ResolveMonthly(Config{ResetDay: day}, date(2024, 3, 10), nil)
		if !errors.Is(err, ErrResetDayOutOfRange) {
			t.Errorf("resetDay=%d: got %v, want ErrResetDayOutOfRange", day, err)
		}
	}
}

func TestResolvePreviousMonthly(t *testing.T) {
	cfg := Config{ResetDay: 25}
	cur, err := ResolveMonthly(cfg, date(2024, 3, 10), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	prev, ok, err := ResolvePreviousMonthly(cfg, cur, nil)
	if err != nil || !ok {
		t.Fatalf("previous: ok=%v err=%v", ok, err)
	}
	if !prev.Start.Equal(date(2024, 1, 25)) || !prev.End.Equal(date(2024, 2, 24)) {
		t.Errorf("got [%s, %s], want [2024-01-25, 2024-02-24]",
			prev.Start.Format(time.DateOnly), prev.End.Format(time.DateOnly))
	}
	if prev.Kind != KindPrevious {
		t.Errorf("kind = %q, want %q", prev.Kind, KindPrevious)
	}
}

func TestResolvePreviousMonthlyAbsentForFirstCycle(t *testing.T) {
	// P3 corollary: a household created mid-cycle has no previous period
	cfg := Config{ResetDay: 1, CreatedAt: date(2024, 3, 10)}
	cur, err := ResolveMonthly(cfg, date(2024, 3, 15), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	_, ok, err := ResolvePreviousMonthly(cfg, cur, nil)
	if err != nil {
		t.Fatalf("previous: %v", err)
	}
	if ok {
		t.Error("expected no previous period for a household's first cycle")
	}
}

func TestResolveWeekly(t *testing.T) {
	// 2024-03-10 is a Sunday
	p := ResolveWeekly(date(2024, 3, 10))
	if !p.Start.Equal(date(2024, 3, 4)) || !p.End.Equal(date(2024, 3, 10)) {
		t.Errorf("got [%s, %s], want [2024-03-04, 2024-03-10]",
			p.Start.Format(time.DateOnly), p.End.Format(time.DateOnly))
	}
	// a Monday starts its own week
	p = ResolveWeekly(date(2024, 3, 4))
	if !p.Start.Equal(date(2024, 3, 4)) {
		t.Errorf("Monday start = %s, want 2024-03-04", p.Start.Format(time.DateOnly))
	}
	if p.Days() != 7 {
		t.Errorf("week has %d days, want 7", p.Days())
	}
}

func TestResolvePreviousWeekly(t *testing.T) {
	cur := ResolveWeekly(date(2024, 3, 10))
	prev := ResolvePreviousWeekly(cur)
	if !prev.Start.Equal(date(2024, 2, 26)) || !prev.End.Equal(date(2024, 3, 3)) {
		t.Errorf("got [%s, %s], want [2024-02-26, 2024-03-03]",
			prev.Start.Format(time.DateOnly), prev.End.Format(time.DateOnly))
	}
}

func TestResolveYearlyBuckets(t *testing.T) {
	cfg := Config{ResetDay: 25}
	buckets, err := ResolveYearlyBuckets(cfg, 2024, nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !buckets[0].Start.Equal(date(2023, 12, 25)) || !buckets[0].End.Equal(date(2024, 1, 24)) {
		t.Errorf("bucket 0 = [%s, %s], want [2023-12-25, 2024-01-24]",
			buckets[0].Start.Format(time.DateOnly), buckets[0].End.Format(time.DateOnly))
	}
	for i := 1; i < 12; i++ {
		if !buckets[i].Start.Equal(buckets[i-1].End.AddDate(0, 0, 1)) {
			t.Errorf("bucket %d not contiguous with bucket %d", i, i-1)
		}
	}
}

func TestJapaneseHolidays(t *testing.T) {
	cal := JapaneseHolidays{}
	if !cal.IsHoliday(date(2024, 11, 23)) {
		t.Error("2024-11-23 should be a holiday")
	}
	if !cal.IsHoliday(date(2025, 1, 1)) {
		t.Error("2025-01-01 should be a holiday")
	}
	if cal.IsHoliday(date(2024, 11, 22)) {
		t.Error("2024-11-22 should not be a holiday")
	}
}
