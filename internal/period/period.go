// Package period resolves billing periods for a household.
//
// A household's "month" is the reset cycle anchored at ResetDay, not the
// calendar month: the period starting on the cycle anchor runs until the day
// before the next cycle's anchor. Weeks are fixed Monday–Sunday spans and
// ignore the reset day. All functions are pure; callers pass the reference
// date explicitly so one request sees exactly one notion of "today".
package period

import (
	"errors"
	"fmt"
	"time"
)

const (
	Week  Granularity = "week"
	Month Granularity = "month"
)

const (
	KindCurrent  Kind = "current"
	KindPrevious Kind = "previous"
	KindTarget   Kind = "target"
)

type (
	Granularity string
	Kind        string

	// Config is a household's cycle configuration, read fresh per request.
	Config struct {
		ResetDay     int
		SkipHolidays bool
		// CreatedAt clamps period starts: a period never extends before
		// the household existed. Zero means no clamp.
		CreatedAt time.Time
	}

	// Period is a closed date interval. Start and End are UTC midnights,
	// both inclusive.
	Period struct {
		Start       time.Time
		End         time.Time
		Granularity Granularity
		Kind        Kind
	}
)

// ErrResetDayOutOfRange is a configuration error: a reset day outside
// [1,28] is rejected, never silently clamped.
var ErrResetDayOutOfRange = errors.New("reset day out of range [1,28]")

func (c Config) validate() error {
	if c.ResetDay < 1 || c.ResetDay > 28 {
		return fmt.Errorf("%w: %d", ErrResetDayOutOfRange, c.ResetDay)
	}
	return nil
}

// Days returns the number of calendar days in the period.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24) + 1
}

// Contains reports whether the calendar date d falls inside the period.
func (p Period) Contains(d time.Time) bool {
	d = DateOnly(d)
	return !d.Before(p.Start) && !d.After(p.End)
}

// DateOnly truncates t to a UTC midnight, the canonical date representation
// used everywhere in this package.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// anchor returns the nominal cycle start in the month containing ref:
// the date whose day-of-month equals resetDay, clamped to the month's last
// day. The clamp is unreachable for resetDay <= 28 but keeps the function
// total.
func anchor(year int, month time.Month, resetDay int) time.Time {
	lastDay := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	day := resetDay
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// shiftedAnchor applies the holiday policy: with SkipHolidays set, a cycle
// start landing on a weekend or public holiday moves back to the preceding
// business day. A nil calendar means weekend-only shifting.
func shiftedAnchor(cfg Config, cal HolidayCalendar, year int, month time.Month) time.Time {
	a := anchor(year, month, cfg.ResetDay)
	if !cfg.SkipHolidays {
		return a
	}
	for isNonBusinessDay(a, cal) {
		a = a.AddDate(0, 0, -1)
	}
	return a
}

func isNonBusinessDay(d time.Time, cal HolidayCalendar) bool {
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return true
	}
	return cal != nil && cal.IsHoliday(d)
}

// ResolveMonthly finds the reset-cycle period containing target. The start
// is clamped to the household's creation date, so the first period of a
// household created mid-cycle is truncated.
func ResolveMonthly(cfg Config, target time.Time, cal HolidayCalendar) (Period, error) {
	p, err := resolveMonthlyRaw(cfg, target, cal)
	if err != nil {
		return Period{}, err
	}
	return clampToCreation(cfg, p), nil
}

// resolveMonthlyRaw resolves the cycle without the creation clamp. Cycle
// anchors are strictly increasing month over month, so scanning backward
// from the month after the target finds the containing cycle in at most a
// few steps (holiday shifts move an anchor by only a few days).
func resolveMonthlyRaw(cfg Config, target time.Time, cal HolidayCalendar) (Period, error) {
	if err := cfg.validate(); err != nil {
		return Period{}, err
	}
	t := DateOnly(target)
	cursor := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	for {
		start := shiftedAnchor(cfg, cal, cursor.Year(), cursor.Month())
		if !start.After(t) {
			next := cursor.AddDate(0, 1, 0)
			end := shiftedAnchor(cfg, cal, next.Year(), next.Month()).AddDate(0, 0, -1)
			return Period{Start: start, End: end, Granularity: Month, Kind: KindCurrent}, nil
		}
		cursor = cursor.AddDate(0, -1, 0)
	}
}

func clampToCreation(cfg Config, p Period) Period {
	if cfg.CreatedAt.IsZero() {
		return p
	}
	created := DateOnly(cfg.CreatedAt)
	if created.After(p.Start) && !created.After(p.End) {
		p.Start = created
	}
	return p
}

// ResolvePreviousMonthly resolves the cycle immediately before current.
// The second return value is false when no previous period exists, i.e.
// the household was created inside the current cycle.
func ResolvePreviousMonthly(cfg Config, current Period, cal HolidayCalendar) (Period, bool, error) {
	target := current.Start.AddDate(0, 0, -1)
	if !cfg.CreatedAt.IsZero() && target.Before(DateOnly(cfg.CreatedAt)) {
		return Period{}, false, nil
	}
	p, err := ResolveMonthly(cfg, target, cal)
	if err != nil {
		return Period{}, false, err
	}
	p.Kind = KindPrevious
	return p, true, nil
}

// ResolveWeekly returns the Monday–Sunday week containing target.
func ResolveWeekly(target time.Time) Period {
	t := DateOnly(target)
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	start := t.AddDate(0, 0, -offset)
	return Period{
		Start:       start,
		End:         start.AddDate(0, 0, 6),
		Granularity: Week,
		Kind:        KindCurrent,
	}
}

// ResolvePreviousWeekly returns the 7 days immediately preceding current.
func ResolvePreviousWeekly(current Period) Period {
	return Period{
		Start:       current.Start.AddDate(0, 0, -7),
		End:         current.Start.AddDate(0, 0, -1),
		Granularity: Week,
		Kind:        KindPrevious,
	}
}

// ResolveYearlyBuckets returns the 12 reset-cycle periods used to bucket a
// calendar year's expenses. Each bucket is the cycle containing the 15th of
// its month; the fixed interior anchor avoids ambiguity at cycle
// boundaries. Buckets are not clamped to the creation date: they are pure
// cycle alignment, and dates before the household existed simply match no
// expenses.
func ResolveYearlyBuckets(cfg Config, year int, cal HolidayCalendar) ([12]Period, error) {
	var buckets [12]Period
	for m := 0; m < 12; m++ {
		mid := time.Date(year, time.Month(m+1), 15, 0, 0, 0, 0, time.UTC)
		p, err := resolveMonthlyRaw(cfg, mid, cal)
		if err != nil {
			return buckets, err
		}
		p.Kind = KindTarget
		buckets[m] = p
	}
	return buckets, nil
}
