package period

import "time"

// HolidayCalendar reports public holidays for the skip-holidays shift.
// Weekends are always handled by the resolver itself.
type HolidayCalendar interface {
	IsHoliday(d time.Time) bool
}

// JapaneseHolidays is a fixed-date national holiday table. Movable
// holidays (Coming of Age Day, Marine Day, Sports Day, the equinoxes and
// substitute holidays) are not covered; weekend shifting is the confirmed
// floor behavior and the full calendar remains a product question.
type JapaneseHolidays struct{}

var fixedHolidays = map[[2]int]string{
	{1, 1}:   "元日",
	{2, 11}:  "建国記念の日",
	{2, 23}:  "天皇誕生日",
	{4, 29}:  "昭和の日",
	{5, 3}:   "憲法記念日",
	{5, 4}:   "みどりの日",
	{5, 5}:   "こどもの日",
	{8, 11}:  "山の日",
	{11, 3}:  "文化の日",
	{11, 23}: "勤労感謝の日",
}

func (JapaneseHolidays) IsHoliday(d time.Time) bool {
	_, ok := fixedHolidays[[2]int{int(d.Month()), d.Day()}]
	return ok
}
