package utils

import "time"

// FirstOfMonth returns midnight on the first day of t's month, in t's location.
func FirstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// AddMonths shifts a first-of-month marker by n months.
func AddMonths(firstOfMonth time.Time, n int) time.Time {
	return FirstOfMonth(firstOfMonth).AddDate(0, n, 0)
}

// DaysInMonth returns the number of days in t's month.
func DaysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// FormatMonth renders a month for humans, e.g. "October 2026".
func FormatMonth(t time.Time) string {
	return t.Format("January 2006")
}

