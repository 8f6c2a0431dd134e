package registry

import "time"

// DefaultServiceIntervalMonths is the gap between services.
const DefaultServiceIntervalMonths = 3

// AddMonthsClamped adds n calendar months to d. When the target month is
// shorter than d's day-of-month the result is that month's last day
// (31 Jan + 3 months = 30 Apr), never a roll into the following month.
func AddMonthsClamped(d Date, n int) Date {
	if d.IsZero() {
		return Date{}
	}
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := EndOfMonth(first.Year(), first.Month())
	if d.Day() > last.Day() {
		return last
	}
	return NewDate(first.Year(), first.Month(), d.Day())
}

// NextServiceDate is lastService plus the service interval. The zero Date
// in gives the zero Date out.
func NextServiceDate(lastService Date, intervalMonths int) Date {
	if intervalMonths <= 0 {
		intervalMonths = DefaultServiceIntervalMonths
	}
	return AddMonthsClamped(lastService, intervalMonths)
}
