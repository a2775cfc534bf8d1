package chainbean

import (
	"strconv"
	"time"
)

// DateFormat is the format used to represent dates as strings in ISO-8601 form.
const DateFormat = "2006-01-02"

// coinDateFormat is the day-month-year format expected by the price service.
const coinDateFormat = "02-01-2006"

// Date represents a date with day-level granularity, in UTC.
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate returns a normalized Date for the given year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// DateOfUnix returns the Date of a unix timestamp in seconds.
func DateOfUnix(sec int64) Date {
	return NewDate(time.Unix(sec, 0).UTC().Date())
}

// time returns a time.Time that is a canonical representation of that day (at midnight UTC).
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// String format the date in ISO-8601.
func (d Date) String() string { return d.time().Format(DateFormat) }

// Format returns a textual representation of the date value formatted
// according to the layout defined by the argument. See [time.Format].
func (d Date) Format(layout string) string { return d.time().Format(layout) }

// CoinDate formats the date the way the price service expects it (day-month-year).
func (d Date) CoinDate() string { return d.Format(coinDateFormat) }

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date { return NewDate(d.y, d.m, d.d+n) }

// IsZero returns true if the date is the zero value.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// parseUnix reads a unix timestamp in seconds as delivered by the explorer
// (a decimal string). Malformed values read as 0.
func parseUnix(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
