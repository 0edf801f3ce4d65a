package util

import (
    "fmt"
    "strconv"
    "time"
)

// DateLayout is the calendar date form accepted on every textual boundary.
const DateLayout = "2006-01-02"

// ParseTime tries YYYY-MM-DD, RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(DateLayout, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0).UTC(), true
    }
    return time.Time{}, false
}

// ParseDate parses a YYYY-MM-DD (or any ParseTime form) into a UTC day.
func ParseDate(s string) (time.Time, error) {
    t, ok := ParseTime(s)
    if !ok {
        return time.Time{}, fmt.Errorf("invalid date %q, want %s", s, DateLayout)
    }
    return Day(t), nil
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddDays shifts a day by n calendar days.
func AddDays(day time.Time, n int) time.Time {
    return Day(day).AddDate(0, 0, n)
}

// DaysBetween returns the whole calendar days from a to b (negative if b is before a).
func DaysBetween(a, b time.Time) int {
    return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// FormatDate renders t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
    return t.UTC().Format(DateLayout)
}
