package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseDate(t *testing.T) {
    got, err := ParseDate("2020-01-06")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !got.Equal(time.Date(2020, 1, 6, 0, 0, 0, 0, time.UTC)) {
        t.Fatalf("unexpected day %v", got)
    }
    if _, err := ParseDate("06/01/2020"); err == nil {
        t.Fatalf("expected error for non-ISO date")
    }
}

func TestDayTruncates(t *testing.T) {
    in := time.Date(2020, 3, 1, 23, 59, 0, 0, time.UTC)
    if got := Day(in); !got.Equal(time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)) {
        t.Fatalf("unexpected day %v", got)
    }
}

func TestDaysBetweenCrossesLeapDay(t *testing.T) {
    a := time.Date(2020, 2, 27, 0, 0, 0, 0, time.UTC)
    b := time.Date(2020, 3, 2, 0, 0, 0, 0, time.UTC)
    if n := DaysBetween(a, b); n != 4 {
        t.Fatalf("expected 4 days, got %d", n)
    }
    if n := DaysBetween(b, a); n != -4 {
        t.Fatalf("expected -4 days, got %d", n)
    }
    if got := AddDays(a, 4); !got.Equal(b) {
        t.Fatalf("expected %v, got %v", b, got)
    }
}
