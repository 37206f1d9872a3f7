package game

import (
	"fmt"
	"time"
)

const (
	// DayLayout is the canonical day key format.
	DayLayout = "2006-01-02"

	// MonthLayout is the canonical month key format.
	MonthLayout = "2006-01"
)

// DayKey formats t as a day key using t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// MonthKey formats t as a month key using t's own location.
func MonthKey(t time.Time) string {
	return t.Format(MonthLayout)
}

// ParseDay parses a zero-padded YYYY-MM-DD day key.
func ParseDay(day string) (time.Time, error) {
	t, err := time.Parse(DayLayout, day)
	if err != nil || t.Format(DayLayout) != day {
		return time.Time{}, fmt.Errorf("invalid day key %q", day)
	}
	return t, nil
}

// ParseMonth parses a zero-padded YYYY-MM month key.
func ParseMonth(month string) (time.Time, error) {
	t, err := time.Parse(MonthLayout, month)
	if err != nil || t.Format(MonthLayout) != month {
		return time.Time{}, fmt.Errorf("invalid month key %q", month)
	}
	return t, nil
}

// MonthOf returns the month key prefix of a day key.
func MonthOf(day string) string {
	if len(day) < len(MonthLayout) {
		return ""
	}
	return day[:len(MonthLayout)]
}

// MonthRange returns the half-open day range [YYYY-MM-01, next-month-01).
func MonthRange(month string) (start, end string, err error) {
	t, err := ParseMonth(month)
	if err != nil {
		return "", "", err
	}
	return DayKey(t), DayKey(t.AddDate(0, 1, 0)), nil
}

// DaysInMonth lists every day key of the month in order.
func DaysInMonth(month string) ([]string, error) {
	t, err := ParseMonth(month)
	if err != nil {
		return nil, err
	}
	days := make([]string, 0, 31)
	for d := t; d.Month() == t.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, DayKey(d))
	}
	return days, nil
}
