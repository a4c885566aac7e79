package domain

import (
	"strings"
	"time"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod defaults an empty value to PeriodMonth.
func ParsePeriod(raw string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(raw))); p {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodYear:
		return p, nil
	case "":
		return PeriodMonth, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Start returns the inclusive start of the period containing now, in now's
// location: start of today, the most recent Sunday, the first of the month,
// or January 1st.
func (p Period) Start(now time.Time) (time.Time, error) {
	y, m, d := now.Date()
	loc := now.Location()
	switch p {
	case PeriodDay:
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	case PeriodWeek:
		return time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc), nil
	case PeriodMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), nil
	case PeriodYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc), nil
	default:
		return time.Time{}, ErrInvalidPeriod
	}
}
