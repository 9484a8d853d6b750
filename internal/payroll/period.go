package payroll

import (
	"fmt"
	"time"

	payrollDatamodel "github.com/frahmantamala/payroll-engine/internal/core/datamodel/payroll"
)

// Step advances t by one pay period.
func Step(freq payrollDatamodel.Frequency, t time.Time) time.Time {
	switch freq {
	case payrollDatamodel.FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case payrollDatamodel.FrequencyBiWeekly:
		return t.AddDate(0, 0, 14)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Periods returns the pay periods for one scheduling call. The first period
// is always the caller's bounds. Recurring schedules then add calendar
// aligned periods until the end of the start date's year. When the caller's
// period ends off a boundary, a short period runs from the day after it to
// the next boundary, so no day goes unpaid.
func Periods(freq payrollDatamodel.Frequency, start, end time.Time, recurring bool) []payrollDatamodel.Period {
	periods := []payrollDatamodel.Period{{StartDate: start, EndDate: end}}
	if !recurring {
		return periods
	}

	year := start.Year()
	next := dateOf(end).AddDate(0, 0, 1)
	cursor := alignedStart(freq, next)
	if cursor.Before(next) {
		if next.Year() == year {
			periods = append(periods, payrollDatamodel.Period{
				StartDate: next,
				EndDate:   alignedEnd(freq, cursor),
			})
		}
		cursor = Step(freq, cursor)
	}

	for cursor.Year() == year {
		periods = append(periods, payrollDatamodel.Period{
			StartDate: cursor,
			EndDate:   alignedEnd(freq, cursor),
		})
		cursor = Step(freq, cursor)
	}
	return periods
}

// PeriodLabel names a generated batch after its period.
func PeriodLabel(freq payrollDatamodel.Frequency, p payrollDatamodel.Period) string {
	if freq == payrollDatamodel.FrequencyMonthly {
		return p.StartDate.Format("January 2006")
	}
	return fmt.Sprintf("%s to %s", p.StartDate.Format("2006-01-02"), p.EndDate.Format("2006-01-02"))
}

func alignedStart(freq payrollDatamodel.Frequency, t time.Time) time.Time {
	d := dateOf(t)
	if freq == payrollDatamodel.FrequencyMonthly {
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
	}
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func alignedEnd(freq payrollDatamodel.Frequency, start time.Time) time.Time {
	return Step(freq, start).AddDate(0, 0, -1)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
