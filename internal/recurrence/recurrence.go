// Package recurrence implements the pure date arithmetic behind bill
// scheduling: advancing a due date by a bill's frequency and filtering
// bills against a forward-looking view window. No I/O, no state.
package recurrence

import (
	"fmt"
	"time"

	"billdue-backend-go/internal/models"
)

// Advance computes the next due date after d for the given frequency.
// one_time is terminal and returns d unchanged. Month-based frequencies
// add calendar months preserving the day-of-month where it exists and
// clamping to the last day of the target month otherwise (Jan 31 plus
// one month is Feb 28). Unknown frequencies are rejected at the bill
// construction boundary and never reach this function; they fall
// through unchanged rather than panic.
func Advance(d time.Time, f models.Frequency) time.Time {
	switch f {
	case models.FrequencyOneTime:
		return d
	case models.FrequencyDaily:
		return d.AddDate(0, 0, 1)
	case models.FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	case models.FrequencyBiweekly:
		return d.AddDate(0, 0, 14)
	case models.FrequencyEvery3Weeks:
		return d.AddDate(0, 0, 21)
	case models.FrequencyEvery4Weeks:
		return d.AddDate(0, 0, 28)
	case models.FrequencyEvery5Weeks:
		return d.AddDate(0, 0, 35)
	case models.FrequencyEvery6Weeks:
		return d.AddDate(0, 0, 42)
	case models.FrequencyMonthly:
		return addMonths(d, 1)
	case models.FrequencyEvery3Months:
		return addMonths(d, 3)
	case models.FrequencyEvery4Months:
		return addMonths(d, 4)
	case models.FrequencyEvery5Months:
		return addMonths(d, 5)
	case models.FrequencyEvery6Months:
		return addMonths(d, 6)
	case models.FrequencyAnnually:
		return addMonths(d, 12)
	}
	return d
}

// addMonths shifts d by n calendar months, clamping the day-of-month to
// the length of the target month. time.AddDate alone would normalize
// Jan 31 + 1 month into Mar 2/3, which is not what a monthly bill means.
func addMonths(d time.Time, n int) time.Time {
	year, month, day := d.Date()
	firstOfTarget := time.Date(year, month, 1, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location()).AddDate(0, n, 0)
	if last := daysIn(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, d.Hour(), d.Minute(), d.Second(), d.Nanosecond(), d.Location())
}

// daysIn returns the number of days in the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// View selects how far ahead the bill list looks.
type View string

const (
	ViewWeek      View = "week"
	ViewFortnight View = "fortnight"
	ViewMonth     View = "month"
	ViewYear      View = "year"
	ViewAll       View = "all"
)

// ParseView validates a raw view string.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewWeek, ViewFortnight, ViewMonth, ViewYear, ViewAll:
		return v, nil
	}
	return "", fmt.Errorf("invalid view %q", s)
}

// FilterByWindow keeps the bills whose next due date falls on or before
// the view's cutoff. The comparison is at calendar-day precision, not
// strict time: a bill due earlier today is never excluded by a
// forward-looking window, and a bill due any time on the cutoff day is
// included.
func FilterByWindow(bills []models.Bill, view View, now time.Time) []models.Bill {
	if view == ViewAll {
		return bills
	}
	cutoff := windowCutoff(view, now)
	out := make([]models.Bill, 0, len(bills))
	for _, b := range bills {
		if !dayAfter(b.NextDueDate, cutoff) {
			out = append(out, b)
		}
	}
	return out
}

func windowCutoff(view View, now time.Time) time.Time {
	switch view {
	case ViewWeek:
		return now.AddDate(0, 0, 7)
	case ViewFortnight:
		return now.AddDate(0, 0, 14)
	case ViewMonth:
		return addMonths(now, 1)
	case ViewYear:
		return addMonths(now, 12)
	}
	return now
}

// dayAfter reports whether a falls on a later calendar day than b,
// ignoring the time of day on both sides.
func dayAfter(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
