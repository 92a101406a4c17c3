package models

import (
	"errors"
	"fmt"
)

// Frequency enumerates how often a bill recurs.
type Frequency string

const (
	FrequencyOneTime      Frequency = "one_time"
	FrequencyDaily        Frequency = "daily"
	FrequencyWeekly       Frequency = "weekly"
	FrequencyBiweekly     Frequency = "biweekly"
	FrequencyEvery3Weeks  Frequency = "every_3_weeks"
	FrequencyEvery4Weeks  Frequency = "every_4_weeks"
	FrequencyEvery5Weeks  Frequency = "every_5_weeks"
	FrequencyEvery6Weeks  Frequency = "every_6_weeks"
	FrequencyMonthly      Frequency = "monthly"
	FrequencyEvery3Months Frequency = "every_3_months"
	FrequencyEvery4Months Frequency = "every_4_months"
	FrequencyEvery5Months Frequency = "every_5_months"
	FrequencyEvery6Months Frequency = "every_6_months"
	FrequencyAnnually     Frequency = "annually"
)

// ErrInvalidFrequency is returned when an unknown frequency value reaches
// the bill construction boundary. Downstream components (recurrence,
// planner) assume they only ever see valid frequencies.
var ErrInvalidFrequency = errors.New("invalid frequency")

// allFrequencies is the closed set of accepted values.
var allFrequencies = map[Frequency]bool{
	FrequencyOneTime:      true,
	FrequencyDaily:        true,
	FrequencyWeekly:       true,
	FrequencyBiweekly:     true,
	FrequencyEvery3Weeks:  true,
	FrequencyEvery4Weeks:  true,
	FrequencyEvery5Weeks:  true,
	FrequencyEvery6Weeks:  true,
	FrequencyMonthly:      true,
	FrequencyEvery3Months: true,
	FrequencyEvery4Months: true,
	FrequencyEvery5Months: true,
	FrequencyEvery6Months: true,
	FrequencyAnnually:     true,
}

// ParseFrequency validates a raw frequency string.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

// Valid reports whether f is one of the accepted frequency values.
func (f Frequency) Valid() bool {
	return allFrequencies[f]
}

// IsOneTime reports whether f describes a terminal, non-recurring bill.
func (f Frequency) IsOneTime() bool {
	return f == FrequencyOneTime
}

func (f Frequency) String() string {
	return string(f)
}
