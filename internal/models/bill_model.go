package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTimeOfDay is returned when a notification time is not a
// well-formed "HH:MM" wall-clock string.
var ErrInvalidTimeOfDay = errors.New("invalid notification time, expected HH:MM")

// Bill represents a tracked recurring or one-time financial obligation.
// The invariant maintained by the bill store is that NextDueDate always
// points at the next unresolved occurrence: paying a recurring bill
// advances it and resets IsPaid, while a paid one-time bill is terminal.
type Bill struct {
	ID               string          `json:"id" firestore:"-"` // Document ID in cloud mode, UUID in local mode
	Name             string          `json:"name"`
	Amount           decimal.Decimal `json:"amount"` // In the owner's base currency
	Frequency        Frequency       `json:"frequency"`
	NextDueDate      time.Time       `json:"nextDueDate"`
	NotificationTime string          `json:"notificationTime"` // "HH:MM" local wall clock
	Note             string          `json:"note,omitempty"`
	AutoMarkPaid     bool            `json:"autoMarkPaid"`
	NotifyUntilPaid  bool            `json:"notifyUntilPaid"`
	IsPaid           bool            `json:"isPaid"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// Validate rejects malformed bills at the construction boundary, before
// they can reach the recurrence engine or the planner.
func (b *Bill) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return errors.New("bill name must not be empty")
	}
	if b.Amount.IsNegative() {
		return errors.New("bill amount must not be negative")
	}
	if !b.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, string(b.Frequency))
	}
	if b.NextDueDate.IsZero() {
		return errors.New("bill due date must be set")
	}
	if _, _, err := ParseTimeOfDay(b.NotificationTime); err != nil {
		return err
	}
	return nil
}

// ParseTimeOfDay parses an "HH:MM" wall-clock string into its hour and
// minute components.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return hour, minute, nil
}
