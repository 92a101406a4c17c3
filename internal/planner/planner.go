// Package planner derives the set of notification instances a bill
// should have pending right now. It is a pure function of the bill and
// the current time; the schedule supervisor owns turning plans into
// gateway calls.
package planner

import (
	"fmt"
	"time"

	"billdue-backend-go/internal/models"
)

const (
	// maxRecurringReminders caps the notify-until-paid reminders at one
	// day's worth of 2-hour slots.
	maxRecurringReminders = 12
	reminderInterval      = 2 * time.Hour
	// catchUpLead keeps catch-up instances slightly in the future so
	// platforms that reject past-dated schedules accept them.
	catchUpLead = 5 * time.Second
	idSpace     = 1_000_000
)

// StableID derives the notification identifier for a bill and suffix.
// Suffix 0 is the main/catch-up instance, 1..12 the recurring
// reminders. The derivation is deterministic so a later cancel targets
// exactly the ids an earlier plan created. It is a lossy checksum: two
// bills can collide in principle, which is accepted — UUID bill ids
// spread the sums widely enough in practice. A persisted per-bill
// counter would be the wider replacement if collisions ever matter.
func StableID(billID string, suffix int) int {
	sum := 0
	for _, r := range billID {
		sum += int(r)
	}
	return sum%idSpace + suffix
}

// paidConfirmationSuffix sits just past the reminder range so a pending
// confirmation is never replaced or cancelled by the next replan of the
// same (now rolled-forward) bill.
const paidConfirmationSuffix = maxRecurringReminders + 1

// InstanceIDs returns every identifier BuildPlan can emit for a bill.
// The supervisor cancels this full set before scheduling a fresh plan.
func InstanceIDs(billID string) []int {
	ids := make([]int, 0, maxRecurringReminders+1)
	for suffix := 0; suffix <= maxRecurringReminders; suffix++ {
		ids = append(ids, StableID(billID, suffix))
	}
	return ids
}

// BuildPlan computes the ordered notification instances that should
// exist for bill at time now. Paid bills plan nothing. The first
// instance is either the main notification at the bill's due target or,
// when that target has passed, a catch-up fired almost immediately.
// Bills with NotifyUntilPaid additionally get up to 12 reminders at
// two-hour intervals over the next day.
func BuildPlan(bill models.Bill, now time.Time) []models.NotificationInstance {
	if bill.IsPaid {
		return nil
	}

	var out []models.NotificationInstance
	target := dueTarget(bill)
	if target.After(now) {
		out = append(out, models.NewMainInstance(
			StableID(bill.ID, 0), bill.ID, target,
			fmt.Sprintf("%s is due", bill.Name),
			fmt.Sprintf("%s (%s) is due today.", bill.Name, bill.Amount.StringFixed(2)),
		))
	} else {
		overdue := target.Before(startOfDay(now))
		title := fmt.Sprintf("%s is due today", bill.Name)
		body := fmt.Sprintf("%s (%s) is due today and has not been paid yet.", bill.Name, bill.Amount.StringFixed(2))
		if overdue {
			title = fmt.Sprintf("%s is overdue", bill.Name)
			body = fmt.Sprintf("%s (%s) was due on %s.", bill.Name, bill.Amount.StringFixed(2), target.Format("Jan 2"))
		}
		out = append(out, models.NewCatchUpInstance(
			StableID(bill.ID, 0), bill.ID, now.Add(catchUpLead), title, body,
		))
	}

	if bill.NotifyUntilPaid {
		for k := 1; k <= maxRecurringReminders; k++ {
			at := now.Add(time.Duration(k) * reminderInterval)
			if !at.After(now) {
				continue
			}
			out = append(out, models.NewRecurringReminderInstance(
				StableID(bill.ID, k), bill.ID, at, k,
				fmt.Sprintf("Reminder: %s is unpaid", bill.Name),
				fmt.Sprintf("%s (%s) is still waiting to be paid.", bill.Name, bill.Amount.StringFixed(2)),
			))
		}
	}
	return out
}

// PaidConfirmation builds the one-off confirmation the markPaid path
// schedules directly; it is not part of the periodic replan.
func PaidConfirmation(bill models.Bill, now time.Time) models.NotificationInstance {
	body := fmt.Sprintf("%s is marked as paid.", bill.Name)
	if !bill.Frequency.IsOneTime() {
		body = fmt.Sprintf("%s is marked as paid. Next due %s.", bill.Name, bill.NextDueDate.Format("Jan 2, 2006"))
	}
	return models.NewPaidConfirmationInstance(
		StableID(bill.ID, paidConfirmationSuffix), bill.ID, now.Add(catchUpLead),
		fmt.Sprintf("%s paid", bill.Name), body,
	)
}

// dueTarget combines the due date's calendar day with the bill's
// wall-clock notification time. The bill passed validation, so a parse
// failure here can only mean a corrupted record; fall back to the due
// date's own clock time rather than dropping the notification.
func dueTarget(bill models.Bill) time.Time {
	hour, minute, err := models.ParseTimeOfDay(bill.NotificationTime)
	if err != nil {
		return bill.NextDueDate
	}
	y, m, d := bill.NextDueDate.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, bill.NextDueDate.Location())
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
