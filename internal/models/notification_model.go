package models

import "time"

// NotificationKind tags the variant of a notification instance.
type NotificationKind string

const (
	// KindMain is the single notification at the bill's due time.
	KindMain NotificationKind = "main"
	// KindCatchUp substitutes for the main notification when the
	// intended fire time has already passed at planning time.
	KindCatchUp NotificationKind = "catch_up"
	// KindRecurringReminder is one of the periodic notify-until-paid
	// reminders following the due time.
	KindRecurringReminder NotificationKind = "recurring_reminder"
	// KindPaidConfirmation is the one-off confirmation fired when a
	// bill is marked paid. It is planned out-of-band, not by replans.
	KindPaidConfirmation NotificationKind = "paid_confirmation"
)

// NotificationInstance is a derived, ephemeral description of one
// scheduled notification. Instances are recomputed wholesale on every
// replan and never persisted or mutated. Sequence is meaningful only
// for the recurring_reminder kind; use the per-kind constructors so
// the tagged shape stays consistent.
type NotificationInstance struct {
	ID       int              `json:"id"`
	BillID   string           `json:"billId"`
	Kind     NotificationKind `json:"kind"`
	FiresAt  time.Time        `json:"firesAt"`
	Sequence int              `json:"sequence,omitempty"` // k-th recurring reminder, 1..12
	Title    string           `json:"title"`
	Body     string           `json:"body"`
}

// NewMainInstance builds the due-time notification for a bill.
func NewMainInstance(id int, billID string, firesAt time.Time, title, body string) NotificationInstance {
	return NotificationInstance{ID: id, BillID: billID, Kind: KindMain, FiresAt: firesAt, Title: title, Body: body}
}

// NewCatchUpInstance builds the near-immediate substitute for a missed
// due-time notification.
func NewCatchUpInstance(id int, billID string, firesAt time.Time, title, body string) NotificationInstance {
	return NotificationInstance{ID: id, BillID: billID, Kind: KindCatchUp, FiresAt: firesAt, Title: title, Body: body}
}

// NewRecurringReminderInstance builds the k-th notify-until-paid reminder.
func NewRecurringReminderInstance(id int, billID string, firesAt time.Time, sequence int, title, body string) NotificationInstance {
	return NotificationInstance{ID: id, BillID: billID, Kind: KindRecurringReminder, FiresAt: firesAt, Sequence: sequence, Title: title, Body: body}
}

// NewPaidConfirmationInstance builds the one-off paid confirmation.
func NewPaidConfirmationInstance(id int, billID string, firesAt time.Time, title, body string) NotificationInstance {
	return NotificationInstance{ID: id, BillID: billID, Kind: KindPaidConfirmation, FiresAt: firesAt, Title: title, Body: body}
}
