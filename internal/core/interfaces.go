package core

import (
	"context"

	"billdue-backend-go/internal/db"
	"billdue-backend-go/internal/models"
)

// ChangeKind enumerates the committed bill store mutations observers
// are told about.
type ChangeKind string

const (
	ChangeBillCreated     ChangeKind = "bill_created"
	ChangeBillUpdated     ChangeKind = "bill_updated"
	ChangeBillDeleted     ChangeKind = "bill_deleted"
	ChangeBillPaid        ChangeKind = "bill_paid"
	ChangeBillsReloaded   ChangeKind = "bills_reloaded"
	ChangeSettingsUpdated ChangeKind = "settings_updated"
)

// Change describes one committed mutation. Bill is set for the
// per-bill kinds and nil for bills_reloaded and settings_updated.
type Change struct {
	Kind ChangeKind
	Bill *models.Bill
}

// Observer receives committed changes. Observers run synchronously
// after the mutation commits and must not call back into the store.
type Observer func(Change)

// BillReader is the read-only view of the ledger that the schedule
// supervisor works from.
type BillReader interface {
	Bills() []models.Bill
}

// LocalStorage is the subset of the local durable store the sync
// coordinator drives at session transition boundaries, beyond the plain
// repository contracts.
type LocalStorage interface {
	db.BillRepository
	db.SettingsRepository

	// Clear wipes the bill and settings blobs but keeps migration
	// markers.
	Clear(ctx context.Context) error

	// HasMigrated reports whether the user's local data already moved
	// to the remote store.
	HasMigrated(ctx context.Context, userID string) (bool, error)

	// MarkMigrated records a completed migration for the user.
	MarkMigrated(ctx context.Context, userID string) error
}

// RemoteFactory builds owner-bound remote repositories for an
// authenticated user. It is nil when cloud sync is not configured.
type RemoteFactory func(userID string) (db.BillRepository, db.SettingsRepository)
