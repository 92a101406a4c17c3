package db

import (
	"context"
	"errors"

	"billdue-backend-go/internal/models"
)

// ErrNotFound is returned when a requested record does not exist in the
// backing store.
var ErrNotFound = errors.New("not found")

// BillRepository defines the interface for bill persistence. The bill
// store writes through exactly one implementation at a time: the local
// store while anonymous, a remote owner-bound repository while
// authenticated.
type BillRepository interface {
	// List returns every persisted bill.
	List(ctx context.Context) ([]models.Bill, error)

	// Create persists a new bill. When bill.ID is empty the repository
	// assigns one and populates the field.
	Create(ctx context.Context, bill *models.Bill) error

	// Update replaces an existing bill. Returns ErrNotFound if the bill
	// does not exist.
	Update(ctx context.Context, bill models.Bill) error

	// Delete removes a bill by id. Returns ErrNotFound if the bill does
	// not exist.
	Delete(ctx context.Context, billID string) error
}

// SettingsRepository defines the interface for the per-session settings
// singleton.
type SettingsRepository interface {
	// Get returns the persisted settings, or ErrNotFound when none have
	// been saved yet.
	Get(ctx context.Context) (models.UserSettings, error)

	// Save persists the settings, overwriting any previous value.
	Save(ctx context.Context, settings models.UserSettings) error
}
