package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"billdue-backend-go/internal/models"
)

// Ensure FirestoreSettingsRepository implements SettingsRepository.
var _ SettingsRepository = (*FirestoreSettingsRepository)(nil)

// settingsDocument is the Firestore wire representation of the settings
// singleton. SyncEnabled is session state, not persisted.
type settingsDocument struct {
	BaseCurrency    string `firestore:"baseCurrency"`
	DisplayCurrency string `firestore:"displayCurrency,omitempty"`
	MonthlyIncome   string `firestore:"monthlyIncome,omitempty"`
}

// FirestoreSettingsRepository stores one owner's settings at
// users/{ownerID}/meta/settings.
type FirestoreSettingsRepository struct {
	client  *firestore.Client
	ownerID string
}

// NewFirestoreSettingsRepository creates a repository bound to the
// given owner.
func NewFirestoreSettingsRepository(client *firestore.Client, ownerID string) *FirestoreSettingsRepository {
	return &FirestoreSettingsRepository{client: client, ownerID: ownerID}
}

func (r *FirestoreSettingsRepository) doc() *firestore.DocumentRef {
	return r.client.Collection("users").Doc(r.ownerID).Collection("meta").Doc("settings")
}

// Get returns the owner's settings, or ErrNotFound when none exist yet.
func (r *FirestoreSettingsRepository) Get(ctx context.Context) (models.UserSettings, error) {
	snap, err := r.doc().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return models.UserSettings{}, ErrNotFound
		}
		return models.UserSettings{}, fmt.Errorf("failed to get settings: %w", err)
	}

	var sd settingsDocument
	if err := snap.DataTo(&sd); err != nil {
		return models.UserSettings{}, fmt.Errorf("failed to decode settings: %w", err)
	}

	settings := models.UserSettings{
		BaseCurrency:    sd.BaseCurrency,
		DisplayCurrency: sd.DisplayCurrency,
	}
	if sd.MonthlyIncome != "" {
		income, err := decimal.NewFromString(sd.MonthlyIncome)
		if err != nil {
			return models.UserSettings{}, fmt.Errorf("settings have malformed monthly income %q: %w", sd.MonthlyIncome, err)
		}
		settings.MonthlyIncome = &income
	}
	return settings, nil
}

// Save persists the owner's settings.
func (r *FirestoreSettingsRepository) Save(ctx context.Context, settings models.UserSettings) error {
	sd := settingsDocument{
		BaseCurrency:    settings.BaseCurrency,
		DisplayCurrency: settings.DisplayCurrency,
	}
	if settings.MonthlyIncome != nil {
		sd.MonthlyIncome = settings.MonthlyIncome.String()
	}
	if _, err := r.doc().Set(ctx, sd); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
