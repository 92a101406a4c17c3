package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"billdue-backend-go/internal/models"
)

// Ensure LocalStore implements both repository interfaces.
var (
	_ BillRepository     = (*LocalStore)(nil)
	_ SettingsRepository = (*LocalStore)(nil)
)

const (
	kvKeyBills    = "bills"
	kvKeySettings = "settings"
)

// LocalStore persists the anonymous session's data in SQLite: two
// keyed JSON blobs (the bill list and the settings singleton, dates as
// RFC 3339 strings) plus per-user migration markers. The blobs hold
// data only while no authenticated session exists; markers survive
// Clear so a migration runs at most once per user.
type LocalStore struct {
	db *sql.DB
}

// NewLocalStore opens (creating if necessary) the local database at the
// given path and runs migrations.
func NewLocalStore(dbPath string) (*LocalStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := runLocalMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &LocalStore{db: db}, nil
}

func runLocalMigrations(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS migrations (
			user_id     TEXT PRIMARY KEY,
			migrated_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// List returns the locally stored bills.
func (s *LocalStore) List(ctx context.Context) ([]models.Bill, error) {
	return s.loadBills(ctx)
}

// Create appends a bill to the blob, assigning a UUID when no id is
// set.
func (s *LocalStore) Create(ctx context.Context, bill *models.Bill) error {
	bills, err := s.loadBills(ctx)
	if err != nil {
		return err
	}
	if bill.ID == "" {
		bill.ID = uuid.New().String()
	}
	bills = append(bills, *bill)
	return s.saveBills(ctx, bills)
}

// Update replaces the bill with the same id.
func (s *LocalStore) Update(ctx context.Context, bill models.Bill) error {
	bills, err := s.loadBills(ctx)
	if err != nil {
		return err
	}
	for i := range bills {
		if bills[i].ID == bill.ID {
			bills[i] = bill
			return s.saveBills(ctx, bills)
		}
	}
	return fmt.Errorf("bill %s: %w", bill.ID, ErrNotFound)
}

// Delete removes the bill with the given id.
func (s *LocalStore) Delete(ctx context.Context, billID string) error {
	bills, err := s.loadBills(ctx)
	if err != nil {
		return err
	}
	for i := range bills {
		if bills[i].ID == billID {
			bills = append(bills[:i], bills[i+1:]...)
			return s.saveBills(ctx, bills)
		}
	}
	return fmt.Errorf("bill %s: %w", billID, ErrNotFound)
}

// Get returns the locally stored settings, or ErrNotFound when none
// have been saved.
func (s *LocalStore) Get(ctx context.Context) (models.UserSettings, error) {
	raw, err := s.loadBlob(ctx, kvKeySettings)
	if err != nil {
		return models.UserSettings{}, err
	}
	var settings models.UserSettings
	if err := json.Unmarshal(raw, &settings); err != nil {
		return models.UserSettings{}, fmt.Errorf("failed to decode settings blob: %w", err)
	}
	return settings, nil
}

// Save persists the settings blob.
func (s *LocalStore) Save(ctx context.Context, settings models.UserSettings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return s.saveBlob(ctx, kvKeySettings, raw)
}

// Clear wipes the bill and settings blobs. Migration markers are kept
// so a cleared store still remembers which users already migrated.
func (s *LocalStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv"); err != nil {
		return fmt.Errorf("failed to clear local storage: %w", err)
	}
	return nil
}

// HasMigrated reports whether the given user's local data has already
// been migrated to the remote store.
func (s *LocalStore) HasMigrated(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM migrations WHERE user_id = ?", userID,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check migration marker: %w", err)
	}
	return true, nil
}

// MarkMigrated records that the given user's migration completed.
func (s *LocalStore) MarkMigrated(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO migrations (user_id, migrated_at) VALUES (?, ?)",
		userID, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record migration marker: %w", err)
	}
	return nil
}

func (s *LocalStore) loadBills(ctx context.Context) ([]models.Bill, error) {
	raw, err := s.loadBlob(ctx, kvKeyBills)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var bills []models.Bill
	if err := json.Unmarshal(raw, &bills); err != nil {
		return nil, fmt.Errorf("failed to decode bills blob: %w", err)
	}
	return bills, nil
}

func (s *LocalStore) saveBills(ctx context.Context, bills []models.Bill) error {
	raw, err := json.Marshal(bills)
	if err != nil {
		return fmt.Errorf("failed to encode bills: %w", err)
	}
	return s.saveBlob(ctx, kvKeyBills, raw)
}

func (s *LocalStore) loadBlob(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s blob: %w", key, err)
	}
	return []byte(value), nil
}

func (s *LocalStore) saveBlob(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to save %s blob: %w", key, err)
	}
	return nil
}
