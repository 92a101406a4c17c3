package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"billdue-backend-go/internal/db"
	"billdue-backend-go/internal/models"
	"billdue-backend-go/internal/recurrence"
)

// BillStore owns the authoritative in-memory bill list and settings for
// the lifetime of a session and writes through exactly one backing
// store at a time. Every mutation persists first and only then updates
// memory and notifies observers, so observers always see state that is
// already durable. Mutations are serialized by a single mutex.
type BillStore struct {
	mu           sync.Mutex
	billRepo     db.BillRepository
	settingsRepo db.SettingsRepository
	bills        []models.Bill
	settings     models.UserSettings
	observers    []Observer

	logger  *zap.Logger
	nowFunc func() time.Time
}

// NewBillStore creates a BillStore backed by the given repositories,
// starting with an empty ledger and default settings. The initial
// content arrives through the sync coordinator's first load.
func NewBillStore(billRepo db.BillRepository, settingsRepo db.SettingsRepository, logger *zap.Logger) *BillStore {
	return &BillStore{
		billRepo:     billRepo,
		settingsRepo: settingsRepo,
		settings:     models.DefaultSettings(),
		logger:       logger,
		nowFunc:      time.Now,
	}
}

// Subscribe registers an observer for committed changes. Observers are
// expected to be registered during wiring, before mutations start.
func (s *BillStore) Subscribe(obs Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, obs)
}

// Bills returns a copy of the current bill list.
func (s *BillStore) Bills() []models.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Bill(nil), s.bills...)
}

// Settings returns the current settings.
func (s *BillStore) Settings() models.UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Create validates and persists a new bill, then adds it to the ledger.
func (s *BillStore) Create(ctx context.Context, bill models.Bill) (models.Bill, error) {
	if err := bill.Validate(); err != nil {
		return models.Bill{}, err
	}
	now := s.nowFunc()
	bill.CreatedAt = now
	bill.UpdatedAt = now

	s.mu.Lock()
	if err := s.billRepo.Create(ctx, &bill); err != nil {
		s.mu.Unlock()
		return models.Bill{}, &PersistenceError{Op: "create bill", Err: err}
	}
	s.bills = append(s.bills, bill)
	s.mu.Unlock()

	s.logger.Info("bill_created", zap.String("billId", bill.ID), zap.String("name", bill.Name))
	s.notify(Change{Kind: ChangeBillCreated, Bill: &bill})
	return bill, nil
}

// BillPatch carries the fields of a partial bill update. Nil fields are
// left unchanged.
type BillPatch struct {
	Name             *string
	Amount           *decimal.Decimal
	Frequency        *models.Frequency
	NextDueDate      *time.Time
	NotificationTime *string
	Note             *string
	AutoMarkPaid     *bool
	NotifyUntilPaid  *bool
	IsPaid           *bool
}

func (p BillPatch) applyTo(bill *models.Bill) {
	if p.Name != nil {
		bill.Name = *p.Name
	}
	if p.Amount != nil {
		bill.Amount = *p.Amount
	}
	if p.Frequency != nil {
		bill.Frequency = *p.Frequency
	}
	if p.NextDueDate != nil {
		bill.NextDueDate = *p.NextDueDate
	}
	if p.NotificationTime != nil {
		bill.NotificationTime = *p.NotificationTime
	}
	if p.Note != nil {
		bill.Note = *p.Note
	}
	if p.AutoMarkPaid != nil {
		bill.AutoMarkPaid = *p.AutoMarkPaid
	}
	if p.NotifyUntilPaid != nil {
		bill.NotifyUntilPaid = *p.NotifyUntilPaid
	}
	if p.IsPaid != nil {
		bill.IsPaid = *p.IsPaid
	}
}

// Update applies a partial update to an existing bill.
func (s *BillStore) Update(ctx context.Context, billID string, patch BillPatch) (models.Bill, error) {
	s.mu.Lock()
	idx := s.indexOf(billID)
	if idx < 0 {
		s.mu.Unlock()
		return models.Bill{}, fmt.Errorf("%w: %s", ErrBillNotFound, billID)
	}
	updated := s.bills[idx]
	patch.applyTo(&updated)
	if err := updated.Validate(); err != nil {
		s.mu.Unlock()
		return models.Bill{}, err
	}
	updated.UpdatedAt = s.nowFunc()

	if err := s.billRepo.Update(ctx, updated); err != nil {
		s.mu.Unlock()
		return models.Bill{}, &PersistenceError{Op: "update bill", Err: err}
	}
	s.bills[idx] = updated
	s.mu.Unlock()

	s.logger.Info("bill_updated", zap.String("billId", updated.ID))
	s.notify(Change{Kind: ChangeBillUpdated, Bill: &updated})
	return updated, nil
}

// Delete removes a bill from the ledger.
func (s *BillStore) Delete(ctx context.Context, billID string) error {
	s.mu.Lock()
	idx := s.indexOf(billID)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBillNotFound, billID)
	}
	removed := s.bills[idx]

	if err := s.billRepo.Delete(ctx, billID); err != nil {
		s.mu.Unlock()
		return &PersistenceError{Op: "delete bill", Err: err}
	}
	s.bills = append(s.bills[:idx], s.bills[idx+1:]...)
	s.mu.Unlock()

	s.logger.Info("bill_deleted", zap.String("billId", billID))
	s.notify(Change{Kind: ChangeBillDeleted, Bill: &removed})
	return nil
}

// MarkPaid resolves the bill's current occurrence. A recurring bill
// rolls forward: its due date advances by the frequency and IsPaid
// resets to false, so a recurring bill is never left permanently paid.
// A one-time bill stays paid and terminal.
func (s *BillStore) MarkPaid(ctx context.Context, billID string) (models.Bill, error) {
	s.mu.Lock()
	idx := s.indexOf(billID)
	if idx < 0 {
		s.mu.Unlock()
		return models.Bill{}, fmt.Errorf("%w: %s", ErrBillNotFound, billID)
	}
	updated := s.bills[idx]
	updated.IsPaid = true
	if !updated.Frequency.IsOneTime() {
		updated.NextDueDate = recurrence.Advance(updated.NextDueDate, updated.Frequency)
		updated.IsPaid = false
	}
	updated.UpdatedAt = s.nowFunc()

	if err := s.billRepo.Update(ctx, updated); err != nil {
		s.mu.Unlock()
		return models.Bill{}, &PersistenceError{Op: "mark bill paid", Err: err}
	}
	s.bills[idx] = updated
	s.mu.Unlock()

	s.logger.Info("bill_paid",
		zap.String("billId", updated.ID),
		zap.Bool("recurring", !updated.Frequency.IsOneTime()),
		zap.Time("nextDueDate", updated.NextDueDate),
	)
	s.notify(Change{Kind: ChangeBillPaid, Bill: &updated})
	return updated, nil
}

// SettingsPatch carries the fields of a partial settings update.
type SettingsPatch struct {
	BaseCurrency    *string
	DisplayCurrency *string
	MonthlyIncome   *decimal.Decimal
}

// UpdateSettings applies a partial update to the settings singleton.
func (s *BillStore) UpdateSettings(ctx context.Context, patch SettingsPatch) (models.UserSettings, error) {
	s.mu.Lock()
	updated := s.settings
	if patch.BaseCurrency != nil {
		updated.BaseCurrency = *patch.BaseCurrency
	}
	if patch.DisplayCurrency != nil {
		updated.DisplayCurrency = *patch.DisplayCurrency
	}
	if patch.MonthlyIncome != nil {
		income := *patch.MonthlyIncome
		updated.MonthlyIncome = &income
	}

	if err := s.settingsRepo.Save(ctx, updated); err != nil {
		s.mu.Unlock()
		return models.UserSettings{}, &PersistenceError{Op: "update settings", Err: err}
	}
	s.settings = updated
	s.mu.Unlock()

	s.logger.Info("settings_updated", zap.String("baseCurrency", updated.BaseCurrency))
	s.notify(Change{Kind: ChangeSettingsUpdated})
	return updated, nil
}

// AutoResolveDue marks every due, unpaid bill that opted into
// AutoMarkPaid through the normal MarkPaid path. Failures are logged
// per bill and do not stop the sweep.
func (s *BillStore) AutoResolveDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	var due []string
	for _, b := range s.bills {
		if b.AutoMarkPaid && !b.IsPaid && !b.NextDueDate.After(now) {
			due = append(due, b.ID)
		}
	}
	s.mu.Unlock()

	for _, id := range due {
		if _, err := s.MarkPaid(ctx, id); err != nil {
			s.logger.Warn("auto_mark_paid_failed", zap.String("billId", id), zap.Error(err))
		}
	}
}

// SwapBackend atomically replaces the backing repositories and the
// in-memory snapshot. It is the transition-boundary entry point used
// only by the sync coordinator; normal mutations never change backends.
func (s *BillStore) SwapBackend(billRepo db.BillRepository, settingsRepo db.SettingsRepository, bills []models.Bill, settings models.UserSettings) {
	s.mu.Lock()
	s.billRepo = billRepo
	s.settingsRepo = settingsRepo
	s.bills = append([]models.Bill(nil), bills...)
	s.settings = settings
	s.mu.Unlock()

	s.logger.Info("backend_swapped",
		zap.Int("bills", len(bills)),
		zap.Bool("syncEnabled", settings.SyncEnabled),
	)
	s.notify(Change{Kind: ChangeBillsReloaded})
}

func (s *BillStore) indexOf(billID string) int {
	for i := range s.bills {
		if s.bills[i].ID == billID {
			return i
		}
	}
	return -1
}

func (s *BillStore) notify(change Change) {
	s.mu.Lock()
	observers := append([]Observer(nil), s.observers...)
	s.mu.Unlock()
	for _, obs := range observers {
		obs(change)
	}
}
