package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"billdue-backend-go/internal/models"
)

func testBill(name string) models.Bill {
	return models.Bill{
		Name:             name,
		Amount:           decimal.NewFromFloat(49.99),
		Frequency:        models.FrequencyMonthly,
		NextDueDate:      time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		NotificationTime: "09:00",
	}
}

func newTestStore() (*BillStore, *fakeBillRepo, *fakeSettingsRepo) {
	billRepo := &fakeBillRepo{}
	settingsRepo := &fakeSettingsRepo{}
	store := NewBillStore(billRepo, settingsRepo, zap.NewNop())
	return store, billRepo, settingsRepo
}

func TestBillStoreCreatePersistsThenNotifies(t *testing.T) {
	store, billRepo, _ := newTestStore()
	var changes []Change
	store.Subscribe(func(c Change) { changes = append(changes, c) })

	created, err := store.Create(context.Background(), testBill("Rent"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	assert.Len(t, store.Bills(), 1)
	assert.Equal(t, 1, billRepo.creates)
	require.Len(t, changes, 1)
	assert.Equal(t, ChangeBillCreated, changes[0].Kind)
	assert.Equal(t, created.ID, changes[0].Bill.ID)
}

func TestBillStoreCreateRejectsInvalidBill(t *testing.T) {
	store, billRepo, _ := newTestStore()

	bill := testBill("Rent")
	bill.NotificationTime = "25:00"
	_, err := store.Create(context.Background(), bill)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidTimeOfDay)
	assert.Zero(t, billRepo.creates)
	assert.Empty(t, store.Bills())
}

func TestBillStorePersistenceFailureLeavesMemoryUntouched(t *testing.T) {
	store, billRepo, _ := newTestStore()
	created, err := store.Create(context.Background(), testBill("Internet"))
	require.NoError(t, err)

	billRepo.fail = true
	newName := "Fiber"
	_, err = store.Update(context.Background(), created.ID, BillPatch{Name: &newName})
	require.Error(t, err)

	var perr *PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "update bill", perr.Op)
	assert.Equal(t, "Internet", store.Bills()[0].Name)
}

func TestBillStoreUpdateAppliesPatch(t *testing.T) {
	store, _, _ := newTestStore()
	created, err := store.Create(context.Background(), testBill("Gym"))
	require.NoError(t, err)

	amount := decimal.NewFromInt(60)
	notify := true
	updated, err := store.Update(context.Background(), created.ID, BillPatch{
		Amount:          &amount,
		NotifyUntilPaid: &notify,
	})
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(amount))
	assert.True(t, updated.NotifyUntilPaid)
	assert.Equal(t, "Gym", updated.Name)
}

func TestBillStoreUpdateUnknownBill(t *testing.T) {
	store, _, _ := newTestStore()
	name := "x"
	_, err := store.Update(context.Background(), "missing", BillPatch{Name: &name})
	assert.ErrorIs(t, err, ErrBillNotFound)
}

func TestBillStoreDeleteRemovesAndNotifies(t *testing.T) {
	store, _, _ := newTestStore()
	created, err := store.Create(context.Background(), testBill("Water"))
	require.NoError(t, err)

	var deleted []Change
	store.Subscribe(func(c Change) {
		if c.Kind == ChangeBillDeleted {
			deleted = append(deleted, c)
		}
	})

	require.NoError(t, store.Delete(context.Background(), created.ID))
	assert.Empty(t, store.Bills())
	require.Len(t, deleted, 1)
	assert.Equal(t, created.ID, deleted[0].Bill.ID)

	assert.ErrorIs(t, store.Delete(context.Background(), created.ID), ErrBillNotFound)
}

func TestBillStoreMarkPaidRecurringRollsForward(t *testing.T) {
	store, _, _ := newTestStore()
	created, err := store.Create(context.Background(), testBill("Rent"))
	require.NoError(t, err)

	paid, err := store.MarkPaid(context.Background(), created.ID)
	require.NoError(t, err)
	assert.False(t, paid.IsPaid)
	assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), paid.NextDueDate)
}

func TestBillStoreMarkPaidOneTimeIsTerminal(t *testing.T) {
	store, _, _ := newTestStore()
	bill := testBill("Passport renewal")
	bill.Frequency = models.FrequencyOneTime
	created, err := store.Create(context.Background(), bill)
	require.NoError(t, err)

	paid, err := store.MarkPaid(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, bill.NextDueDate, paid.NextDueDate)
}

func TestBillStoreAutoResolveDue(t *testing.T) {
	store, _, _ := newTestStore()

	auto := testBill("Netflix")
	auto.AutoMarkPaid = true
	created, err := store.Create(context.Background(), auto)
	require.NoError(t, err)

	manual := testBill("Rent")
	_, err = store.Create(context.Background(), manual)
	require.NoError(t, err)

	future := testBill("Insurance")
	future.AutoMarkPaid = true
	future.NextDueDate = time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	_, err = store.Create(context.Background(), future)
	require.NoError(t, err)

	store.AutoResolveDue(context.Background(), time.Date(2025, 6, 16, 0, 0, 0, 0, time.UTC))

	for _, b := range store.Bills() {
		switch b.Name {
		case "Netflix":
			assert.Equal(t, time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), b.NextDueDate, "auto bill rolls forward")
		case "Rent":
			assert.Equal(t, created.NextDueDate, b.NextDueDate, "manual bill stays put")
		case "Insurance":
			assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), b.NextDueDate, "future bill stays put")
		}
	}
}

func TestBillStoreUpdateSettings(t *testing.T) {
	store, _, settingsRepo := newTestStore()
	income := decimal.NewFromInt(4200)
	currency := "EUR"

	updated, err := store.UpdateSettings(context.Background(), SettingsPatch{
		BaseCurrency:  &currency,
		MonthlyIncome: &income,
	})
	require.NoError(t, err)
	assert.Equal(t, "EUR", updated.BaseCurrency)
	require.NotNil(t, updated.MonthlyIncome)
	assert.True(t, updated.MonthlyIncome.Equal(income))
	assert.Equal(t, 1, settingsRepo.saves)
	assert.Equal(t, "EUR", store.Settings().BaseCurrency)
}

func TestBillStoreSwapBackendReplacesSnapshot(t *testing.T) {
	store, _, _ := newTestStore()
	_, err := store.Create(context.Background(), testBill("Old"))
	require.NoError(t, err)

	var reloads int
	store.Subscribe(func(c Change) {
		if c.Kind == ChangeBillsReloaded {
			reloads++
		}
	})

	replacement := testBill("New")
	replacement.ID = "remote-1"
	settings := models.DefaultSettings()
	settings.SyncEnabled = true
	store.SwapBackend(&fakeBillRepo{}, &fakeSettingsRepo{}, []models.Bill{replacement}, settings)

	bills := store.Bills()
	require.Len(t, bills, 1)
	assert.Equal(t, "remote-1", bills[0].ID)
	assert.True(t, store.Settings().SyncEnabled)
	assert.Equal(t, 1, reloads)
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	inner := errors.New("disk full")
	err := &PersistenceError{Op: "create bill", Err: inner}
	assert.ErrorIs(t, err, inner)
}
