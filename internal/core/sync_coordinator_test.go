package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"billdue-backend-go/internal/db"
	"billdue-backend-go/internal/metrics"
	"billdue-backend-go/internal/models"
	"billdue-backend-go/internal/session"
)

type coordinatorFixture struct {
	store        *BillStore
	local        *fakeLocal
	remoteBills  *fakeBillRepo
	remoteConfig *fakeSettingsRepo
	gateway      *fakeGateway
	coordinator  *SyncCoordinator
}

func newCoordinatorFixture() *coordinatorFixture {
	f := &coordinatorFixture{
		local:        newFakeLocal(),
		remoteBills:  &fakeBillRepo{},
		remoteConfig: &fakeSettingsRepo{},
		gateway:      newFakeGateway(),
	}
	f.store = NewBillStore(f.local, f.local, zap.NewNop())
	remote := func(userID string) (db.BillRepository, db.SettingsRepository) {
		return f.remoteBills, f.remoteConfig
	}
	f.coordinator = NewSyncCoordinator(f.store, f.local, remote, f.gateway, zap.NewNop(), metrics.New())
	return f
}

func (f *coordinatorFixture) seedLocal(t *testing.T, names ...string) {
	t.Helper()
	for _, name := range names {
		bill := testBill(name)
		require.NoError(t, f.local.Create(context.Background(), &bill))
	}
}

func TestLoadLocalPopulatesStore(t *testing.T) {
	f := newCoordinatorFixture()
	f.seedLocal(t, "Rent", "Internet")

	require.NoError(t, f.coordinator.LoadLocal(context.Background()))

	assert.Len(t, f.store.Bills(), 2)
	assert.False(t, f.store.Settings().SyncEnabled)
	assert.Equal(t, StateAnonymous, f.coordinator.State())
}

func TestSignInMigratesLocalBillsOnce(t *testing.T) {
	f := newCoordinatorFixture()
	f.seedLocal(t, "Rent", "Internet", "Gym")
	require.NoError(t, f.coordinator.LoadLocal(context.Background()))

	require.NoError(t, f.coordinator.HandleSignIn(context.Background(), "user-1"))

	assert.Equal(t, StateAuthenticated, f.coordinator.State())
	assert.Equal(t, 3, f.remoteBills.creates)
	assert.Len(t, f.store.Bills(), 3)
	assert.True(t, f.store.Settings().SyncEnabled)

	migrated, err := f.local.HasMigrated(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, migrated)

	localBills, err := f.local.fakeBillRepo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, localBills, "local bills are wiped after migration")

	// Migrated bills carry remote-assigned ids, not their local UUIDs.
	for _, b := range f.store.Bills() {
		assert.NotEmpty(t, b.ID)
	}
}

func TestRedundantSignInDoesNotDuplicate(t *testing.T) {
	f := newCoordinatorFixture()
	f.seedLocal(t, "Rent")

	require.NoError(t, f.coordinator.HandleSignIn(context.Background(), "user-1"))
	require.NoError(t, f.coordinator.HandleSignIn(context.Background(), "user-1"))

	assert.Equal(t, 1, f.remoteBills.creates)
	assert.Len(t, f.store.Bills(), 1)
}

func TestSignInMergesRemoteAndLocal(t *testing.T) {
	f := newCoordinatorFixture()
	f.seedLocal(t, "Local bill")

	remoteBill := testBill("Remote bill")
	remoteBill.ID = "remote-1"
	f.remoteBills.bills = []models.Bill{remoteBill}
	f.remoteConfig.settings = models.UserSettings{BaseCurrency: "EUR", DisplayCurrency: "EUR", SyncEnabled: true}
	f.remoteConfig.exists = true

	require.NoError(t, f.coordinator.HandleSignIn(context.Background(), "user-1"))

	bills := f.store.Bills()
	assert.Len(t, bills, 2)
	assert.Equal(t, "EUR", f.store.Settings().BaseCurrency, "remote settings win when they exist")
	assert.Equal(t, 0, f.remoteConfig.saves, "existing remote settings are not rewritten")
}

func TestSignInSavesDefaultSettingsWhenRemoteHasNone(t *testing.T) {
	f := newCoordinatorFixture()

	require.NoError(t, f.coordinator.HandleSignIn(context.Background(), "user-1"))

	assert.Equal(t, 1, f.remoteConfig.saves)
	assert.True(t, f.store.Settings().SyncEnabled)
}

func TestSignInFailureFallsBackToLocal(t *testing.T) {
	f := newCoordinatorFixture()
	f.seedLocal(t, "Rent")
	require.NoError(t, f.coordinator.LoadLocal(context.Background()))
	f.remoteBills.fail = true

	err := f.coordinator.HandleSignIn(context.Background(), "user-1")
	require.Error(t, err)

	var serr *SyncError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "remote load", serr.Stage)
	assert.Equal(t, StateAnonymous, f.coordinator.State())
	assert.Len(t, f.store.Bills(), 1, "local snapshot survives a failed sign-in")
	assert.False(t, f.store.Settings().SyncEnabled)
}

func TestFailedMigrationRetriesOnNextSignIn(t *testing.T) {
	f := newCoordinatorFixture()
	f.seedLocal(t, "Rent")
	f.local.failMark = true

	require.Error(t, f.coordinator.HandleSignIn(context.Background(), "user-1"))

	f.local.failMark = false
	require.NoError(t, f.coordinator.HandleSignIn(context.Background(), "user-1"))

	migrated, err := f.local.HasMigrated(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, migrated)
}

func TestSignOutCancelsNotificationsAndClears(t *testing.T) {
	f := newCoordinatorFixture()
	f.seedLocal(t, "Rent")
	require.NoError(t, f.coordinator.HandleSignIn(context.Background(), "user-1"))

	require.NoError(t, f.gateway.Schedule(context.Background(), []models.NotificationInstance{
		models.NewMainInstance(101, "bill-1", time.Now().Add(time.Hour), "t", "b"),
		models.NewMainInstance(202, "bill-2", time.Now().Add(2*time.Hour), "t", "b"),
	}))

	require.NoError(t, f.coordinator.HandleSignOut(context.Background()))

	assert.Equal(t, StateSignedOut, f.coordinator.State())
	assert.Empty(t, f.gateway.pendingIDs())
	assert.Empty(t, f.store.Bills())
	assert.False(t, f.store.Settings().SyncEnabled)
}

func TestStaleLocalLoadIsDroppedAfterSignIn(t *testing.T) {
	f := newCoordinatorFixture()
	f.local.migrated["user-1"] = true

	remoteBill := testBill("Remote bill")
	remoteBill.ID = "remote-1"
	f.remoteBills.bills = []models.Bill{remoteBill}

	gate := make(chan struct{})
	f.local.listGate = gate

	done := make(chan error, 1)
	go func() {
		done <- f.coordinator.LoadLocal(context.Background())
	}()

	// The sign-in completes while the local load is still stuck reading.
	require.Eventually(t, func() bool {
		f.local.mu.Lock()
		defer f.local.mu.Unlock()
		return f.local.listGate == nil
	}, time.Second, time.Millisecond)
	require.NoError(t, f.coordinator.HandleSignIn(context.Background(), "user-1"))

	close(gate)
	require.NoError(t, <-done)

	bills := f.store.Bills()
	require.Len(t, bills, 1)
	assert.Equal(t, "remote-1", bills[0].ID, "stale local snapshot must not clobber the signed-in state")
	assert.Equal(t, StateAuthenticated, f.coordinator.State())
}

func TestRunDrivesTransitionsFromEventStream(t *testing.T) {
	f := newCoordinatorFixture()
	f.seedLocal(t, "Rent")

	provider := session.NewProvider()
	done := make(chan struct{})
	go func() {
		f.coordinator.Run(context.Background(), provider.Events())
		close(done)
	}()

	require.True(t, provider.Publish(session.Event{Kind: session.EventSignedIn, UserID: "user-1"}))
	require.Eventually(t, func() bool {
		return f.coordinator.State() == StateAuthenticated
	}, time.Second, time.Millisecond)

	require.True(t, provider.Publish(session.Event{Kind: session.EventSignedOut}))
	require.Eventually(t, func() bool {
		return f.coordinator.State() == StateSignedOut
	}, time.Second, time.Millisecond)

	provider.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after the provider closed")
	}
}
