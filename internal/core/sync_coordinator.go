package core

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"billdue-backend-go/internal/db"
	"billdue-backend-go/internal/gateway"
	"billdue-backend-go/internal/metrics"
	"billdue-backend-go/internal/models"
	"billdue-backend-go/internal/session"
)

// SessionState enumerates the coordinator's states.
type SessionState string

const (
	StateAnonymous      SessionState = "anonymous"
	StateAuthenticating SessionState = "authenticating"
	StateAuthenticated  SessionState = "authenticated"
	StateSignedOut      SessionState = "signed_out"
)

// SyncCoordinator reacts to session transitions: it loads the right
// backing store into the bill store, migrates local-only data into the
// remote store exactly once per user, and clears everything on
// sign-out. Each transition bumps an epoch; a slow load started under
// an older epoch is dropped instead of overwriting fresher state, so
// transition order wins over completion order.
type SyncCoordinator struct {
	store   *BillStore
	local   LocalStorage
	remote  RemoteFactory
	gateway gateway.Gateway
	logger  *zap.Logger
	metrics *metrics.Metrics

	mu     sync.Mutex
	state  SessionState
	epoch  uint64
	userID string
}

// NewSyncCoordinator creates a coordinator starting in the anonymous
// state. remote may be nil when cloud sync is not configured; sign-in
// then fails with a SyncError and the session stays local.
func NewSyncCoordinator(store *BillStore, local LocalStorage, remote RemoteFactory, gw gateway.Gateway, logger *zap.Logger, m *metrics.Metrics) *SyncCoordinator {
	return &SyncCoordinator{
		store:   store,
		local:   local,
		remote:  remote,
		gateway: gw,
		logger:  logger,
		metrics: m,
		state:   StateAnonymous,
	}
}

// State returns the current session state.
func (c *SyncCoordinator) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run consumes the session event stream until the context ends or the
// provider closes. It is the stream's only subscriber.
func (c *SyncCoordinator) Run(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Kind {
			case session.EventSignedIn:
				if err := c.HandleSignIn(ctx, ev.UserID); err != nil {
					c.logger.Error("sign_in_failed", zap.String("userId", ev.UserID), zap.Error(err))
				}
			case session.EventSignedOut:
				if err := c.HandleSignOut(ctx); err != nil {
					c.logger.Error("sign_out_failed", zap.Error(err))
				}
			case session.EventTokenRefreshed:
				// Refresh does not change the active backing store.
				c.logger.Debug("session_token_refreshed")
			}
		}
	}
}

// LoadLocal populates the bill store from local durable storage. It is
// the initial load of an anonymous session; if a sign-in preempts it,
// the stale result is dropped.
func (c *SyncCoordinator) LoadLocal(ctx context.Context) error {
	c.mu.Lock()
	epoch := c.epoch
	c.mu.Unlock()

	bills, err := c.local.List(ctx)
	if err != nil {
		return &SyncError{Stage: "local load", Err: err}
	}
	settings, err := c.local.Get(ctx)
	if errors.Is(err, db.ErrNotFound) {
		settings = models.DefaultSettings()
	} else if err != nil {
		return &SyncError{Stage: "local load", Err: err}
	}
	settings.SyncEnabled = false

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.logger.Info("stale_local_load_dropped", zap.Uint64("epoch", epoch))
		return nil
	}
	c.store.SwapBackend(c.local, c.local, bills, settings)
	return nil
}

// HandleSignIn moves the session to the remote backing store. Remote
// data is authoritative; any pre-existing local-only bills are appended
// to the remote store exactly once per user, then local storage is
// cleared. A redundant sign-in event for an already-migrated user
// re-loads but never re-migrates.
func (c *SyncCoordinator) HandleSignIn(ctx context.Context, userID string) error {
	if c.remote == nil {
		return &SyncError{Stage: "sign-in", Err: errors.New("cloud sync is not configured")}
	}

	epoch := c.begin(StateAuthenticating, userID)
	billRepo, settingsRepo := c.remote(userID)

	bills, err := billRepo.List(ctx)
	if err != nil {
		return c.failSignIn(epoch, "remote load", err)
	}

	settings, err := settingsRepo.Get(ctx)
	remoteHadSettings := true
	if errors.Is(err, db.ErrNotFound) {
		remoteHadSettings = false
		settings = models.DefaultSettings()
	} else if err != nil {
		return c.failSignIn(epoch, "remote load", err)
	}

	migrated, err := c.local.HasMigrated(ctx, userID)
	if err != nil {
		return c.failSignIn(epoch, "migration check", err)
	}
	if !migrated {
		moved, err := c.migrate(ctx, userID, billRepo, settingsRepo, &settings, remoteHadSettings)
		if err != nil {
			// Marker not set: the whole migration retries on the next
			// sign-in event.
			return c.failSignIn(epoch, "migration", err)
		}
		bills = append(bills, moved...)
	}

	if !remoteHadSettings {
		if err := settingsRepo.Save(ctx, settings); err != nil {
			return c.failSignIn(epoch, "settings init", err)
		}
	}
	settings.SyncEnabled = true

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		c.logger.Info("stale_sign_in_dropped", zap.String("userId", userID))
		return nil
	}
	c.state = StateAuthenticated
	c.store.SwapBackend(billRepo, settingsRepo, bills, settings)
	c.logger.Info("signed_in", zap.String("userId", userID), zap.Int("bills", len(bills)))
	return nil
}

// migrate appends the local-only bills to the remote store and records
// the marker. Local settings are carried only when the remote had none.
// Returns the migrated bills with their newly assigned remote ids.
func (c *SyncCoordinator) migrate(ctx context.Context, userID string, billRepo db.BillRepository, settingsRepo db.SettingsRepository, settings *models.UserSettings, remoteHadSettings bool) ([]models.Bill, error) {
	localBills, err := c.local.List(ctx)
	if err != nil {
		return nil, err
	}

	moved := make([]models.Bill, 0, len(localBills))
	for _, bill := range localBills {
		bill.ID = "" // Append under a fresh remote id, never overwrite.
		if err := billRepo.Create(ctx, &bill); err != nil {
			return nil, err
		}
		moved = append(moved, bill)
	}

	if !remoteHadSettings {
		if localSettings, err := c.local.Get(ctx); err == nil {
			localSettings.SyncEnabled = false
			*settings = localSettings
		} else if !errors.Is(err, db.ErrNotFound) {
			return nil, err
		}
	}

	if err := c.local.MarkMigrated(ctx, userID); err != nil {
		return nil, err
	}
	if err := c.local.Clear(ctx); err != nil {
		// The marker is already set, so nothing duplicates; the stale
		// blobs get wiped again on sign-out.
		c.logger.Warn("local_clear_failed_after_migration", zap.Error(err))
	}

	c.metrics.MigrationsTotal.Inc()
	c.logger.Info("migration_completed", zap.String("userId", userID), zap.Int("bills", len(moved)))
	return moved, nil
}

// HandleSignOut clears the session: every pending notification is
// cancelled (the session boundary is also a notification-cancellation
// boundary), local storage is wiped and the store returns to empty
// local backing.
func (c *SyncCoordinator) HandleSignOut(ctx context.Context) error {
	epoch := c.begin(StateSignedOut, "")

	if pending, err := c.gateway.ListPending(ctx); err != nil {
		c.logger.Warn("pending_list_failed_on_sign_out", zap.Error(err))
	} else if len(pending) > 0 {
		ids := make([]int, 0, len(pending))
		for _, inst := range pending {
			ids = append(ids, inst.ID)
		}
		if err := c.gateway.Cancel(ctx, ids); err != nil {
			c.logger.Warn("pending_cancel_failed_on_sign_out", zap.Error(err))
		}
	}

	if err := c.local.Clear(ctx); err != nil {
		return &SyncError{Stage: "sign-out", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.epoch != epoch {
		return nil
	}
	c.store.SwapBackend(c.local, c.local, nil, models.DefaultSettings())
	c.logger.Info("signed_out")
	return nil
}

// begin records a transition and returns its epoch.
func (c *SyncCoordinator) begin(state SessionState, userID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.state = state
	c.userID = userID
	return c.epoch
}

// failSignIn reverts a failed sign-in to local operation for this run.
func (c *SyncCoordinator) failSignIn(epoch uint64, stage string, err error) error {
	c.metrics.SyncFailuresTotal.Inc()
	c.mu.Lock()
	if c.epoch == epoch {
		c.state = StateAnonymous
		c.userID = ""
	}
	c.mu.Unlock()
	return &SyncError{Stage: stage, Err: err}
}
