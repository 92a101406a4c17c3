package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"billdue-backend-go/internal/db"
	"billdue-backend-go/internal/models"
)

var errRepoDown = errors.New("backing store unavailable")

// fakeBillRepo is an in-memory BillRepository with a failure switch.
type fakeBillRepo struct {
	mu      sync.Mutex
	bills   []models.Bill
	nextID  int
	fail    bool
	creates int
}

func (r *fakeBillRepo) List(ctx context.Context) ([]models.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return nil, errRepoDown
	}
	return append([]models.Bill(nil), r.bills...), nil
}

func (r *fakeBillRepo) Create(ctx context.Context, bill *models.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRepoDown
	}
	if bill.ID == "" {
		r.nextID++
		bill.ID = fmt.Sprintf("bill-%d", r.nextID)
	}
	r.bills = append(r.bills, *bill)
	r.creates++
	return nil
}

func (r *fakeBillRepo) Update(ctx context.Context, bill models.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRepoDown
	}
	for i := range r.bills {
		if r.bills[i].ID == bill.ID {
			r.bills[i] = bill
			return nil
		}
	}
	return db.ErrNotFound
}

func (r *fakeBillRepo) Delete(ctx context.Context, billID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRepoDown
	}
	for i := range r.bills {
		if r.bills[i].ID == billID {
			r.bills = append(r.bills[:i], r.bills[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

// fakeSettingsRepo is an in-memory SettingsRepository.
type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings models.UserSettings
	exists   bool
	fail     bool
	saves    int
}

func (r *fakeSettingsRepo) Get(ctx context.Context) (models.UserSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return models.UserSettings{}, errRepoDown
	}
	if !r.exists {
		return models.UserSettings{}, db.ErrNotFound
	}
	return r.settings, nil
}

func (r *fakeSettingsRepo) Save(ctx context.Context, settings models.UserSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errRepoDown
	}
	r.settings = settings
	r.exists = true
	r.saves++
	return nil
}

// fakeLocal implements LocalStorage over the in-memory fakes. listGate,
// when set, blocks the next List call until the channel is closed,
// which lets tests interleave a sign-in under a slow local load.
type fakeLocal struct {
	fakeBillRepo
	settings fakeSettingsRepo

	mu       sync.Mutex
	migrated map[string]bool
	cleared  int
	listGate chan struct{}
	failMark bool
}

func newFakeLocal() *fakeLocal {
	return &fakeLocal{migrated: map[string]bool{}}
}

func (l *fakeLocal) List(ctx context.Context) ([]models.Bill, error) {
	l.mu.Lock()
	gate := l.listGate
	l.listGate = nil
	l.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return l.fakeBillRepo.List(ctx)
}

func (l *fakeLocal) Get(ctx context.Context) (models.UserSettings, error) {
	return l.settings.Get(ctx)
}

func (l *fakeLocal) Save(ctx context.Context, settings models.UserSettings) error {
	return l.settings.Save(ctx, settings)
}

func (l *fakeLocal) Clear(ctx context.Context) error {
	l.mu.Lock()
	l.cleared++
	l.mu.Unlock()

	l.fakeBillRepo.mu.Lock()
	l.fakeBillRepo.bills = nil
	l.fakeBillRepo.mu.Unlock()

	l.settings.mu.Lock()
	l.settings.exists = false
	l.settings.mu.Unlock()
	return nil
}

func (l *fakeLocal) HasMigrated(ctx context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.migrated[userID], nil
}

func (l *fakeLocal) MarkMigrated(ctx context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failMark {
		return errRepoDown
	}
	l.migrated[userID] = true
	return nil
}

// fakeGateway records every schedule and cancel call.
type fakeGateway struct {
	mu           sync.Mutex
	available    bool
	granted      bool
	requests     int
	pending      map[int]models.NotificationInstance
	cancelled    []int
	failSchedule bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{available: true, granted: true, pending: map[int]models.NotificationInstance{}}
}

func (g *fakeGateway) IsAvailable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.available
}

func (g *fakeGateway) Schedule(ctx context.Context, instances []models.NotificationInstance) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failSchedule {
		return errors.New("schedule rejected")
	}
	for _, inst := range instances {
		g.pending[inst.ID] = inst
	}
	return nil
}

func (g *fakeGateway) Cancel(ctx context.Context, ids []int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		delete(g.pending, id)
		g.cancelled = append(g.cancelled, id)
	}
	return nil
}

func (g *fakeGateway) ListPending(ctx context.Context) ([]models.NotificationInstance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.NotificationInstance, 0, len(g.pending))
	for _, inst := range g.pending {
		out = append(out, inst)
	}
	return out, nil
}

func (g *fakeGateway) CheckPermission(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.granted, nil
}

func (g *fakeGateway) RequestPermission(ctx context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests++
	return g.granted, nil
}

func (g *fakeGateway) pendingIDs() []int {
	g.mu.Lock()
	defer g.mu.Unlock()
	ids := make([]int, 0, len(g.pending))
	for id := range g.pending {
		ids = append(ids, id)
	}
	return ids
}
