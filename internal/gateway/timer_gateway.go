package gateway

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"billdue-backend-go/internal/metrics"
	"billdue-backend-go/internal/models"
)

// Ensure TimerGateway implements Gateway.
var _ Gateway = (*TimerGateway)(nil)

// TimerGateway schedules notifications on in-process timers and hands
// fired instances to a Notifier sink. It stands in for the OS
// notification service: schedule is idempotent per id, cancel of an
// unknown id is a no-op, and its capability flags come from the
// constructor config rather than ambient state.
type TimerGateway struct {
	notifier Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics

	available bool

	mu      sync.Mutex
	granted bool
	pending map[int]*pendingNotification
	closed  bool
}

type pendingNotification struct {
	instance models.NotificationInstance
	timer    *time.Timer
}

// TimerGatewayConfig carries the gateway's capability flags and
// collaborators.
type TimerGatewayConfig struct {
	// Enabled is false on runtimes without notification support; the
	// gateway then reports unavailable and every call no-ops.
	Enabled bool
	// Granted seeds the permission state; RequestPermission grants it
	// on an enabled gateway.
	Granted  bool
	Notifier Notifier
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// NewTimerGateway creates a TimerGateway.
func NewTimerGateway(cfg TimerGatewayConfig) *TimerGateway {
	return &TimerGateway{
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		available: cfg.Enabled,
		granted:   cfg.Granted,
		pending:   make(map[int]*pendingNotification),
	}
}

// IsAvailable reports whether scheduling is supported.
func (g *TimerGateway) IsAvailable() bool {
	return g.available
}

// CheckPermission reports the current permission state.
func (g *TimerGateway) CheckPermission(_ context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.granted, nil
}

// RequestPermission grants permission on an enabled gateway.
func (g *TimerGateway) RequestPermission(_ context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.available {
		g.granted = true
	}
	return g.granted, nil
}

// Schedule registers the instances on timers. An instance whose id is
// already pending replaces the previous one.
func (g *TimerGateway) Schedule(_ context.Context, instances []models.NotificationInstance) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.available || g.closed {
		return nil
	}
	for _, inst := range instances {
		if prev, ok := g.pending[inst.ID]; ok {
			prev.timer.Stop()
		}
		delay := time.Until(inst.FiresAt)
		if delay < 0 {
			delay = 0
		}
		id := inst.ID
		g.pending[id] = &pendingNotification{
			instance: inst,
			timer:    time.AfterFunc(delay, func() { g.fire(id) }),
		}
	}
	return nil
}

// Cancel stops and removes the given pending ids.
func (g *TimerGateway) Cancel(_ context.Context, ids []int) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range ids {
		if entry, ok := g.pending[id]; ok {
			entry.timer.Stop()
			delete(g.pending, id)
		}
	}
	return nil
}

// ListPending returns a snapshot of the pending instances.
func (g *TimerGateway) ListPending(_ context.Context) ([]models.NotificationInstance, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]models.NotificationInstance, 0, len(g.pending))
	for _, entry := range g.pending {
		out = append(out, entry.instance)
	}
	return out, nil
}

// Close stops every pending timer. The gateway accepts no further
// schedules afterwards.
func (g *TimerGateway) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	for id, entry := range g.pending {
		entry.timer.Stop()
		delete(g.pending, id)
	}
}

// fire runs on the timer goroutine when an instance comes due.
func (g *TimerGateway) fire(id int) {
	g.mu.Lock()
	entry, ok := g.pending[id]
	if ok {
		delete(g.pending, id)
	}
	g.mu.Unlock()
	if !ok {
		// Cancelled between the timer firing and the lock.
		return
	}

	if err := g.notifier.Deliver(context.Background(), entry.instance); err != nil {
		g.metrics.DeliveryFailuresTotal.Inc()
		g.logger.Warn("notification_delivery_failed",
			zap.Int("id", id),
			zap.String("billId", entry.instance.BillID),
			zap.Error(err),
		)
		return
	}
	g.metrics.NotificationsDeliveredTotal.Inc()
}
