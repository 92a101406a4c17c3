package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"billdue-backend-go/internal/gateway"
	"billdue-backend-go/internal/metrics"
	"billdue-backend-go/internal/models"
	"billdue-backend-go/internal/planner"
)

// replanDebounce coalesces the bursts of changes a backend swap or a
// rapid edit sequence produces into a single full replan.
const replanDebounce = 250 * time.Millisecond

// ScheduleSupervisor keeps the notification gateway consistent with the
// ledger. It observes committed bill store changes and rebuilds every
// affected bill's notification plan with a cancel-then-schedule pass;
// because instance ids are derived deterministically from bill ids, a
// replan of unchanged bills lands on identical instances and is
// harmless.
type ScheduleSupervisor struct {
	reader  BillReader
	gateway gateway.Gateway
	logger  *zap.Logger
	metrics *metrics.Metrics
	nowFunc func() time.Time

	mu                  sync.Mutex
	timer               *time.Timer
	permissionRequested bool
	closed              bool
}

// NewScheduleSupervisor creates a supervisor over the given ledger view
// and gateway. Wire it to the store with store.Subscribe(s.OnChange).
func NewScheduleSupervisor(reader BillReader, gw gateway.Gateway, logger *zap.Logger, m *metrics.Metrics) *ScheduleSupervisor {
	return &ScheduleSupervisor{
		reader:  reader,
		gateway: gw,
		logger:  logger,
		metrics: m,
		nowFunc: time.Now,
	}
}

// OnChange is the store observer. Payment confirmations fire
// immediately so the user sees feedback for the action they just took;
// everything else funnels into the debounced replan.
func (s *ScheduleSupervisor) OnChange(change Change) {
	switch change.Kind {
	case ChangeBillPaid:
		s.cancelBill(change.Bill.ID)
		s.scheduleConfirmation(change)
		s.requestReplan()
	case ChangeBillDeleted:
		s.cancelBill(change.Bill.ID)
		s.requestReplan()
	case ChangeSettingsUpdated:
		// Settings do not influence notification plans.
	default:
		s.requestReplan()
	}
}

// Replan rebuilds the notification plan for every unpaid bill in the
// ledger. Safe to call at any time; it is a full no-op when the gateway
// is unavailable.
func (s *ScheduleSupervisor) Replan(ctx context.Context) {
	if !s.gateway.IsAvailable() {
		return
	}
	s.metrics.ReplansTotal.Inc()
	if !s.ensurePermission(ctx) {
		return
	}

	now := s.nowFunc()
	bills := s.reader.Bills()
	scheduled := 0
	for _, bill := range bills {
		s.metrics.ScheduleAttemptsTotal.Inc()
		if err := s.gateway.Cancel(ctx, planner.InstanceIDs(bill.ID)); err != nil {
			s.metrics.ScheduleFailuresTotal.Inc()
			s.logger.Warn("notification_cancel_failed", zap.String("billId", bill.ID), zap.Error(err))
			continue
		}
		plan := planner.BuildPlan(bill, now)
		if len(plan) == 0 {
			continue
		}
		if err := s.gateway.Schedule(ctx, plan); err != nil {
			s.metrics.ScheduleFailuresTotal.Inc()
			s.logger.Warn("notification_schedule_failed", zap.String("billId", bill.ID), zap.Error(err))
			continue
		}
		scheduled += len(plan)
	}
	s.logger.Debug("replan_completed", zap.Int("bills", len(bills)), zap.Int("instances", scheduled))
}

// Close stops any pending debounced replan.
func (s *ScheduleSupervisor) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *ScheduleSupervisor) requestReplan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(replanDebounce, func() {
		s.Replan(context.Background())
	})
}

func (s *ScheduleSupervisor) cancelBill(billID string) {
	if !s.gateway.IsAvailable() {
		return
	}
	if err := s.gateway.Cancel(context.Background(), planner.InstanceIDs(billID)); err != nil {
		s.logger.Warn("notification_cancel_failed", zap.String("billId", billID), zap.Error(err))
	}
}

// scheduleConfirmation fires the payment acknowledgement. Its instance
// id lies outside the per-bill plan id range, so the replan that
// follows a payment never cancels it.
func (s *ScheduleSupervisor) scheduleConfirmation(change Change) {
	if !s.gateway.IsAvailable() {
		return
	}
	ctx := context.Background()
	if !s.ensurePermission(ctx) {
		return
	}
	inst := planner.PaidConfirmation(*change.Bill, s.nowFunc())
	if err := s.gateway.Schedule(ctx, []models.NotificationInstance{inst}); err != nil {
		s.metrics.ScheduleFailuresTotal.Inc()
		s.logger.Warn("confirmation_schedule_failed", zap.String("billId", change.Bill.ID), zap.Error(err))
	}
}

// ensurePermission checks notification permission and requests it at
// most once per process. Without permission nothing is scheduled.
func (s *ScheduleSupervisor) ensurePermission(ctx context.Context) bool {
	granted, err := s.gateway.CheckPermission(ctx)
	if err != nil {
		s.logger.Warn("permission_check_failed", zap.Error(err))
		return false
	}
	if granted {
		return true
	}

	s.mu.Lock()
	alreadyAsked := s.permissionRequested
	s.permissionRequested = true
	s.mu.Unlock()
	if alreadyAsked {
		return false
	}

	granted, err = s.gateway.RequestPermission(ctx)
	if err != nil {
		s.logger.Warn("permission_request_failed", zap.Error(err))
		return false
	}
	if !granted {
		s.logger.Info("notification_permission_denied")
	}
	return granted
}
