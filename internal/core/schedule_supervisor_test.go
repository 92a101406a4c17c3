package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"billdue-backend-go/internal/metrics"
	"billdue-backend-go/internal/models"
	"billdue-backend-go/internal/planner"
)

type staticReader []models.Bill

func (r staticReader) Bills() []models.Bill { return append([]models.Bill(nil), r...) }

func newTestSupervisor(reader BillReader, gw *fakeGateway) *ScheduleSupervisor {
	s := NewScheduleSupervisor(reader, gw, zap.NewNop(), metrics.New())
	s.nowFunc = func() time.Time {
		return time.Date(2025, 1, 29, 15, 30, 0, 0, time.UTC)
	}
	return s
}

func TestReplanSchedulesUnpaidBills(t *testing.T) {
	bill := testBill("Rent")
	bill.ID = "bill-rent"
	gw := newFakeGateway()
	s := newTestSupervisor(staticReader{bill}, gw)

	s.Replan(context.Background())

	pending := gw.pendingIDs()
	require.Len(t, pending, 1)
	assert.Equal(t, planner.StableID(bill.ID, 0), pending[0])
}

func TestReplanSkipsPaidBills(t *testing.T) {
	bill := testBill("Rent")
	bill.ID = "bill-rent"
	bill.Frequency = models.FrequencyOneTime
	bill.IsPaid = true
	gw := newFakeGateway()
	s := newTestSupervisor(staticReader{bill}, gw)

	s.Replan(context.Background())

	assert.Empty(t, gw.pendingIDs())
	// The cancel set still covers the bill so a just-paid one-time bill
	// loses any leftover instances.
	assert.ElementsMatch(t, planner.InstanceIDs(bill.ID), gw.cancelled)
}

func TestReplanIsIdempotent(t *testing.T) {
	bill := testBill("Rent")
	bill.ID = "bill-rent"
	bill.NotifyUntilPaid = true
	gw := newFakeGateway()
	s := newTestSupervisor(staticReader{bill}, gw)

	s.Replan(context.Background())
	first := gw.pendingIDs()
	s.Replan(context.Background())
	second := gw.pendingIDs()

	assert.ElementsMatch(t, first, second)
	assert.Len(t, second, 13)
}

func TestReplanNoopsWhenGatewayUnavailable(t *testing.T) {
	bill := testBill("Rent")
	bill.ID = "bill-rent"
	gw := newFakeGateway()
	gw.available = false
	s := newTestSupervisor(staticReader{bill}, gw)

	s.Replan(context.Background())

	assert.Empty(t, gw.pendingIDs())
	assert.Empty(t, gw.cancelled)
}

func TestReplanRequestsPermissionOnce(t *testing.T) {
	bill := testBill("Rent")
	bill.ID = "bill-rent"
	gw := newFakeGateway()
	gw.granted = false
	s := newTestSupervisor(staticReader{bill}, gw)

	s.Replan(context.Background())
	s.Replan(context.Background())

	assert.Equal(t, 1, gw.requests)
	assert.Empty(t, gw.pendingIDs())
}

func TestOnChangePaidCancelsPlanAndConfirms(t *testing.T) {
	bill := testBill("Rent")
	bill.ID = "bill-rent"
	gw := newFakeGateway()
	s := newTestSupervisor(staticReader{}, gw)

	s.Replan(context.Background())
	s.OnChange(Change{Kind: ChangeBillPaid, Bill: &bill})
	s.Close()

	for _, id := range planner.InstanceIDs(bill.ID) {
		assert.Contains(t, gw.cancelled, id)
	}
	pending := gw.pendingIDs()
	require.Len(t, pending, 1)
	inst := planner.PaidConfirmation(bill, s.nowFunc())
	assert.Equal(t, inst.ID, pending[0])
	assert.NotContains(t, planner.InstanceIDs(bill.ID), pending[0])
}

func TestOnChangeDeletedCancelsPlan(t *testing.T) {
	bill := testBill("Water")
	bill.ID = "bill-water"
	gw := newFakeGateway()
	s := newTestSupervisor(staticReader{}, gw)

	s.OnChange(Change{Kind: ChangeBillDeleted, Bill: &bill})
	s.Close()

	assert.ElementsMatch(t, planner.InstanceIDs(bill.ID), gw.cancelled)
}

func TestOnChangeSettingsDoesNotReplan(t *testing.T) {
	bill := testBill("Rent")
	bill.ID = "bill-rent"
	gw := newFakeGateway()
	s := newTestSupervisor(staticReader{bill}, gw)

	s.OnChange(Change{Kind: ChangeSettingsUpdated})
	time.Sleep(2 * replanDebounce)
	s.Close()

	assert.Empty(t, gw.pendingIDs())
}

func TestOnChangeDebouncesBursts(t *testing.T) {
	bill := testBill("Rent")
	bill.ID = "bill-rent"
	gw := newFakeGateway()
	m := metrics.New()
	s := NewScheduleSupervisor(staticReader{bill}, gw, zap.NewNop(), m)
	s.nowFunc = func() time.Time {
		return time.Date(2025, 1, 29, 15, 30, 0, 0, time.UTC)
	}
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.OnChange(Change{Kind: ChangeBillUpdated, Bill: &bill})
	}

	require.Eventually(t, func() bool {
		return len(gw.pendingIDs()) == 1
	}, time.Second, 10*time.Millisecond)

	// A burst of changes inside the debounce window collapses into one
	// replan cycle.
	time.Sleep(2 * replanDebounce)
	assert.Len(t, gw.pendingIDs(), 1)
}

func TestCloseStopsPendingReplan(t *testing.T) {
	bill := testBill("Rent")
	bill.ID = "bill-rent"
	gw := newFakeGateway()
	s := newTestSupervisor(staticReader{bill}, gw)

	s.OnChange(Change{Kind: ChangeBillCreated, Bill: &bill})
	s.Close()
	time.Sleep(2 * replanDebounce)

	assert.Empty(t, gw.pendingIDs())
}
