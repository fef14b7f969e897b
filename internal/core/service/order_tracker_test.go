package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Stub remote orders
// ---------------------------------------------------------------------------

type stubOrderGateway struct {
	mu        sync.Mutex
	orders    []domain.Order
	err       error
	fetchErr  error
	omitOrder bool
	calls     []string
	held      chan *heldCall
	fetchHeld chan *heldCall
	fetches   int
}

func (g *stubOrderGateway) FetchOrders(_ context.Context) ([]domain.Order, error) {
	g.mu.Lock()
	g.fetches++
	if g.fetchErr != nil {
		g.mu.Unlock()
		return nil, g.fetchErr
	}
	orders := append([]domain.Order(nil), g.orders...)
	held := g.fetchHeld
	g.fetchHeld = nil
	g.mu.Unlock()

	if held != nil {
		c := &heldCall{method: "fetch", release: make(chan struct{})}
		held <- c
		<-c.release
	}
	return orders, nil
}

func (g *stubOrderGateway) holdNextFetch() chan *heldCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fetchHeld = make(chan *heldCall)
	return g.fetchHeld
}

func (g *stubOrderGateway) fetchCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fetches
}

func (g *stubOrderGateway) SetOrderStatus(_ context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	return g.change("status", orderID, status)
}

func (g *stubOrderGateway) CancelOrder(_ context.Context, orderID string) (*domain.Order, error) {
	return g.change("cancel", orderID, domain.OrderCancelled)
}

func (g *stubOrderGateway) change(method, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	g.mu.Lock()
	g.calls = append(g.calls, method)
	err := g.err
	var updated *domain.Order
	if err == nil {
		for i := range g.orders {
			if g.orders[i].ID == orderID {
				g.orders[i].Status = status
				if !g.omitOrder {
					o := g.orders[i]
					updated = &o
				}
			}
		}
	}
	held := g.held
	g.mu.Unlock()

	if held != nil {
		c := &heldCall{method: method, key: orderID, release: make(chan struct{})}
		held <- c
		<-c.release
	}
	return updated, err
}

func newLoadedTracker(t *testing.T, gw *stubOrderGateway) (*OrderTracker, *stubNotifier) {
	t.Helper()
	notifier := &stubNotifier{}
	tracker := NewOrderTracker(gw, notifier, discardLogger)
	if err := tracker.Reload(context.Background()); err != nil {
		t.Fatalf("initial reload: %v", err)
	}
	return tracker, notifier
}

func statusOf(s domain.OrderSnapshot, id string) domain.OrderStatus {
	o, _ := s.OrderByID(id)
	return o.Status
}

func sampleOrders() []domain.Order {
	return []domain.Order{
		{ID: "o1", OrderNumber: "ORD-1", Status: domain.OrderPending, Total: 12},
		{ID: "o2", OrderNumber: "ORD-2", Status: domain.OrderDelivered, Total: 8},
	}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestOrderTracker_UpdateStatus_Commits(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders()}
	tracker, _ := newLoadedTracker(t, gw)

	if err := tracker.UpdateStatus(context.Background(), "o1", domain.OrderConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if st := statusOf(tracker.Snapshot(), "o1"); st != domain.OrderConfirmed {
		t.Errorf("expected Confirmed, got %q", st)
	}
	if gw.calls[0] != "status" {
		t.Errorf("expected status call, got %q", gw.calls[0])
	}
}

func TestOrderTracker_UpdateStatus_InvalidTransition(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders()}
	tracker, _ := newLoadedTracker(t, gw)

	err := tracker.UpdateStatus(context.Background(), "o2", domain.OrderPending)
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(gw.calls) != 0 {
		t.Errorf("rejected transition must not reach the remote")
	}
}

func TestOrderTracker_UpdateStatus_UnknownOrder(t *testing.T) {
	tracker, _ := newLoadedTracker(t, &stubOrderGateway{orders: sampleOrders()})

	err := tracker.UpdateStatus(context.Background(), "missing", domain.OrderConfirmed)
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderTracker_Cancel_UsesCancelEndpoint(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders()}
	tracker, _ := newLoadedTracker(t, gw)

	if err := tracker.Cancel(context.Background(), "o1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gw.calls[0] != "cancel" {
		t.Errorf("expected cancel call, got %q", gw.calls[0])
	}
	if st := statusOf(tracker.Snapshot(), "o1"); st != domain.OrderCancelled {
		t.Errorf("expected Cancelled, got %q", st)
	}
}

func TestOrderTracker_FailureRollsBack(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders()}
	tracker, notifier := newLoadedTracker(t, gw)
	gw.err = errNetwork
	held := make(chan *heldCall)
	gw.held = held

	done := async(func() error { return tracker.UpdateStatus(context.Background(), "o1", domain.OrderConfirmed) })
	call := nextHeld(t, held)
	if st := statusOf(tracker.Snapshot(), "o1"); st != domain.OrderConfirmed {
		t.Fatalf("expected optimistic Confirmed, got %q", st)
	}

	call.done()
	if err := await(t, done); !errors.Is(err, domain.ErrMutationFailed) {
		t.Fatalf("expected ErrMutationFailed, got %v", err)
	}
	if st := statusOf(tracker.Snapshot(), "o1"); st != domain.OrderPending {
		t.Errorf("expected rollback to Pending, got %q", st)
	}
	if notifier.count() != 1 {
		t.Errorf("expected one notice, got %d", notifier.count())
	}
}

func TestOrderTracker_SupersededResponseDropped(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders()}
	tracker, _ := newLoadedTracker(t, gw)
	held := make(chan *heldCall)
	gw.held = held
	ctx := context.Background()

	first := async(func() error { return tracker.UpdateStatus(ctx, "o1", domain.OrderConfirmed) })
	firstCall := nextHeld(t, held)
	second := async(func() error { return tracker.UpdateStatus(ctx, "o1", domain.OrderOutForDelivery) })
	secondCall := nextHeld(t, held)

	secondCall.done()
	if err := await(t, second); err != nil {
		t.Fatalf("second: %v", err)
	}
	firstCall.done()
	if err := await(t, first); err != nil {
		t.Fatalf("first: %v", err)
	}

	if st := statusOf(tracker.Snapshot(), "o1"); st != domain.OrderOutForDelivery {
		t.Errorf("late superseded response reverted status to %q", st)
	}
}

func TestOrderTracker_ReloadStartedBeforeCommitIsDiscarded(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders()}
	tracker, _ := newLoadedTracker(t, gw)
	ctx := context.Background()
	fetch := gw.holdNextFetch()

	reloaded := async(func() error { return tracker.Reload(ctx) })
	call := nextHeld(t, fetch)

	if err := tracker.UpdateStatus(ctx, "o1", domain.OrderConfirmed); err != nil {
		t.Fatalf("update: %v", err)
	}

	call.done()
	if err := await(t, reloaded); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if st := statusOf(tracker.Snapshot(), "o1"); st != domain.OrderConfirmed {
		t.Errorf("older reload reverted the committed status to %q", st)
	}
}

func TestOrderTracker_CommitOlderThanTruthFetchesFreshList(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders()}
	tracker, _ := newLoadedTracker(t, gw)
	held := make(chan *heldCall)
	gw.held = held
	ctx := context.Background()

	done := async(func() error { return tracker.UpdateStatus(ctx, "o1", domain.OrderConfirmed) })
	call := nextHeld(t, held)

	if err := tracker.Reload(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}

	// Moved on elsewhere after the reload; the parked response still says Confirmed.
	gw.mu.Lock()
	gw.orders[0].Status = domain.OrderOutForDelivery
	gw.mu.Unlock()
	fetches := gw.fetchCount()

	call.done()
	if err := await(t, done); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := gw.fetchCount(); n != fetches+1 {
		t.Errorf("expected one fresh fetch after the late commit, got %d", n-fetches)
	}
	if st := statusOf(tracker.Snapshot(), "o1"); st != domain.OrderOutForDelivery {
		t.Errorf("expected fresh status Out for Delivery, got %q", st)
	}
}

func TestOrderTracker_RejectedCredentialReportsUnauthorized(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders(), err: domain.ErrUnauthorized}
	tracker, notifier := newLoadedTracker(t, gw)
	held := make(chan *heldCall)
	gw.held = held

	done := async(func() error { return tracker.UpdateStatus(context.Background(), "o1", domain.OrderConfirmed) })
	call := nextHeld(t, held)

	tracker.Clear()
	call.done()

	err := await(t, done)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if notifier.count() != 0 {
		t.Errorf("expected no notice, got %d", notifier.count())
	}
	if n := len(tracker.Snapshot().Orders); n != 0 {
		t.Errorf("expected cleared orders, got %d", n)
	}
}

func TestOrderTracker_ResponseWithoutOrderReloads(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders(), omitOrder: true}
	tracker, _ := newLoadedTracker(t, gw)

	if err := tracker.UpdateStatus(context.Background(), "o1", domain.OrderConfirmed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st := statusOf(tracker.Snapshot(), "o1"); st != domain.OrderConfirmed {
		t.Errorf("expected reloaded Confirmed, got %q", st)
	}
}

func TestOrderTracker_ReloadFailureKeepsState(t *testing.T) {
	gw := &stubOrderGateway{orders: sampleOrders()}
	tracker, _ := newLoadedTracker(t, gw)
	gw.fetchErr = errNetwork

	if err := tracker.Reload(context.Background()); !errors.Is(err, domain.ErrLoadFailed) {
		t.Fatalf("expected ErrLoadFailed, got %v", err)
	}
	if n := len(tracker.Snapshot().Orders); n != 2 {
		t.Errorf("expected 2 orders kept, got %d", n)
	}
}

func TestOrderTracker_Clear(t *testing.T) {
	tracker, _ := newLoadedTracker(t, &stubOrderGateway{orders: sampleOrders()})

	tracker.Clear()

	if n := len(tracker.Snapshot().Orders); n != 0 {
		t.Errorf("expected no orders after clear, got %d", n)
	}
}
