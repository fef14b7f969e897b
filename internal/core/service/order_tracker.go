package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
	"github.com/agriconnect/marketplace-client/internal/pkg/metrics"
)

const orderResource = "orders"

// OrderTracker reconciles the rendered order list with the remote store using
// the same optimistic scheme as CartStore, keyed by order id.
type OrderTracker struct {
	gateway  ports.OrderGateway
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time
	loads    singleflight.Group

	mu       sync.Mutex
	seq      *sequencer
	snapshot domain.OrderSnapshot
	truthSeq uint64
	rendered []domain.Order
	pending  map[string]domain.OrderStatus
}

func NewOrderTracker(gateway ports.OrderGateway, notifier ports.Notifier, log zerolog.Logger) *OrderTracker {
	return &OrderTracker{
		gateway:  gateway,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		seq:      newSequencer(),
		pending:  make(map[string]domain.OrderStatus),
	}
}

// UpdateStatus moves an order to next, optimistically.
// Transitions not allowed by the order state machine are rejected before any remote call.
func (t *OrderTracker) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) error {
	t.mu.Lock()
	order, ok := findOrder(t.rendered, orderID)
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("update status %q: %w", orderID, domain.ErrOrderNotFound)
	}
	if !order.Status.CanTransitionTo(next) {
		t.mu.Unlock()
		return fmt.Errorf("update status: %w (from %s to %s)", domain.ErrInvalidTransition, order.Status, next)
	}

	tk := t.seq.issue(orderID)
	t.pending[orderID] = next
	t.rendered = overlayOrders(t.rendered, t.pending)
	t.mu.Unlock()

	t.log.Debug().Str("order_id", orderID).Str("from", string(order.Status)).Str("to", string(next)).Uint64("seq", tk.seq).Msg("order status change issued")

	var (
		updated *domain.Order
		err     error
	)
	if next == domain.OrderCancelled {
		updated, err = t.gateway.CancelOrder(ctx, orderID)
	} else {
		updated, err = t.gateway.SetOrderStatus(ctx, orderID, next)
	}
	return t.finish(ctx, tk, next, updated, err)
}

// Cancel moves an order to Cancelled through the cancel endpoint.
func (t *OrderTracker) Cancel(ctx context.Context, orderID string) error {
	return t.UpdateStatus(ctx, orderID, domain.OrderCancelled)
}

// Reload replaces the snapshot and the rendered list with the remote orders.
// A failed reload leaves state untouched.
func (t *OrderTracker) Reload(ctx context.Context) error {
	t.mu.Lock()
	key := fmt.Sprintf("%s:%d", orderResource, t.seq.epoch)
	t.mu.Unlock()

	_, err, _ := t.loads.Do(key, func() (any, error) {
		return nil, t.reload(ctx)
	})
	return err
}

func (t *OrderTracker) reload(ctx context.Context) error {
	t.mu.Lock()
	tk := t.seq.tick()
	t.mu.Unlock()

	orders, err := t.gateway.FetchOrders(ctx)
	if err != nil {
		metrics.ReloadsTotal.WithLabelValues(orderResource, "failed").Inc()
		t.log.Warn().Err(err).Msg("order reload failed")
		return fmt.Errorf("%w: orders: %w", domain.ErrLoadFailed, err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.seq.current(tk) || tk.seq < t.truthSeq {
		metrics.ReloadsTotal.WithLabelValues(orderResource, "stale").Inc()
		return nil
	}
	t.applyTruthLocked(orders, tk.seq)
	metrics.ReloadsTotal.WithLabelValues(orderResource, "applied").Inc()
	return nil
}

// Clear empties local state and invalidates in-flight responses.
func (t *OrderTracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq.reset()
	t.pending = make(map[string]domain.OrderStatus)
	t.rendered = nil
	t.truthSeq = 0
	t.snapshot = domain.OrderSnapshot{CapturedAt: t.now()}
}

// Snapshot returns a copy of the rendered order list.
func (t *OrderTracker) Snapshot() domain.OrderSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return domain.OrderSnapshot{
		Orders:     t.rendered,
		Version:    t.snapshot.Version,
		CapturedAt: t.snapshot.CapturedAt,
	}.Clone()
}

func (t *OrderTracker) finish(ctx context.Context, tk ticket, next domain.OrderStatus, updated *domain.Order, callErr error) error {
	orderID := tk.key
	kind := "status:" + string(next)

	t.mu.Lock()
	if !t.seq.current(tk) {
		cleared := t.seq.cleared(tk)
		t.mu.Unlock()
		if cleared && errors.Is(callErr, domain.ErrUnauthorized) {
			metrics.MutationsTotal.WithLabelValues(orderResource, kind, "unauthorized").Inc()
			return fmt.Errorf("order %s to %s: %w", orderID, next, callErr)
		}
		metrics.MutationsTotal.WithLabelValues(orderResource, kind, "superseded").Inc()
		t.log.Debug().Str("order_id", orderID).Uint64("seq", tk.seq).Msg("superseded order response discarded")
		return nil
	}
	t.seq.settle(tk)
	delete(t.pending, orderID)

	if callErr != nil {
		t.pending = make(map[string]domain.OrderStatus)
		t.rendered = t.snapshot.Clone().Orders
		t.mu.Unlock()

		metrics.MutationsTotal.WithLabelValues(orderResource, kind, "rolled_back").Inc()
		t.log.Warn().Err(callErr).Str("order_id", orderID).Msg("order status change rolled back")
		if t.notifier != nil {
			t.notifier.Notify(domain.Notice{
				Level:   domain.NoticeError,
				Source:  orderResource,
				Message: "We couldn't update the order status. The change was undone.",
				At:      t.now(),
			})
		}
		return fmt.Errorf("%w: order %s to %s: %w", domain.ErrMutationFailed, orderID, next, callErr)
	}

	if updated != nil && tk.seq >= t.truthSeq {
		t.patchTruthLocked(*updated, tk.seq)
		t.mu.Unlock()
		metrics.MutationsTotal.WithLabelValues(orderResource, kind, "committed").Inc()
		return nil
	}
	t.mu.Unlock()

	if err := t.reload(ctx); err != nil {
		t.log.Warn().Err(err).Str("order_id", orderID).Msg("reload after status change failed")
	}
	metrics.MutationsTotal.WithLabelValues(orderResource, kind, "committed").Inc()
	return nil
}

func (t *OrderTracker) applyTruthLocked(orders []domain.Order, seq uint64) {
	t.snapshot = domain.OrderSnapshot{
		Orders:     orders,
		Version:    t.snapshot.Version + 1,
		CapturedAt: t.now(),
	}.Clone()
	t.truthSeq = seq
	t.rendered = overlayOrders(t.snapshot.Orders, t.pending)
}

// patchTruthLocked replaces one order of the snapshot with the server's copy
// confirmed at seq. Reads issued before seq are stale from then on.
func (t *OrderTracker) patchTruthLocked(o domain.Order, seq uint64) {
	snap := t.snapshot.Clone()
	replaced := false
	for i := range snap.Orders {
		if snap.Orders[i].ID == o.ID {
			snap.Orders[i] = o
			replaced = true
		}
	}
	if !replaced {
		snap.Orders = append(snap.Orders, o)
	}
	snap.Version++
	snap.CapturedAt = t.now()
	t.snapshot = snap
	t.truthSeq = seq
	t.rendered = overlayOrders(snap.Orders, t.pending)
}

// overlayOrders returns a copy of orders with pending statuses applied.
func overlayOrders(orders []domain.Order, pending map[string]domain.OrderStatus) []domain.Order {
	out := domain.OrderSnapshot{Orders: orders}.Clone().Orders
	for i := range out {
		if st, ok := pending[out[i].ID]; ok {
			out[i].Status = st
		}
	}
	return out
}

func findOrder(orders []domain.Order, id string) (domain.Order, bool) {
	for _, o := range orders {
		if o.ID == id {
			return o, true
		}
	}
	return domain.Order{}, false
}
