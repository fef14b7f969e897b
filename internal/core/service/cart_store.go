package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
	"github.com/agriconnect/marketplace-client/internal/core/ports"
	"github.com/agriconnect/marketplace-client/internal/pkg/metrics"
)

const cartResource = "cart"

// CartStore keeps the rendered cart in sync with the remote cart.
//
// Every mutation is applied to the rendered cart immediately, then sent to the
// gateway. The response to the most recently issued mutation for a product
// replaces the rendered cart with the authoritative one; a failure restores
// the last server snapshot in full. Responses to superseded mutations are
// dropped. Pending intents are re-applied on top of any server truth that
// arrives while they are still in flight.
type CartStore struct {
	gateway  ports.CartGateway
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time
	loads    singleflight.Group

	mu       sync.Mutex
	seq      *sequencer
	snapshot domain.CartSnapshot
	truthSeq uint64
	rendered []domain.CartLine
	pending  map[string]domain.PendingMutation
}

// NewCartStore returns an empty CartStore. Call Reload to populate it.
func NewCartStore(gateway ports.CartGateway, notifier ports.Notifier, log zerolog.Logger) *CartStore {
	return &CartStore{
		gateway:  gateway,
		notifier: notifier,
		log:      log,
		now:      time.Now,
		seq:      newSequencer(),
		pending:  make(map[string]domain.PendingMutation),
	}
}

// cartOp is a mutation that has been applied optimistically and awaits its response.
type cartOp struct {
	mutation domain.PendingMutation
	ticket   ticket
}

// AddItem increments the line for product, inserting it when absent.
func (s *CartStore) AddItem(ctx context.Context, product domain.Product, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("add item: %w", domain.ErrInvalidQuantity)
	}
	if product.ID == "" {
		return fmt.Errorf("add item: %w", domain.ErrInvalidProduct)
	}

	s.mu.Lock()
	line, found := findByProduct(s.rendered, product.ID)
	if !found {
		line = domain.LineFromProduct(product, 0)
	}
	line.Quantity += quantity
	op := s.beginLocked(domain.MutationAdd, line)
	s.mu.Unlock()

	payload, err := s.gateway.AddLine(ctx, product.ID, quantity)
	return s.finish(ctx, op, payload, err)
}

// UpdateQuantity changes a persisted line by delta. The result is clamped at
// zero, and zero removes the line. The remote call carries the absolute quantity.
func (s *CartStore) UpdateQuantity(ctx context.Context, lineID string, delta int) error {
	s.mu.Lock()
	line, found := findByLineID(s.rendered, lineID)
	if !found {
		s.mu.Unlock()
		return fmt.Errorf("update quantity %q: %w", lineID, domain.ErrLineNotFound)
	}

	desired := max(line.Quantity+delta, 0)
	if desired == line.Quantity {
		s.mu.Unlock()
		return nil
	}

	kind := domain.MutationSetQuantity
	if desired == 0 {
		kind = domain.MutationRemove
	}
	line.Quantity = desired
	op := s.beginLocked(kind, line)
	s.mu.Unlock()

	var (
		payload *ports.CartPayload
		err     error
	)
	if kind == domain.MutationRemove {
		payload, err = s.gateway.RemoveLine(ctx, lineID)
	} else {
		payload, err = s.gateway.SetLineQuantity(ctx, lineID, desired)
	}
	return s.finish(ctx, op, payload, err)
}

// Reload replaces the snapshot and the rendered cart with the remote cart.
// Concurrent calls share one fetch. A failed reload leaves state untouched.
func (s *CartStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	key := fmt.Sprintf("%s:%d", cartResource, s.seq.epoch)
	s.mu.Unlock()

	_, err, _ := s.loads.Do(key, func() (any, error) {
		return nil, s.reload(ctx)
	})
	return err
}

func (s *CartStore) reload(ctx context.Context) error {
	s.mu.Lock()
	t := s.seq.tick()
	s.mu.Unlock()

	payload, err := s.gateway.FetchCart(ctx)
	if err != nil {
		metrics.ReloadsTotal.WithLabelValues(cartResource, "failed").Inc()
		s.log.Warn().Err(err).Msg("cart reload failed")
		return fmt.Errorf("%w: cart: %w", domain.ErrLoadFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.seq.current(t) || t.seq < s.truthSeq {
		metrics.ReloadsTotal.WithLabelValues(cartResource, "stale").Inc()
		s.log.Debug().Uint64("seq", t.seq).Uint64("truth_seq", s.truthSeq).Msg("stale cart reload discarded")
		return nil
	}
	s.applyTruthLocked(normalizeCart(payload), t.seq)
	metrics.ReloadsTotal.WithLabelValues(cartResource, "applied").Inc()
	return nil
}

// Clear empties local state without a remote call and invalidates every
// in-flight response. Used on logout.
func (s *CartStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq.reset()
	s.pending = make(map[string]domain.PendingMutation)
	s.rendered = nil
	s.truthSeq = 0
	s.snapshot = domain.CartSnapshot{CapturedAt: s.now()}
}

// Snapshot returns a copy of the rendered cart.
func (s *CartStore) Snapshot() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CartSnapshot{
		Lines:      append([]domain.CartLine(nil), s.rendered...),
		Version:    s.snapshot.Version,
		CapturedAt: s.snapshot.CapturedAt,
	}
}

// Truth returns a copy of the last known server cart.
func (s *CartStore) Truth() domain.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// Pending returns the number of mutations awaiting a response.
func (s *CartStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *CartStore) beginLocked(kind domain.MutationKind, line domain.CartLine) cartOp {
	t := s.seq.issue(line.ProductID)
	m := domain.PendingMutation{
		ID:              uuid.NewString(),
		Kind:            kind,
		TargetLineID:    line.LineID,
		TargetProductID: line.ProductID,
		DesiredQuantity: line.Quantity,
		AppliedAt:       t.seq,
		Line:            line,
	}
	s.pending[line.ProductID] = m
	s.rendered = overlay(s.rendered, m)

	s.log.Debug().
		Str("mutation_id", m.ID).
		Str("kind", string(kind)).
		Str("product_id", line.ProductID).
		Int("quantity", line.Quantity).
		Uint64("seq", t.seq).
		Msg("cart mutation issued")
	return cartOp{mutation: m, ticket: t}
}

// finish resolves op against its response. Superseded responses are dropped
// whatever their outcome; the newer mutation owns the line. A mutation whose
// credential was rejected, and whose store was cleared for it, reports
// ErrUnauthorized instead.
func (s *CartStore) finish(ctx context.Context, op cartOp, payload *ports.CartPayload, callErr error) error {
	m := op.mutation
	kind := string(m.Kind)

	s.mu.Lock()
	if !s.seq.current(op.ticket) {
		cleared := s.seq.cleared(op.ticket)
		s.mu.Unlock()
		if cleared && errors.Is(callErr, domain.ErrUnauthorized) {
			metrics.MutationsTotal.WithLabelValues(cartResource, kind, "unauthorized").Inc()
			return fmt.Errorf("%s %s: %w", kind, m.TargetProductID, callErr)
		}
		metrics.MutationsTotal.WithLabelValues(cartResource, kind, "superseded").Inc()
		s.log.Debug().Str("mutation_id", m.ID).Uint64("seq", m.AppliedAt).Msg("superseded cart response discarded")
		return nil
	}
	s.seq.settle(op.ticket)
	delete(s.pending, m.TargetProductID)

	if callErr != nil {
		s.rollbackLocked()
		s.mu.Unlock()

		metrics.MutationsTotal.WithLabelValues(cartResource, kind, "rolled_back").Inc()
		s.log.Warn().Err(callErr).Str("mutation_id", m.ID).Str("product_id", m.TargetProductID).Msg("cart mutation rolled back")
		s.notify("We couldn't update your cart. Your last changes were undone.")
		return fmt.Errorf("%w: %s %s: %w", domain.ErrMutationFailed, kind, m.TargetProductID, callErr)
	}

	if payload != nil && m.AppliedAt >= s.truthSeq {
		s.applyTruthLocked(normalizeCart(payload), m.AppliedAt)
		s.mu.Unlock()
		s.committed(m)
		return nil
	}
	s.mu.Unlock()

	// No cart in the response, or a newer read already landed: fetch fresh
	// truth issued after the commit rather than joining an older flight.
	if err := s.reload(ctx); err != nil {
		s.log.Warn().Err(err).Str("mutation_id", m.ID).Msg("reload after commit failed")
	}
	s.committed(m)
	return nil
}

func (s *CartStore) committed(m domain.PendingMutation) {
	metrics.MutationsTotal.WithLabelValues(cartResource, string(m.Kind), "committed").Inc()
	s.log.Info().Str("mutation_id", m.ID).Str("kind", string(m.Kind)).Str("product_id", m.TargetProductID).Msg("cart mutation committed")
}

// rollbackLocked restores the last server snapshot in full. Other optimistic
// intents are dropped too; their own responses still reconcile when they land.
func (s *CartStore) rollbackLocked() {
	s.pending = make(map[string]domain.PendingMutation)
	s.rendered = append([]domain.CartLine(nil), s.snapshot.Lines...)
}

func (s *CartStore) applyTruthLocked(lines []domain.CartLine, seq uint64) {
	s.snapshot = domain.CartSnapshot{
		Lines:      lines,
		Version:    s.snapshot.Version + 1,
		CapturedAt: s.now(),
	}
	s.truthSeq = seq
	s.rendered = overlayAll(lines, s.pending)
}

func (s *CartStore) notify(msg string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(domain.Notice{
		Level:   domain.NoticeError,
		Source:  cartResource,
		Message: msg,
		At:      s.now(),
	})
}

func findByProduct(lines []domain.CartLine, productID string) (domain.CartLine, bool) {
	for _, l := range lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return domain.CartLine{}, false
}

func findByLineID(lines []domain.CartLine, lineID string) (domain.CartLine, bool) {
	if lineID == "" {
		return domain.CartLine{}, false
	}
	for _, l := range lines {
		if l.LineID == lineID {
			return l, true
		}
	}
	return domain.CartLine{}, false
}
