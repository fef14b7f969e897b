package service

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agriconnect/marketplace-client/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Shared helpers
// ---------------------------------------------------------------------------

var discardLogger = zerolog.Nop()

type stubNotifier struct {
	mu      sync.Mutex
	notices []domain.Notice
}

func (n *stubNotifier) Notify(notice domain.Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
}

func (n *stubNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}

// async runs fn on its own goroutine and delivers its result.
func async(fn func() error) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- fn() }()
	return ch
}

func await(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatalf("operation did not complete")
		return nil
	}
}

// heldCall is a remote call parked until the test releases it.
type heldCall struct {
	method  string
	key     string
	release chan struct{}
}

func (c *heldCall) done() { close(c.release) }

func nextHeld(t *testing.T, held <-chan *heldCall) *heldCall {
	t.Helper()
	select {
	case c := <-held:
		return c
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a remote call")
		return nil
	}
}
