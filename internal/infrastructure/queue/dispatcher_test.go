package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDispatcher_PreservesOrderPerKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(3, zerolog.Nop())
	d.Start(ctx)

	var (
		mu  sync.Mutex
		got []int
		wg  sync.WaitGroup
	)
	for i := 0; i < 10; i++ {
		i := i
		wg.Add(1)
		d.Enqueue(Job{Key: "cart", Run: func(context.Context) error {
			defer wg.Done()
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
			return nil
		}})
	}
	wg.Wait()

	for i, v := range got {
		if v != i {
			t.Fatalf("expected in-order execution, got %v", got)
		}
	}
}

func TestDispatcher_SameKeySameShard(t *testing.T) {
	d := NewDispatcher(8, zerolog.Nop())
	if d.shardIndex("orders") != d.shardIndex("orders") {
		t.Fatal("shard index must be deterministic")
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	d := NewDispatcher(1, zerolog.Nop())
	// Not started: nothing drains the buffer.
	noop := Job{Key: "cart", Run: func(context.Context) error { return nil }}
	for i := 0; i < channelBuffer; i++ {
		if !d.Enqueue(noop) {
			t.Fatalf("enqueue %d rejected before the buffer was full", i)
		}
	}
	if d.Enqueue(noop) {
		t.Fatal("expected job to be dropped when the buffer is full")
	}
}

func TestDispatcher_FailingJobDoesNotStopWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := NewDispatcher(1, zerolog.Nop())
	d.Start(ctx)

	done := make(chan struct{})
	d.Enqueue(Job{Key: "orders", Run: func(context.Context) error { return errors.New("remote down") }})
	d.Enqueue(Job{Key: "orders", Run: func(context.Context) error { close(done); return nil }})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker stopped after a failing job")
	}
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(1, zerolog.Nop())
	d.Start(ctx)
	cancel()

	ran := make(chan struct{}, 1)
	// Give the worker a moment to observe cancellation.
	time.Sleep(20 * time.Millisecond)
	d.Enqueue(Job{Key: "cart", Run: func(context.Context) error { ran <- struct{}{}; return nil }})

	select {
	case <-ran:
		t.Fatal("job ran after the dispatcher was cancelled")
	case <-time.After(100 * time.Millisecond):
	}
}
