package debounce

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerCoalescesBurst(t *testing.T) {
	d := New(30 * time.Millisecond)
	defer d.Close()

	var mu sync.Mutex
	var ran []string
	var superseded int32
	d.OnSupersede(func() { atomic.AddInt32(&superseded, 1) })

	for _, q := range []string{"a", "ab", "abc"} {
		q := q
		d.Trigger(func(ctx context.Context, gen uint64) {
			mu.Lock()
			ran = append(ran, q)
			mu.Unlock()
		})
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("wait failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(ran) != 1 || ran[0] != "abc" {
		t.Fatalf("expected exactly one run with abc, got %v", ran)
	}
	if atomic.LoadInt32(&superseded) != 2 {
		t.Fatalf("expected 2 superseded triggers, got %d", superseded)
	}
}

func TestSupersededRunIsCancelled(t *testing.T) {
	d := New(0)
	defer d.Close()

	started := make(chan struct{})
	cancelled := make(chan struct{})
	first := d.Now(func(ctx context.Context, gen uint64) {
		close(started)
		<-ctx.Done()
		close(cancelled)
	})
	<-started

	second := d.Now(func(ctx context.Context, gen uint64) {})
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatalf("first run should observe cancellation")
	}
	if d.IsCurrent(first) || !d.IsCurrent(second) {
		t.Fatalf("generation gate mismatch: first=%d second=%d current=%d", first, second, d.Generation())
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("wait failed: %v", err)
	}
	if d.Pending() {
		t.Fatalf("debouncer should be settled")
	}
}

func TestWaitWithoutTriggerReturnsImmediately(t *testing.T) {
	d := New(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("wait on idle debouncer should not block: %v", err)
	}
}

func TestCloseCancelsPendingAndRejectsNewWork(t *testing.T) {
	d := New(time.Hour)
	var ran int32
	d.Trigger(func(ctx context.Context, gen uint64) { atomic.AddInt32(&ran, 1) })

	done := make(chan error, 1)
	go func() { done <- d.Wait(context.Background()) }()
	d.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("wait should return nil after close: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("close should release waiters")
	}
	if gen := d.Trigger(func(ctx context.Context, gen uint64) { atomic.AddInt32(&ran, 1) }); gen != 0 {
		t.Fatalf("trigger after close should return 0, got %d", gen)
	}
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&ran) != 0 {
		t.Fatalf("no work should run after close")
	}
}
