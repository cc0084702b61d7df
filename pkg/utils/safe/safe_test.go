package safe

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoSafeRestartsAfterPanic(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	done := make(chan string, 1)
	GoSafeWithCtx("worker", ctx, func(ctx context.Context) {
		if runs.Add(1) == 1 {
			panic("boom")
		}
		done <- GoroutineName(ctx)
	})

	select {
	case name := <-done:
		if name != "worker" {
			t.Fatalf("expected goroutine name 'worker', got '%s'", name)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected goroutine to be restarted")
	}
	if runs.Load() != 2 {
		t.Fatalf("expected 2 runs, got %d", runs.Load())
	}
}

func TestGoSafeStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var runs atomic.Int32
	GoSafeWithCtx("worker", ctx, func(ctx context.Context) {
		runs.Add(1)
		panic("boom")
	})

	time.Sleep(1200 * time.Millisecond)
	if runs.Load() != 1 {
		t.Fatalf("expected a single run after cancellation, got %d", runs.Load())
	}
}
