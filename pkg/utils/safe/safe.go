package safe

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/masteryyh/vidtube/pkg/utils/signal"
)

type goroutineKey struct{}

// GoroutineName returns the name given to GoSafe, if ctx came from it.
func GoroutineName(ctx context.Context) string {
	name, _ := ctx.Value(goroutineKey{}).(string)
	return name
}

func GoSafe(name string, fn func(ctx context.Context)) {
	GoSafeWithCtx(name, nil, fn)
}

// GoSafeWithCtx runs fn in a goroutine and restarts it after a panic until ctx is done.
// A nil ctx means the process base context.
func GoSafeWithCtx(name string, ctx context.Context, fn func(ctx context.Context)) {
	if ctx == nil {
		ctx = signal.GetBaseContext()
	}

	go func() {
		for {
			runCtx, cancel := context.WithCancel(context.WithValue(ctx, goroutineKey{}, name))
			panicked := run(runCtx, name, fn)
			cancel()

			if !panicked || ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
		}
	}()
}

func run(ctx context.Context, name string, fn func(ctx context.Context)) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			slog.ErrorContext(ctx, "recovered from panic, restarting", "goroutine", name, "error", r, "stack", string(debug.Stack()))
		}
	}()
	fn(ctx)
	return false
}
