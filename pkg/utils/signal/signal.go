package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	baseCtx context.Context
	mu      sync.RWMutex
)

// SetupContext returns a context that is cancelled on SIGINT or SIGTERM and makes
// it the base context of background goroutines.
func SetupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	mu.Lock()
	baseCtx = ctx
	mu.Unlock()
	return ctx, cancel
}

func GetBaseContext() context.Context {
	mu.RLock()
	defer mu.RUnlock()
	if baseCtx == nil {
		return context.Background()
	}
	return baseCtx
}
