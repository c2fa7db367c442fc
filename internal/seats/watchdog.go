package seats

import (
	"context"
	"log"
	"time"
)

// Watchdog is the hold-expiry background job. One ticker drives the whole
// hall; expiry itself is computed lazily from each seat's lockedAt, so a
// missed tick only delays cleanup, it never loses a hold.
type Watchdog struct {
	engine    *Engine
	config    *WatchdogConfig
	done      chan struct{}
	onExpired func(ctx context.Context, released []Seat)
}

// WatchdogConfig contains configuration for the expiry job
type WatchdogConfig struct {
	TickInterval time.Duration
}

// DefaultWatchdogConfig returns default watchdog configuration
func DefaultWatchdogConfig() *WatchdogConfig {
	return &WatchdogConfig{
		TickInterval: 1 * time.Second,
	}
}

// NewWatchdog creates a new expiry watchdog
func NewWatchdog(engine *Engine, config *WatchdogConfig) *Watchdog {
	if config == nil {
		config = DefaultWatchdogConfig()
	}
	return &Watchdog{
		engine: engine,
		config: config,
		done:   make(chan struct{}),
	}
}

// OnExpired registers a callback invoked with the seats released on each
// tick. Must be called before Start.
func (w *Watchdog) OnExpired(fn func(ctx context.Context, released []Seat)) {
	w.onExpired = fn
}

// Start starts the expiry loop in its own goroutine
func (w *Watchdog) Start(ctx context.Context) {
	log.Println("Starting seat hold expiry watchdog...")
	go w.run(ctx)
}

// Stop stops the watchdog
func (w *Watchdog) Stop() {
	log.Println("Stopping seat hold expiry watchdog...")
	close(w.done)
}

func (w *Watchdog) run(ctx context.Context) {
	ticker := time.NewTicker(w.config.TickInterval)
	defer ticker.Stop()

	log.Printf("Started hold expiry watchdog with %v interval", w.config.TickInterval)

	for {
		select {
		case <-ticker.C:
			w.tick(ctx)
		case <-w.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// tick releases every lapsed hold. Errors are logged and retried on the
// next tick.
func (w *Watchdog) tick(ctx context.Context) {
	released, err := w.engine.ReleaseExpired(ctx)
	if err != nil {
		log.Printf("Error releasing expired holds: %v", err)
		return
	}
	if len(released) > 0 {
		log.Printf("Released %d expired seat holds", len(released))
		if w.onExpired != nil {
			w.onExpired(ctx, released)
		}
	}
}

// Status returns the watchdog's configuration for health reporting
func (w *Watchdog) Status() map[string]interface{} {
	return map[string]interface{}{
		"tick_interval": w.config.TickInterval.String(),
		"status":        "running",
	}
}
