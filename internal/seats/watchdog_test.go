package seats

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestWatchdogReleasesLapsedHolds(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// jump the clock past the deadline before the first tick
	engine.now = func() time.Time { return t0.Add(301 * time.Second) }

	var mu sync.Mutex
	var notified []Seat
	watchdog := NewWatchdog(engine, &WatchdogConfig{TickInterval: 10 * time.Millisecond})
	watchdog.OnExpired(func(ctx context.Context, released []Seat) {
		mu.Lock()
		notified = append(notified, released...)
		mu.Unlock()
	})

	watchdog.Start(ctx)
	defer watchdog.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		seat, err := store.Get(ctx, "t1-s1")
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if seat.Status == StatusAvailable {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("watchdog never released the hold: %+v", seat)
		}
		time.Sleep(5 * time.Millisecond)
	}

	deadline = time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(notified)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("OnExpired callback never fired")
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if notified[0].ID != "t1-s1" {
		t.Fatalf("unexpected released seat: %+v", notified[0])
	}
}

func TestWatchdogLeavesLiveHoldsAlone(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	watchdog := NewWatchdog(engine, &WatchdogConfig{TickInterval: 10 * time.Millisecond})
	watchdog.Start(ctx)
	defer watchdog.Stop()

	time.Sleep(50 * time.Millisecond)

	seat, err := store.Get(ctx, "t1-s1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if seat.Status != StatusCheckout || !seat.IsLockedBy("sess-1") {
		t.Fatalf("live hold was disturbed: %+v", seat)
	}
}

func TestWatchdogStatus(t *testing.T) {
	engine, _ := newTestEngine(t)
	watchdog := NewWatchdog(engine, nil)
	status := watchdog.Status()
	if status["tick_interval"] != "1s" {
		t.Fatalf("unexpected default tick interval: %v", status["tick_interval"])
	}
}
