package seats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hallbook/internal/registration"
	"hallbook/pkg/logger"
)

func newTestEngine(t *testing.T) (*Engine, *MemStore) {
	t.Helper()
	store := NewMemStore(testHall())
	engine := NewEngine(store, testHall(), logger.New())
	return engine, store
}

func studentEntry(seatID, name string) RegistrationEntry {
	return RegistrationEntry{
		SeatID: seatID,
		Details: registration.Details{
			Category:   registration.CategoryStudent,
			Name:       name,
			IdentityNo: "21WMR09876",
			Member:     true,
		},
	}
}

func testPayment() PaymentInfo {
	return PaymentInfo{RefNo: "TXN20260314", Date: "2026-03-14", Time: "18:45", Receipt: "aGVsbG8="}
}

func TestCheckoutHoldsBatch(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1", "t1-s2"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	for _, id := range []string{"t1-s1", "t1-s2"} {
		seat, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if seat.Status != StatusCheckout {
			t.Fatalf("%s should be CHECKOUT, got %s", id, seat.Status)
		}
		if !seat.IsLockedBy("sess-1") || seat.LockedAt == nil {
			t.Fatalf("%s must carry both lock fields: %+v", id, seat)
		}
	}
}

func TestCheckoutRequiresSessionAndSeats(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "", []string{"t1-s1"}); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed for blank session, got %v", err)
	}
	if err := engine.Checkout(ctx, "sess-1", nil); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed for empty batch, got %v", err)
	}
}

func TestCheckoutRejectsWholeBatchOnConflict(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s2"}); err != nil {
		t.Fatalf("setup checkout failed: %v", err)
	}

	err := engine.Checkout(ctx, "sess-2", []string{"t1-s1", "t1-s2"})
	if !errors.Is(err, ErrConflictLost) {
		t.Fatalf("expected ErrConflictLost, got %v", err)
	}

	// the free seat in the losing batch must stay untouched
	seat, _ := store.Get(ctx, "t1-s1")
	if seat.Status != StatusAvailable || seat.LockedBy != nil {
		t.Fatalf("losing batch leaked a hold: %+v", seat)
	}
}

func TestCheckoutSameSessionRefreshesHold(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	engine.now = func() time.Time { return t0.Add(2 * time.Minute) }
	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("re-checkout by holder failed: %v", err)
	}

	seat, _ := store.Get(ctx, "t1-s1")
	if !seat.LockedAt.Equal(t0.Add(2 * time.Minute)) {
		t.Fatalf("hold not refreshed: lockedAt=%v", seat.LockedAt)
	}
}

func TestCheckoutReclaimsExpiredHold(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// before expiry the seat is defended
	engine.now = func() time.Time { return t0.Add(299 * time.Second) }
	if err := engine.Checkout(ctx, "sess-2", []string{"t1-s1"}); !errors.Is(err, ErrConflictLost) {
		t.Fatalf("expected conflict before expiry, got %v", err)
	}

	// at expiry another session reclaims it in place
	engine.now = func() time.Time { return t0.Add(300 * time.Second) }
	if err := engine.Checkout(ctx, "sess-2", []string{"t1-s1"}); err != nil {
		t.Fatalf("reclaim after expiry failed: %v", err)
	}
	seat, _ := store.Get(ctx, "t1-s1")
	if !seat.IsLockedBy("sess-2") {
		t.Fatalf("expired hold not reclaimed: %+v", seat)
	}
}

func TestCheckoutRaceSingleWinner(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	const racers = 16
	var wg sync.WaitGroup
	results := make([]error, racers)
	start := make(chan struct{})

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = engine.Checkout(ctx, "sess-"+string(rune('a'+i)), []string{"t5-s5"})
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else if !errors.Is(err, ErrConflictLost) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one winner, got %d", winners)
	}

	seat, _ := store.Get(ctx, "t5-s5")
	if seat.Status != StatusCheckout || seat.LockedBy == nil {
		t.Fatalf("winner's hold missing: %+v", seat)
	}
}

func TestSubmitMovesToPending(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1", "t1-s2"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	engine.now = func() time.Time { return t0.Add(time.Minute) }
	entries := []RegistrationEntry{studentEntry("t1-s1", "Aravind Kumar"), studentEntry("t1-s2", "Mei Ling Tan")}
	if err := engine.Submit(ctx, "sess-1", entries, testPayment()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	for _, id := range []string{"t1-s1", "t1-s2"} {
		seat, _ := store.Get(ctx, id)
		if seat.Status != StatusPending {
			t.Fatalf("%s should be PENDING, got %s", id, seat.Status)
		}
		if seat.Details == nil || seat.Payment == nil {
			t.Fatalf("%s missing registration payload: %+v", id, seat)
		}
		if seat.Payment.RefNo != "TXN20260314" {
			t.Fatalf("payment not stored: %+v", seat.Payment)
		}
		if !seat.LockedAt.Equal(t0.Add(time.Minute)) {
			t.Fatalf("submission should refresh lockedAt, got %v", seat.LockedAt)
		}
	}
}

func TestSubmitValidatesAllEntriesFirst(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1", "t1-s2"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	bad := studentEntry("t1-s2", "Al") // name too short
	entries := []RegistrationEntry{studentEntry("t1-s1", "Aravind Kumar"), bad}
	if err := engine.Submit(ctx, "sess-1", entries, testPayment()); !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}

	// nothing may have been written
	for _, id := range []string{"t1-s1", "t1-s2"} {
		seat, _ := store.Get(ctx, id)
		if seat.Status != StatusCheckout || seat.Details != nil {
			t.Fatalf("failed submit must not write: %s is %+v", id, seat)
		}
	}
}

func TestSubmitRequiresHolder(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	err := engine.Submit(ctx, "sess-2", []RegistrationEntry{studentEntry("t1-s1", "Aravind Kumar")}, testPayment())
	if !errors.Is(err, ErrNotHolder) {
		t.Fatalf("expected ErrNotHolder, got %v", err)
	}
}

func TestSubmitAfterExpiry(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	engine.now = func() time.Time { return t0.Add(301 * time.Second) }
	err := engine.Submit(ctx, "sess-1", []RegistrationEntry{studentEntry("t1-s1", "Aravind Kumar")}, testPayment())
	if !errors.Is(err, ErrExpiredLock) {
		t.Fatalf("expected ErrExpiredLock, got %v", err)
	}
}

func TestApproveRetainsPayment(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Submit(ctx, "sess-1", []RegistrationEntry{studentEntry("t1-s1", "Aravind Kumar")}, testPayment()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := engine.Approve(ctx, "t1-s1"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	seat, _ := store.Get(ctx, "t1-s1")
	if seat.Status != StatusSold {
		t.Fatalf("expected SOLD, got %s", seat.Status)
	}
	if seat.Payment == nil || seat.Details == nil {
		t.Fatal("approval must retain the registration payload")
	}
	if seat.LockedBy != nil || seat.LockedAt != nil {
		t.Fatal("approval must clear both lock fields")
	}
}

func TestApproveRequiresPending(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Approve(ctx, "t1-s1"); !errors.Is(err, ErrConflictLost) {
		t.Fatalf("expected ErrConflictLost for AVAILABLE seat, got %v", err)
	}

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s2"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Approve(ctx, "t1-s2"); !errors.Is(err, ErrConflictLost) {
		t.Fatalf("expected ErrConflictLost for CHECKOUT seat, got %v", err)
	}
}

func TestDeclineReseeds(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Submit(ctx, "sess-1", []RegistrationEntry{studentEntry("t1-s1", "Aravind Kumar")}, testPayment()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if err := engine.Decline(ctx, "t1-s1"); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	seat, _ := store.Get(ctx, "t1-s1")
	if seat.Status != StatusAvailable || seat.Details != nil || seat.Payment != nil || seat.LockedBy != nil {
		t.Fatalf("declined seat should re-seed clean: %+v", seat)
	}
}

func TestResetReleasesAnyStatus(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Submit(ctx, "sess-1", []RegistrationEntry{studentEntry("t1-s1", "Aravind Kumar")}, testPayment()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := engine.Approve(ctx, "t1-s1"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if err := engine.Reset(ctx, "t1-s1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	seat, _ := store.Get(ctx, "t1-s1")
	if seat.Status != StatusAvailable {
		t.Fatalf("reset seat should be AVAILABLE, got %s", seat.Status)
	}
}

func TestCancelSkipsForeignHolds(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Checkout(ctx, "sess-2", []string{"t1-s2"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// sess-1 cancels both; only its own hold is released
	if err := engine.Cancel(ctx, "sess-1", []string{"t1-s1", "t1-s2"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	own, _ := store.Get(ctx, "t1-s1")
	if own.Status != StatusAvailable || own.LockedBy != nil {
		t.Fatalf("own hold not released: %+v", own)
	}
	other, _ := store.Get(ctx, "t1-s2")
	if other.Status != StatusCheckout || !other.IsLockedBy("sess-2") {
		t.Fatalf("foreign hold disturbed: %+v", other)
	}
}

func TestReleaseExpired(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	if err := engine.Checkout(ctx, "sess-old", []string{"t1-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	engine.now = func() time.Time { return t0.Add(2 * time.Minute) }
	if err := engine.Checkout(ctx, "sess-new", []string{"t1-s2"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// five minutes after the first hold: only it has lapsed
	engine.now = func() time.Time { return t0.Add(300 * time.Second) }
	released, err := engine.ReleaseExpired(ctx)
	if err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if len(released) != 1 || released[0].ID != "t1-s1" {
		t.Fatalf("expected only t1-s1 released, got %+v", released)
	}
	if released[0].LockedBy == nil || *released[0].LockedBy != "sess-old" {
		t.Fatal("released seat should report its previous holder")
	}

	freed, _ := store.Get(ctx, "t1-s1")
	if freed.Status != StatusAvailable || freed.LockedBy != nil {
		t.Fatalf("expired hold not cleaned: %+v", freed)
	}
	live, _ := store.Get(ctx, "t1-s2")
	if live.Status != StatusCheckout {
		t.Fatalf("live hold must survive: %+v", live)
	}
}

func TestHoldsForSessionSorted(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	t0 := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }
	if err := engine.Checkout(ctx, "sess-1", []string{"t2-s1", "t1-s3"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	engine.now = func() time.Time { return t0.Add(100 * time.Second) }
	holds, err := engine.HoldsForSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("holds lookup failed: %v", err)
	}
	if len(holds) != 2 {
		t.Fatalf("expected 2 holds, got %d", len(holds))
	}
	if holds[0].Seat.ID != "t1-s3" || holds[1].Seat.ID != "t2-s1" {
		t.Fatalf("holds not sorted by seat id: %+v", holds)
	}
	if holds[0].RemainingSeconds != 200 {
		t.Fatalf("expected 200s remaining, got %d", holds[0].RemainingSeconds)
	}
}

func TestEndToEndBookingFlow(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	// hold, register, approve
	if err := engine.Checkout(ctx, "sess-1", []string{"t11-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	entry := RegistrationEntry{
		SeatID: "t11-s1",
		Details: registration.Details{
			Category:   registration.CategoryOutsider,
			Name:       "Jordan Lim",
			IdentityNo: "990101045678",
			CarPlate:   "PKV 1234",
			Email:      "jordan@example.com",
			Phone:      "0123456789",
		},
	}
	if err := engine.Submit(ctx, "sess-1", []RegistrationEntry{entry}, testPayment()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := engine.Approve(ctx, "t11-s1"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	seat, _ := store.Get(ctx, "t11-s1")
	if seat.Status != StatusSold || seat.Tier != TierSilver {
		t.Fatalf("unexpected final state: %+v", seat)
	}
	// outsiders never get the member discount
	if got := engine.ComputeTotal([]Seat{seat}); got != testHall().SilverPrice {
		t.Fatalf("expected full silver price, got %v", got)
	}
}

// memGuard is an in-memory stand-in for the cross-instance claim layer
type memGuard struct {
	mu     sync.Mutex
	claims map[string]string
}

func newMemGuard() *memGuard {
	return &memGuard{claims: make(map[string]string)}
}

func (g *memGuard) Acquire(ctx context.Context, session string, seatIDs []string, ttl time.Duration) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range seatIDs {
		if holder, ok := g.claims[id]; ok && holder != session {
			return fmt.Errorf("%w: %s", ErrConflictLost, id)
		}
	}
	for _, id := range seatIDs {
		g.claims[id] = session
	}
	return nil
}

func (g *memGuard) Release(ctx context.Context, session string, seatIDs []string) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	released := 0
	for _, id := range seatIDs {
		if g.claims[id] == session {
			delete(g.claims, id)
			released++
		}
	}
	return released, nil
}

func (g *memGuard) ForceRelease(ctx context.Context, seatIDs []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range seatIDs {
		delete(g.claims, id)
	}
	return nil
}

func (g *memGuard) holder(seatID string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.claims[seatID]
}

func TestDeclineClearsGuardClaim(t *testing.T) {
	engine, _ := newTestEngine(t)
	guard := newMemGuard()
	engine = engine.WithGuard(guard)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t4-s1"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Submit(ctx, "sess-1", []RegistrationEntry{studentEntry("t4-s1", "Wei Jian Tan")}, testPayment()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := engine.Decline(ctx, "t4-s1"); err != nil {
		t.Fatalf("decline failed: %v", err)
	}

	if holder := guard.holder("t4-s1"); holder != "" {
		t.Fatalf("declined seat still claimed by %q", holder)
	}
	// a different session can take the seat straight away
	if err := engine.Checkout(ctx, "sess-2", []string{"t4-s1"}); err != nil {
		t.Fatalf("checkout after decline failed: %v", err)
	}
}

func TestResetClearsGuardClaim(t *testing.T) {
	engine, _ := newTestEngine(t)
	guard := newMemGuard()
	engine = engine.WithGuard(guard)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t4-s2"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Reset(ctx, "t4-s2"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	if err := engine.Checkout(ctx, "sess-2", []string{"t4-s2"}); err != nil {
		t.Fatalf("checkout after reset failed: %v", err)
	}
}

func TestApproveClearsGuardClaim(t *testing.T) {
	engine, _ := newTestEngine(t)
	guard := newMemGuard()
	engine = engine.WithGuard(guard)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t4-s3"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Submit(ctx, "sess-1", []RegistrationEntry{studentEntry("t4-s3", "Wei Jian Tan")}, testPayment()); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if err := engine.Approve(ctx, "t4-s3"); err != nil {
		t.Fatalf("approve failed: %v", err)
	}

	if holder := guard.holder("t4-s3"); holder != "" {
		t.Fatalf("sold seat still claimed by %q", holder)
	}
}

func TestCancelReleasesOwnGuardClaimOnly(t *testing.T) {
	engine, _ := newTestEngine(t)
	guard := newMemGuard()
	engine = engine.WithGuard(guard)
	ctx := context.Background()

	if err := engine.Checkout(ctx, "sess-1", []string{"t4-s4"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Checkout(ctx, "sess-2", []string{"t4-s5"}); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if err := engine.Cancel(ctx, "sess-1", []string{"t4-s4", "t4-s5"}); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if holder := guard.holder("t4-s4"); holder != "" {
		t.Fatalf("cancelled seat still claimed by %q", holder)
	}
	if holder := guard.holder("t4-s5"); holder != "sess-2" {
		t.Fatalf("foreign claim should survive cancel, got %q", holder)
	}
}
