package seats

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"hallbook/internal/registration"
	"hallbook/internal/shared/config"
	"hallbook/pkg/logger"
)

const lockStripes = 64

// Engine owns every seat state transition. The store has no conditional
// writes, so the engine serializes writers per seat: each mutation takes
// the seat's stripe mutex, re-reads current state, checks the guard and
// only then writes. Two sessions racing for the same seat resolve here,
// with the loser getting ErrConflictLost instead of silently overwriting.
type Engine struct {
	store Store
	hall  config.HallConfig
	log   *logger.Logger

	stripes [lockStripes]sync.Mutex

	// guard is the optional cross-instance claim layer; nil means the
	// stripe mutexes are the only serialization (single instance, tests)
	guard SeatGuard

	// now is swappable for tests
	now func() time.Time
}

// RegistrationEntry pairs a seat with its attendee details for submission
type RegistrationEntry struct {
	SeatID  string
	Details registration.Details
}

// NewEngine creates the reservation engine
func NewEngine(store Store, hall config.HallConfig, log *logger.Logger) *Engine {
	return &Engine{
		store: store,
		hall:  hall,
		log:   log,
		now:   time.Now,
	}
}

// SeatGuard is the cross-instance claim layer over the stripe mutexes.
// Acquire rejects the whole batch when any seat is claimed by another
// session; ForceRelease drops claims regardless of holder, for admin
// transitions that free a seat for everyone.
type SeatGuard interface {
	Acquire(ctx context.Context, session string, seatIDs []string, ttl time.Duration) error
	Release(ctx context.Context, session string, seatIDs []string) (int, error)
	ForceRelease(ctx context.Context, seatIDs []string) error
}

// WithGuard attaches a cross-instance seat guard to the engine
func (e *Engine) WithGuard(guard SeatGuard) *Engine {
	e.guard = guard
	return e
}

func stripeFor(seatID string) int {
	h := fnv.New32a()
	h.Write([]byte(seatID))
	return int(h.Sum32() % lockStripes)
}

// lockSeats takes the stripe mutexes covering the given seats in a fixed
// order so concurrent batches cannot deadlock. Returns the unlock func.
func (e *Engine) lockSeats(seatIDs []string) func() {
	seen := make(map[int]bool)
	var stripes []int
	for _, id := range seatIDs {
		idx := stripeFor(id)
		if !seen[idx] {
			seen[idx] = true
			stripes = append(stripes, idx)
		}
	}
	sort.Ints(stripes)
	for _, idx := range stripes {
		e.stripes[idx].Lock()
	}
	return func() {
		for i := len(stripes) - 1; i >= 0; i-- {
			e.stripes[stripes[i]].Unlock()
		}
	}
}

// Checkout applies AVAILABLE to CHECKOUT for the whole batch. If any seat
// is held by someone else the entire batch is rejected; a lapsed CHECKOUT
// hold counts as available and is reclaimed in place.
func (e *Engine) Checkout(ctx context.Context, session string, seatIDs []string) error {
	if session == "" || len(seatIDs) == 0 {
		return fmt.Errorf("%w: session and seat ids are required", ErrValidationFailed)
	}

	unlock := e.lockSeats(seatIDs)
	defer unlock()

	now := e.now()
	for _, id := range seatIDs {
		seat, err := e.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if seat.Status.CanBeHeld() {
			continue
		}
		if seat.HoldExpired(now, e.hall.LockDuration) {
			continue
		}
		if seat.IsLockedBy(session) && seat.Status == StatusCheckout {
			// re-checkout by the same session just refreshes the hold
			continue
		}
		return fmt.Errorf("%w: %s", ErrConflictLost, id)
	}

	if e.guard != nil {
		if err := e.guard.Acquire(ctx, session, seatIDs, e.hall.LockDuration); err != nil {
			return err
		}
	}

	status := StatusCheckout
	updates := make([]SeatUpdate, 0, len(seatIDs))
	for _, id := range seatIDs {
		lockedAt := now
		lockedBy := session
		updates = append(updates, SeatUpdate{
			SeatID: id,
			Patch: SeatPatch{
				Status:       &status,
				LockedBy:     &lockedBy,
				LockedAt:     &lockedAt,
				ClearDetails: true,
				ClearPayment: true,
			},
		})
	}
	if err := e.store.BatchUpsert(ctx, updates); err != nil {
		return err
	}

	e.log.LogSeatsHeld(ctx, session, seatIDs)
	return nil
}

// Cancel releases the session's CHECKOUT holds back to AVAILABLE. Seats
// the session does not hold are skipped rather than failing the batch;
// cancellation may race with expiry cleanup and both outcomes agree.
func (e *Engine) Cancel(ctx context.Context, session string, seatIDs []string) error {
	if session == "" || len(seatIDs) == 0 {
		return fmt.Errorf("%w: session and seat ids are required", ErrValidationFailed)
	}

	unlock := e.lockSeats(seatIDs)
	defer unlock()

	var updates []SeatUpdate
	var released []string
	for _, id := range seatIDs {
		seat, err := e.store.Get(ctx, id)
		if err != nil {
			return err
		}
		if seat.Status != StatusCheckout || !seat.IsLockedBy(session) {
			continue
		}
		updates = append(updates, releaseUpdate(id))
		released = append(released, id)
	}
	if len(updates) == 0 {
		return nil
	}
	if err := e.store.BatchUpsert(ctx, updates); err != nil {
		return err
	}
	if e.guard != nil {
		if _, err := e.guard.Release(ctx, session, released); err != nil {
			e.log.ErrorWithContext(ctx, "guard release failed", err, nil)
		}
	}

	e.log.LogSeatsReleased(ctx, session, released, "cancelled")
	return nil
}

// Submit moves the session's held seats to PENDING with attendee details
// and payment evidence attached. Every entry must validate and every seat
// must still be held by this session; otherwise nothing is written.
func (e *Engine) Submit(ctx context.Context, session string, entries []RegistrationEntry, payment PaymentInfo) error {
	if session == "" || len(entries) == 0 {
		return fmt.Errorf("%w: session and registration entries are required", ErrValidationFailed)
	}

	seatIDs := make([]string, 0, len(entries))
	for i := range entries {
		entries[i].Details.Normalize()
		if result := entries[i].Details.Validate(); !result.Valid {
			return fmt.Errorf("%w: seat %s: %s", ErrValidationFailed, entries[i].SeatID, result.Errors[0].Message)
		}
		seatIDs = append(seatIDs, entries[i].SeatID)
	}

	unlock := e.lockSeats(seatIDs)
	defer unlock()

	now := e.now()
	for _, entry := range entries {
		seat, err := e.store.Get(ctx, entry.SeatID)
		if err != nil {
			return err
		}
		if !seat.Status.CanBeSubmitted() {
			return fmt.Errorf("%w: %s", ErrConflictLost, entry.SeatID)
		}
		if !seat.IsLockedBy(session) {
			return fmt.Errorf("%w: %s", ErrNotHolder, entry.SeatID)
		}
		if seat.HoldExpired(now, e.hall.LockDuration) {
			return fmt.Errorf("%w: %s", ErrExpiredLock, entry.SeatID)
		}
	}

	status := StatusPending
	updates := make([]SeatUpdate, 0, len(entries))
	for _, entry := range entries {
		details := entry.Details
		pay := payment
		lockedAt := now
		lockedBy := session
		updates = append(updates, SeatUpdate{
			SeatID: entry.SeatID,
			Patch: SeatPatch{
				Status:   &status,
				LockedBy: &lockedBy,
				LockedAt: &lockedAt,
				Details:  &details,
				Payment:  &pay,
			},
		})
	}
	if err := e.store.BatchUpsert(ctx, updates); err != nil {
		return err
	}

	e.log.LogRegistrationSubmitted(ctx, session, seatIDs, payment.RefNo)
	return nil
}

// Approve moves a PENDING seat to SOLD, retaining its payment record.
// Admin transitions bypass the holder guard.
func (e *Engine) Approve(ctx context.Context, seatID string) error {
	unlock := e.lockSeats([]string{seatID})
	defer unlock()

	seat, err := e.store.Get(ctx, seatID)
	if err != nil {
		return err
	}
	if !seat.Status.CanBeApproved() {
		return fmt.Errorf("%w: seat %s is %s, not PENDING", ErrConflictLost, seatID, seat.Status)
	}

	status := StatusSold
	if err := e.store.UpsertOne(ctx, seatID, SeatPatch{
		Status:    &status,
		ClearLock: true,
	}); err != nil {
		return err
	}
	e.dropGuard(ctx, seatID)
	return nil
}

// Decline rejects a PENDING registration, deleting the record so the seat
// re-seeds as AVAILABLE.
func (e *Engine) Decline(ctx context.Context, seatID string) error {
	unlock := e.lockSeats([]string{seatID})
	defer unlock()

	seat, err := e.store.Get(ctx, seatID)
	if err != nil {
		return err
	}
	if seat.Status != StatusPending {
		return fmt.Errorf("%w: seat %s is %s, not PENDING", ErrConflictLost, seatID, seat.Status)
	}
	if err := e.store.DeleteOne(ctx, seatID); err != nil {
		return err
	}
	e.dropGuard(ctx, seatID)
	return nil
}

// Reset force-releases a seat from any status by deleting its record
func (e *Engine) Reset(ctx context.Context, seatID string) error {
	unlock := e.lockSeats([]string{seatID})
	defer unlock()

	if _, err := e.store.Get(ctx, seatID); err != nil {
		return err
	}
	if err := e.store.DeleteOne(ctx, seatID); err != nil {
		return err
	}
	e.dropGuard(ctx, seatID)
	return nil
}

// dropGuard clears a seat's cross-instance claim regardless of holder.
// A record deleted or sold through an admin transition must not stay
// claimed in Redis, or the re-seeded seat would reject every other
// session until the claim's TTL lapsed.
func (e *Engine) dropGuard(ctx context.Context, seatID string) {
	if e.guard == nil {
		return
	}
	if err := e.guard.ForceRelease(ctx, []string{seatID}); err != nil {
		e.log.ErrorWithContext(ctx, "guard force release failed", err, map[string]interface{}{"seat_id": seatID})
	}
}

// ReleaseExpired releases every CHECKOUT hold that has outlived the lock
// duration. Returns the released seats; the watchdog calls this each tick.
func (e *Engine) ReleaseExpired(ctx context.Context) ([]Seat, error) {
	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var expired []Seat
	for _, seat := range snapshot {
		if seat.HoldExpired(now, e.hall.LockDuration) {
			expired = append(expired, seat)
		}
	}
	if len(expired) == 0 {
		return nil, nil
	}

	var released []Seat
	for _, seat := range expired {
		unlock := e.lockSeats([]string{seat.ID})

		current, err := e.store.Get(ctx, seat.ID)
		if err != nil {
			unlock()
			return released, err
		}
		if !current.HoldExpired(e.now(), e.hall.LockDuration) {
			unlock()
			continue
		}
		if err := e.store.UpsertOne(ctx, seat.ID, releaseUpdate(seat.ID).Patch); err != nil {
			unlock()
			return released, err
		}
		unlock()

		session := ""
		if current.LockedBy != nil {
			session = *current.LockedBy
		}
		e.log.LogHoldExpired(ctx, session, current.ID, e.now().Sub(*current.LockedAt))
		released = append(released, current)
	}
	return released, nil
}

// HoldsForSession returns the seats a session currently holds in CHECKOUT
// with their remaining lock time. Sessions reconnecting after a reload use
// this to resume their countdown.
func (e *Engine) HoldsForSession(ctx context.Context, session string) ([]SessionHold, error) {
	snapshot, err := e.store.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	now := e.now()
	var holds []SessionHold
	for _, seat := range snapshot {
		if seat.Status != StatusCheckout || !seat.IsLockedBy(session) {
			continue
		}
		holds = append(holds, SessionHold{
			Seat:             seat,
			RemainingSeconds: int(seat.RemainingLock(now, e.hall.LockDuration).Seconds()),
		})
	}
	sort.Slice(holds, func(i, j int) bool { return holds[i].Seat.ID < holds[j].Seat.ID })
	return holds, nil
}

// SessionHold is one held seat plus its countdown state
type SessionHold struct {
	Seat             Seat
	RemainingSeconds int
}

// ComputeTotal sums the payable price over the given seats, applying the
// member discount where an attendee qualifies.
func (e *Engine) ComputeTotal(seats []Seat) float64 {
	total := 0.0
	for i := range seats {
		total += seats[i].PayablePrice(e.hall.MemberDiscount)
	}
	return total
}

func releaseUpdate(seatID string) SeatUpdate {
	status := StatusAvailable
	return SeatUpdate{
		SeatID: seatID,
		Patch: SeatPatch{
			Status:       &status,
			ClearLock:    true,
			ClearDetails: true,
			ClearPayment: true,
		},
	}
}
