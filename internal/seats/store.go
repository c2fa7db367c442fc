package seats

import (
	"context"
	"time"

	"hallbook/internal/registration"
)

// SeatPatch is a partial update merged onto a stored seat record. Pointer
// fields that are nil are left untouched; the Clear flags explicitly blank
// a field group. ClearLock always clears LockedBy and LockedAt together so
// the both-or-neither rule cannot be broken through the store.
type SeatPatch struct {
	Status   *Status
	LockedBy *string
	LockedAt *time.Time
	Price    *float64

	Details *registration.Details
	Payment *PaymentInfo

	ClearLock    bool
	ClearDetails bool
	ClearPayment bool
}

// SeatUpdate pairs a seat id with the patch to merge onto it
type SeatUpdate struct {
	SeatID string
	Patch  SeatPatch
}

// Store is durable, shared, multi-writer storage for seat records with
// change notification. It deliberately offers no conditional writes; all
// conflict resolution happens in the Engine before a write is issued.
type Store interface {
	// Snapshot returns the full current map of seat id to record. Seats
	// present in the hall layout but missing from storage are reported as
	// freshly seeded AVAILABLE records.
	Snapshot(ctx context.Context) (map[string]Seat, error)

	// Get returns a single seat, re-seeding it as AVAILABLE if the layout
	// knows it but storage does not. Returns ErrSeatNotFound for ids
	// outside the layout.
	Get(ctx context.Context, seatID string) (Seat, error)

	// BatchUpsert merges every patch as one indivisible unit: readers see
	// all of them in the next snapshot or, on failure, none.
	BatchUpsert(ctx context.Context, updates []SeatUpdate) error

	// UpsertOne is the single-seat convenience form of BatchUpsert
	UpsertOne(ctx context.Context, seatID string, patch SeatPatch) error

	// DeleteOne removes a seat record entirely. Deleting an absent key is
	// success, not an error.
	DeleteOne(ctx context.Context, seatID string) error

	// Subscribe registers a snapshot listener. The channel receives the
	// full map immediately and again after every change until unsubscribe
	// is called or ctx is done.
	Subscribe(ctx context.Context) (<-chan map[string]Seat, func(), error)
}

// Apply merges the patch onto a seat in place
func (p SeatPatch) Apply(seat *Seat) {
	if p.Status != nil {
		seat.Status = *p.Status
	}
	if p.Price != nil {
		seat.Price = *p.Price
	}
	if p.ClearLock {
		seat.LockedBy = nil
		seat.LockedAt = nil
	} else {
		if p.LockedBy != nil {
			v := *p.LockedBy
			seat.LockedBy = &v
		}
		if p.LockedAt != nil {
			v := *p.LockedAt
			seat.LockedAt = &v
		}
	}
	if p.ClearDetails {
		seat.Details = nil
	} else if p.Details != nil {
		v := *p.Details
		seat.Details = &v
	}
	if p.ClearPayment {
		seat.Payment = nil
	} else if p.Payment != nil {
		v := *p.Payment
		seat.Payment = &v
	}
	seat.SchemaVersion = SchemaVersion
}
