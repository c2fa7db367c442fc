package seats

import (
	"context"
	"sync"

	"hallbook/internal/shared/config"
)

// MemStore is an in-memory Store. It backs tests and single-instance
// deployments that run without Postgres; semantics match the repository
// implementation exactly.
type MemStore struct {
	mu    sync.RWMutex
	seats map[string]Seat
	hall  config.HallConfig
	hub   *hub
}

// NewMemStore creates an empty in-memory store over the given hall layout
func NewMemStore(hall config.HallConfig) *MemStore {
	return &MemStore{
		seats: make(map[string]Seat),
		hall:  hall,
		hub:   newHub(),
	}
}

func (m *MemStore) inLayout(seatID string) bool {
	tableID, seatNumber, err := ParseSeatID(seatID)
	if err != nil {
		return false
	}
	return tableID <= m.hall.TotalTables && seatNumber <= m.hall.SeatsPerTable
}

// snapshotLocked builds the full map, seeding layout seats that have no
// stored record as AVAILABLE. Caller holds at least a read lock.
func (m *MemStore) snapshotLocked() map[string]Seat {
	out := make(map[string]Seat, m.hall.TotalTables*m.hall.SeatsPerTable)
	for table := 1; table <= m.hall.TotalTables; table++ {
		for num := 1; num <= m.hall.SeatsPerTable; num++ {
			id := SeatID(table, num)
			if seat, ok := m.seats[id]; ok {
				out[id] = seat
			} else {
				out[id] = NewSeat(table, num, m.hall)
			}
		}
	}
	return out
}

// Snapshot returns the full current seat map
func (m *MemStore) Snapshot(ctx context.Context) (map[string]Seat, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotLocked(), nil
}

// Get returns one seat, re-seeded as AVAILABLE when the record is absent
func (m *MemStore) Get(ctx context.Context, seatID string) (Seat, error) {
	if err := ctx.Err(); err != nil {
		return Seat{}, err
	}
	if !m.inLayout(seatID) {
		return Seat{}, ErrSeatNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if seat, ok := m.seats[seatID]; ok {
		return seat, nil
	}
	tableID, seatNumber, _ := ParseSeatID(seatID)
	return NewSeat(tableID, seatNumber, m.hall), nil
}

// BatchUpsert merges all patches as one unit and notifies subscribers once
func (m *MemStore) BatchUpsert(ctx context.Context, updates []SeatUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, u := range updates {
		if !m.inLayout(u.SeatID) {
			return ErrSeatNotFound
		}
	}

	m.mu.Lock()
	for _, u := range updates {
		seat, ok := m.seats[u.SeatID]
		if !ok {
			tableID, seatNumber, _ := ParseSeatID(u.SeatID)
			seat = NewSeat(tableID, seatNumber, m.hall)
		}
		u.Patch.Apply(&seat)
		m.seats[u.SeatID] = seat
	}
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.hub.broadcast(snapshot)
	return nil
}

// UpsertOne merges a single patch
func (m *MemStore) UpsertOne(ctx context.Context, seatID string, patch SeatPatch) error {
	return m.BatchUpsert(ctx, []SeatUpdate{{SeatID: seatID, Patch: patch}})
}

// DeleteOne removes the stored record; the seat re-seeds as AVAILABLE on
// the next read. Deleting an absent key is a no-op.
func (m *MemStore) DeleteOne(ctx context.Context, seatID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.seats, seatID)
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	m.hub.broadcast(snapshot)
	return nil
}

// Subscribe registers a snapshot listener with an immediate initial push
func (m *MemStore) Subscribe(ctx context.Context) (<-chan map[string]Seat, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	m.mu.RLock()
	initial := m.snapshotLocked()
	m.mu.RUnlock()

	ch, unsubscribe := m.hub.subscribe(ctx, initial)
	return ch, unsubscribe, nil
}
