package seats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hallbook/internal/shared/config"
	"hallbook/internal/shared/constants"
	"hallbook/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore is the production Store backed by Postgres, with Redis pub/sub
// carrying change notifications between instances. Local subscribers get
// snapshots through the same hub as MemStore.
type GormStore struct {
	db   *gorm.DB
	rdb  *redis.Client
	hall config.HallConfig
	hub  *hub
	log  *logger.Logger
}

// NewGormStore creates the Postgres-backed store
func NewGormStore(db *gorm.DB, rdb *redis.Client, hall config.HallConfig, log *logger.Logger) *GormStore {
	return &GormStore{
		db:   db,
		rdb:  rdb,
		hall: hall,
		hub:  newHub(),
		log:  log,
	}
}

func (s *GormStore) inLayout(seatID string) bool {
	tableID, seatNumber, err := ParseSeatID(seatID)
	if err != nil {
		return false
	}
	return tableID <= s.hall.TotalTables && seatNumber <= s.hall.SeatsPerTable
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// Snapshot returns the full seat map, seeding layout seats without a stored
// record as AVAILABLE.
func (s *GormStore) Snapshot(ctx context.Context) (map[string]Seat, error) {
	var rows []Seat
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}

	out := make(map[string]Seat, s.hall.TotalTables*s.hall.SeatsPerTable)
	for _, seat := range rows {
		out[seat.ID] = seat
	}
	for table := 1; table <= s.hall.TotalTables; table++ {
		for num := 1; num <= s.hall.SeatsPerTable; num++ {
			id := SeatID(table, num)
			if _, ok := out[id]; !ok {
				out[id] = NewSeat(table, num, s.hall)
			}
		}
	}
	return out, nil
}

// Get returns one seat, re-seeded as AVAILABLE when no record exists
func (s *GormStore) Get(ctx context.Context, seatID string) (Seat, error) {
	if !s.inLayout(seatID) {
		return Seat{}, ErrSeatNotFound
	}

	var seat Seat
	err := s.db.WithContext(ctx).First(&seat, "id = ?", seatID).Error
	if err == nil {
		return seat, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tableID, seatNumber, _ := ParseSeatID(seatID)
		return NewSeat(tableID, seatNumber, s.hall), nil
	}
	return Seat{}, storageErr(err)
}

// BatchUpsert merges all patches inside one transaction. Rows are locked
// FOR UPDATE so concurrent batches serialize at the database.
func (s *GormStore) BatchUpsert(ctx context.Context, updates []SeatUpdate) error {
	for _, u := range updates {
		if !s.inLayout(u.SeatID) {
			return ErrSeatNotFound
		}
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			var seat Seat
			err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&seat, "id = ?", u.SeatID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				tableID, seatNumber, _ := ParseSeatID(u.SeatID)
				seat = NewSeat(tableID, seatNumber, s.hall)
			} else if err != nil {
				return err
			}

			u.Patch.Apply(&seat)
			if err := tx.Save(&seat).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return storageErr(err)
	}

	s.notifyChange(ctx)
	return nil
}

// UpsertOne merges a single patch
func (s *GormStore) UpsertOne(ctx context.Context, seatID string, patch SeatPatch) error {
	return s.BatchUpsert(ctx, []SeatUpdate{{SeatID: seatID, Patch: patch}})
}

// DeleteOne removes the record; the seat re-seeds as AVAILABLE on next
// read. Deleting an absent key succeeds.
func (s *GormStore) DeleteOne(ctx context.Context, seatID string) error {
	if err := s.db.WithContext(ctx).Delete(&Seat{}, "id = ?", seatID).Error; err != nil {
		return storageErr(err)
	}
	s.notifyChange(ctx)
	return nil
}

// Subscribe registers a snapshot listener with an immediate initial push
func (s *GormStore) Subscribe(ctx context.Context) (<-chan map[string]Seat, func(), error) {
	initial, err := s.Snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	ch, unsubscribe := s.hub.subscribe(ctx, initial)
	return ch, unsubscribe, nil
}

// notifyChange pushes a fresh snapshot to local subscribers and tells other
// instances to do the same over Redis. Notification failures are logged,
// never propagated; the write already committed.
func (s *GormStore) notifyChange(ctx context.Context) {
	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		s.log.ErrorWithContext(ctx, "snapshot after write failed", err, nil)
		return
	}
	s.hub.broadcast(snapshot)

	if s.rdb != nil {
		if err := s.rdb.Publish(ctx, constants.CHANNEL_SEATS_CHANGED, time.Now().UnixMilli()).Err(); err != nil {
			s.log.ErrorWithContext(ctx, "seat change publish failed", err, nil)
		}
	}
}

// ListenForChanges consumes the Redis seat-change channel and rebroadcasts
// snapshots to local subscribers. Runs until ctx is done; call it from a
// dedicated goroutine at startup.
func (s *GormStore) ListenForChanges(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	pubsub := s.rdb.Subscribe(ctx, constants.CHANNEL_SEATS_CHANGED)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			if s.hub.count() == 0 {
				continue
			}
			snapshot, err := s.Snapshot(ctx)
			if err != nil {
				s.log.ErrorWithContext(ctx, "snapshot on change notification failed", err, nil)
				continue
			}
			s.hub.broadcast(snapshot)
		}
	}
}
