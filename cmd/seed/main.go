package main

import (
	"context"
	"fmt"
	"log"

	"hallbook/internal/seats"
	"hallbook/internal/shared/config"
	"hallbook/internal/shared/database"
)

type Seeder struct {
	db   *database.DB
	hall config.HallConfig
}

func main() {
	fmt.Println("Starting hall seat seeder...")

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db, hall: cfg.Hall}

	// Clean seat table
	fmt.Println("\nCleaning seat table...")
	if err := seeder.CleanSeats(); err != nil {
		log.Fatalf("Failed to clean seat table: %v", err)
	}
	fmt.Println("Seat table cleaned")

	// Seed the hall layout
	fmt.Println("\nSeeding hall layout...")
	if err := seeder.SeedHall(); err != nil {
		log.Fatalf("Failed to seed hall layout: %v", err)
	}
	fmt.Println("Hall layout seeded")

	fmt.Println("\nSeeding completed. Database is ready.")
}

// CleanSeats truncates the seat table and drops any stale guard keys or
// cached snapshots from Redis.
func (s *Seeder) CleanSeats() error {
	if err := s.db.PostgreSQL.Exec("TRUNCATE TABLE seats_v2 RESTART IDENTITY").Error; err != nil {
		return fmt.Errorf("failed to truncate seats_v2: %w", err)
	}

	if s.db.Redis != nil {
		ctx := context.Background()
		if err := s.db.Redis.FlushDB(ctx).Err(); err != nil {
			log.Printf("Warning: Failed to clear Redis: %v", err)
		}
	}

	return nil
}

// SeedHall writes one AVAILABLE seat row per position in the layout.
func (s *Seeder) SeedHall() error {
	total := 0
	for table := 1; table <= s.hall.TotalTables; table++ {
		for number := 1; number <= s.hall.SeatsPerTable; number++ {
			seat := seats.NewSeat(table, number, s.hall)

			if err := s.db.PostgreSQL.Create(&seat).Error; err != nil {
				return fmt.Errorf("failed to create seat %s: %w", seat.ID, err)
			}
			total++
		}
		fmt.Printf("  Seeded table %d (%d seats)\n", table, s.hall.SeatsPerTable)
	}

	fmt.Printf("  %d seats created across %d tables\n", total, s.hall.TotalTables)
	return nil
}
