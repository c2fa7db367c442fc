package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"hallbook/internal/notifications"
	"hallbook/internal/shared/config"
	"hallbook/pkg/logger"

	"github.com/joho/godotenv"
)

// The worker tails the booking-events topic and writes a structured audit
// trail. It runs separately from the API server so a slow consumer never
// backs up the booking flow.
func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	log := logger.New()

	if !cfg.Kafka.Enabled {
		log.Error("KAFKA_ENABLED is false, nothing to consume")
		os.Exit(1)
	}

	consumerCfg := notifications.DefaultConsumerConfig()
	consumerCfg.Brokers = cfg.Kafka.Brokers
	consumerCfg.GroupID = cfg.Kafka.GroupID
	consumerCfg.Topics = []string{cfg.Kafka.Topic}

	consumer, err := notifications.NewKafkaBookingConsumer(consumerCfg, &auditHandler{log: log})
	if err != nil {
		log.WithError(err).Error("Failed to create booking consumer")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := consumer.StartConsumers(ctx, 2); err != nil {
		log.WithError(err).Error("Failed to start booking consumers")
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"brokers":  cfg.Kafka.Brokers,
		"topic":    cfg.Kafka.Topic,
		"group_id": cfg.Kafka.GroupID,
	}).Info("Booking event worker started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down booking event worker...")
	cancel()
	if err := consumer.Stop(); err != nil {
		log.WithError(err).Error("Error stopping consumer")
	}
	log.Info("Booking event worker stopped")
}

// auditHandler logs every booking event as one structured record
type auditHandler struct {
	log *logger.Logger
}

func (h *auditHandler) HandleBookingEvent(ctx context.Context, event *notifications.BookingEvent) error {
	fields := map[string]interface{}{
		"event_id": event.ID.String(),
		"type":     string(event.Type),
		"seats":    strings.Join(event.SeatIDs, ","),
		"at":       event.CreatedAt,
	}
	if event.Session != "" {
		fields["session"] = event.Session
	}
	if event.RefNo != "" {
		fields["ref_no"] = event.RefNo
	}
	if event.Reason != "" {
		fields["reason"] = event.Reason
	}

	h.log.WithFields(fields).Info("Booking event")
	return nil
}
