package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

// EventHandler receives booking events pulled off the topic. Implementations
// must be safe for concurrent use when more than one worker is started.
type EventHandler interface {
	HandleBookingEvent(ctx context.Context, event *BookingEvent) error
}

type BookingConsumer interface {
	StartConsumers(ctx context.Context, numWorkers int) error
	Stop() error
	HealthCheck(ctx context.Context) error
}

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeoutMs     int
	HeartbeatMs          int
	RetryBackoffMs       int
	MaxProcessingTime    time.Duration
	AutoCommit           bool
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              "hallbook-booking-workers",
		Topics:               []string{"booking-events"},
		SessionTimeoutMs:     30000,
		HeartbeatMs:          3000,
		RetryBackoffMs:       100,
		MaxProcessingTime:    5 * time.Minute,
		AutoCommit:           true,
		OffsetOldest:         false,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

type KafkaBookingConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	handler       EventHandler
	topics        []string
	ctx           context.Context
	cancel        context.CancelFunc
}

func NewKafkaBookingConsumer(config *ConsumerConfig, handler EventHandler) (BookingConsumer, error) {
	saramaConfig := sarama.NewConfig()

	saramaConfig.Consumer.Group.Session.Timeout = time.Duration(config.SessionTimeoutMs) * time.Millisecond
	saramaConfig.Consumer.Group.Heartbeat.Interval = time.Duration(config.HeartbeatMs) * time.Millisecond
	saramaConfig.Consumer.Retry.Backoff = time.Duration(config.RetryBackoffMs) * time.Millisecond
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	if config.AutoCommit {
		saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
		saramaConfig.Consumer.Offsets.AutoCommit.Interval = 1 * time.Second
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &KafkaBookingConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		handler:       handler,
		topics:        config.Topics,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func (kbc *KafkaBookingConsumer) StartConsumers(ctx context.Context, numWorkers int) error {
	log.Printf("Starting %d booking event consumer workers for topics: %v", numWorkers, kbc.topics)

	go kbc.handleErrors()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			kbc.runWorker(ctx, workerID)
		}(i)
	}

	log.Printf("All %d booking event consumer workers started", numWorkers)
	return nil
}

func (kbc *KafkaBookingConsumer) runWorker(ctx context.Context, workerID int) {
	consumer := &bookingClaimHandler{
		consumer: kbc,
		workerID: workerID,
		handler:  kbc.handler,
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d shutting down", workerID)
			return
		default:
			err := kbc.consumerGroup.Consume(ctx, kbc.topics, consumer)
			if err != nil {
				log.Printf("Worker %d error consuming messages: %v", workerID, err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (kbc *KafkaBookingConsumer) handleErrors() {
	for err := range kbc.consumerGroup.Errors() {
		log.Printf("Consumer group error: %v", err)
	}
}

func (kbc *KafkaBookingConsumer) Stop() error {
	log.Println("Stopping booking event consumer...")
	kbc.cancel()

	err := kbc.consumerGroup.Close()
	if err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}

	log.Println("Booking event consumer stopped")
	return nil
}

func (kbc *KafkaBookingConsumer) HealthCheck(ctx context.Context) error {
	select {
	case <-kbc.ctx.Done():
		return fmt.Errorf("consumer context is cancelled")
	default:
		if kbc.handler == nil {
			return fmt.Errorf("event handler not configured")
		}
		return nil
	}
}

type bookingClaimHandler struct {
	consumer *KafkaBookingConsumer
	workerID int
	handler  EventHandler
}

func (h *bookingClaimHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Printf("Worker %d: Consumer group session started", h.workerID)
	return nil
}

func (h *bookingClaimHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Printf("Worker %d: Consumer group session ended", h.workerID)
	return nil
}

func (h *bookingClaimHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			err := h.processMessage(session.Context(), message)
			if err != nil {
				log.Printf("Worker %d: Error processing message: %v", h.workerID, err)
			} else {
				session.MarkMessage(message, "")
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *bookingClaimHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	log.Printf("Worker %d: Processing booking event from topic %s, partition %d, offset %d",
		h.workerID, message.Topic, message.Partition, message.Offset)

	var event BookingEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal booking event: %w", err)
	}

	if !event.Type.IsValid() {
		log.Printf("Worker %d: Unknown event type %q, skipping", h.workerID, event.Type)
		return nil
	}

	err := h.executeWithRetry(ctx, &event)
	if err != nil {
		return err
	}

	log.Printf("Worker %d: Booking event %s (%s) handled", h.workerID, event.ID, event.Type)
	return nil
}

func (h *bookingClaimHandler) executeWithRetry(ctx context.Context, event *BookingEvent) error {
	maxRetries := h.consumer.config.MaxRetries
	backoff := h.consumer.config.RetryBackoffDuration

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := h.handler.HandleBookingEvent(ctx, event)
		if err == nil {
			if attempt > 0 {
				log.Printf("Worker %d: Successfully handled event after %d retries", h.workerID, attempt)
			}
			return nil
		}

		if attempt == maxRetries {
			log.Printf("Worker %d: Failed to handle event after %d attempts: %v", h.workerID, maxRetries, err)
			return err
		}

		// Exponential backoff
		delay := backoff * time.Duration(1<<attempt)
		log.Printf("Worker %d: Retry %d for event handling after %v", h.workerID, attempt+1, delay)

		select {
		case <-time.After(delay):
			continue
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}
