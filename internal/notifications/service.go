package notifications

import (
	"context"
	"time"

	"hallbook/pkg/logger"

	"hallbook/internal/seats"
)

// publishTimeout bounds each background publish so a wedged broker can
// never pile up goroutines indefinitely.
const publishTimeout = 5 * time.Second

// EventPublisher fans booking lifecycle and admin review events out to
// Kafka. Every method is fire-and-forget: publish failures are logged and
// dropped, the booking flow never waits on the broker. A nil producer
// turns the publisher into a no-op, which is how the service runs with
// Kafka disabled.
type EventPublisher struct {
	producer Producer
	log      *logger.Logger
}

func NewEventPublisher(producer Producer, log *logger.Logger) *EventPublisher {
	if log == nil {
		log = logger.GetDefault()
	}
	return &EventPublisher{
		producer: producer,
		log:      log,
	}
}

func (p *EventPublisher) SeatsHeld(ctx context.Context, session string, seatIDs []string) {
	p.publish(NewBookingEvent(EventSeatsHeld, session, seatIDs))
}

func (p *EventPublisher) SeatsReleased(ctx context.Context, session string, seatIDs []string, reason string) {
	event := NewBookingEvent(EventSeatsReleased, session, seatIDs)
	event.Reason = reason
	p.publish(event)
}

func (p *EventPublisher) RegistrationSubmitted(ctx context.Context, session string, seatIDs []string, refNo string) {
	event := NewBookingEvent(EventRegistrationSubmitted, session, seatIDs)
	event.RefNo = refNo
	p.publish(event)
}

// HoldsExpired publishes one event per lapsed seat, keyed by the session
// that held it. Wired to the expiry watchdog.
func (p *EventPublisher) HoldsExpired(ctx context.Context, released []seats.Seat) {
	for _, seat := range released {
		session := ""
		if seat.LockedBy != nil {
			session = *seat.LockedBy
		}
		event := NewBookingEvent(EventHoldExpired, session, []string{seat.ID})
		event.Reason = "hold expired"
		p.publish(event)
	}
}

func (p *EventPublisher) RegistrationApproved(ctx context.Context, seatID string) {
	p.publish(NewBookingEvent(EventRegistrationApproved, "", []string{seatID}))
}

func (p *EventPublisher) RegistrationDeclined(ctx context.Context, seatID string) {
	p.publish(NewBookingEvent(EventRegistrationDeclined, "", []string{seatID}))
}

func (p *EventPublisher) SeatReset(ctx context.Context, seatID string) {
	p.publish(NewBookingEvent(EventSeatReset, "", []string{seatID}))
}

func (p *EventPublisher) Close() error {
	if p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// publish hands the event to the broker on a background goroutine with its
// own deadline, detached from the caller's request context.
func (p *EventPublisher) publish(event *BookingEvent) {
	if p.producer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		if err := p.producer.PublishBookingEvent(ctx, event); err != nil {
			p.log.WithError(err).WithFields(map[string]interface{}{
				"event_id":   event.ID.String(),
				"event_type": string(event.Type),
			}).Error("Failed to publish booking event")
		}
	}()
}
