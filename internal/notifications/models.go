package notifications

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a booking lifecycle event
type EventType string

const (
	EventSeatsHeld             EventType = "SEATS_HELD"
	EventSeatsReleased         EventType = "SEATS_RELEASED"
	EventHoldExpired           EventType = "HOLD_EXPIRED"
	EventRegistrationSubmitted EventType = "REGISTRATION_SUBMITTED"
	EventRegistrationApproved  EventType = "REGISTRATION_APPROVED"
	EventRegistrationDeclined  EventType = "REGISTRATION_DECLINED"
	EventSeatReset             EventType = "SEAT_RESET"
)

// IsValid checks if the event type is known
func (t EventType) IsValid() bool {
	switch t {
	case EventSeatsHeld, EventSeatsReleased, EventHoldExpired,
		EventRegistrationSubmitted, EventRegistrationApproved,
		EventRegistrationDeclined, EventSeatReset:
		return true
	}
	return false
}

// BookingEvent is the message published for every booking state change.
// Downstream consumers (audit log, staff notifications) read these; the
// booking flow itself never depends on them.
type BookingEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      EventType `json:"type"`
	Session   string    `json:"session,omitempty"`
	SeatIDs   []string  `json:"seat_ids"`
	RefNo     string    `json:"ref_no,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewBookingEvent builds an event with a fresh id and timestamp
func NewBookingEvent(eventType EventType, session string, seatIDs []string) *BookingEvent {
	return &BookingEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Session:   session,
		SeatIDs:   seatIDs,
		CreatedAt: time.Now(),
	}
}

// ToJSON serializes the event for the wire
func (e *BookingEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// FromJSON deserializes an event from the wire
func FromJSON(data []byte) (*BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// PartitionKey routes all of one session's events to the same partition so
// consumers see them in order
func (e *BookingEvent) PartitionKey() string {
	if e.Session != "" {
		return e.Session
	}
	if len(e.SeatIDs) > 0 {
		return e.SeatIDs[0]
	}
	return e.ID.String()
}
