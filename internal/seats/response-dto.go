package seats

import (
	"time"

	"hallbook/internal/registration"
)

// SeatResponse is the API shape of one seat record. LockedAt is epoch
// millis; the receipt blob is stripped (fetch it via the admin surface).
type SeatResponse struct {
	ID            string                `json:"id"`
	TableID       int                   `json:"table_id"`
	SeatNumber    int                   `json:"seat_number"`
	Tier          string                `json:"tier"`
	Price         float64               `json:"price"`
	Status        string                `json:"status"`
	LockedBy      string                `json:"locked_by,omitempty"`
	LockedAt      int64                 `json:"locked_at,omitempty"`
	Details       *registration.Details `json:"details,omitempty"`
	Payment       *PaymentInfo          `json:"payment,omitempty"`
	SchemaVersion int                   `json:"schema_version"`
}

// SeatMapResponse is the full snapshot pushed to subscribers
type SeatMapResponse struct {
	Seats map[string]SeatResponse `json:"seats"`
}

// CheckoutResponse confirms a successful batch hold
type CheckoutResponse struct {
	SeatIDs    []string  `json:"seat_ids"`
	ExpiresAt  time.Time `json:"expires_at"`
	TTLSeconds int       `json:"ttl_seconds"`
	TotalPrice float64   `json:"total_price"`
}

// SubmitRegistrationResponse confirms a pending submission
type SubmitRegistrationResponse struct {
	SeatIDs      []string `json:"seat_ids"`
	RefNo        string   `json:"ref_no"`
	PayableTotal float64  `json:"payable_total"`
}

// SessionHoldResponse is one held seat plus its countdown for reconnecting
// sessions
type SessionHoldResponse struct {
	Seat             SeatResponse `json:"seat"`
	RemainingSeconds int          `json:"remaining_seconds"`
}

// ToSeatMapResponse converts a snapshot into its API shape
func ToSeatMapResponse(snapshot map[string]Seat) SeatMapResponse {
	out := make(map[string]SeatResponse, len(snapshot))
	for id, seat := range snapshot {
		out[id] = seat.ToResponse()
	}
	return SeatMapResponse{Seats: out}
}
