package admin

import "hallbook/internal/seats"

// LoginRequest carries the staff passphrase
type LoginRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

// LoginResponse carries the admin bearer token
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}

// SeatListResponse is the review queue: every non-AVAILABLE seat, newest
// hold first
type SeatListResponse struct {
	Seats []seats.SeatResponse `json:"seats"`
	Total int                  `json:"total"`
}

// ReceiptResponse carries one seat's payment receipt blob
type ReceiptResponse struct {
	SeatID  string `json:"seat_id"`
	RefNo   string `json:"ref_no"`
	Receipt string `json:"receipt"`
}

// StatsResponse summarizes the hall for the dashboard
type StatsResponse struct {
	TotalSeats    int            `json:"total_seats"`
	ByStatus      map[string]int `json:"by_status"`
	ByTier        map[string]int `json:"by_tier"`
	SoldRevenue   float64        `json:"sold_revenue"`
	PendingReview int            `json:"pending_review"`
}
