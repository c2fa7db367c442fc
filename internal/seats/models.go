package seats

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"hallbook/internal/registration"
	"hallbook/internal/shared/config"
)

// SchemaVersion tags every persisted seat record. The record shape has
// grown over time (contact fields, receipt blob), so readers check the
// version instead of sniffing optional fields.
const SchemaVersion = 2

// Tier is the pricing band a table belongs to
type Tier string

const (
	TierPlatinum Tier = "PLATINUM"
	TierGold     Tier = "GOLD"
	TierSilver   Tier = "SILVER"
)

// Seat is the unit of sale. Lock state lives inline on the record as the
// (LockedBy, LockedAt, Status) triple; there is no separate lock table.
type Seat struct {
	ID            string                `gorm:"type:varchar(16);primaryKey" json:"id"`
	TableID       int                   `gorm:"not null;uniqueIndex:idx_table_seat" json:"table_id"`
	SeatNumber    int                   `gorm:"not null;uniqueIndex:idx_table_seat" json:"seat_number"`
	Tier          Tier                  `gorm:"type:varchar(10);not null" json:"tier"`
	Price         float64               `gorm:"not null" json:"price"`
	Status        Status                `gorm:"type:varchar(10);not null;default:'AVAILABLE';index" json:"status"`
	LockedBy      *string               `gorm:"type:varchar(64);index" json:"locked_by,omitempty"`
	LockedAt      *time.Time            `json:"locked_at,omitempty"`
	Details       *registration.Details `gorm:"type:jsonb" json:"details,omitempty"`
	Payment       *PaymentInfo          `gorm:"type:jsonb" json:"payment,omitempty"`
	SchemaVersion int                   `gorm:"not null;default:2" json:"schema_version"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats_v2"
}

// PaymentInfo records the payment evidence submitted with a registration.
// The receipt is an opaque base64 blob, never verified against any gateway.
type PaymentInfo struct {
	RefNo   string `json:"ref_no"`
	Date    string `json:"date"`
	Time    string `json:"time"`
	Receipt string `json:"receipt,omitempty"`
}

// Value implements driver.Valuer so PaymentInfo can be stored as JSONB
func (p PaymentInfo) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements sql.Scanner for reading PaymentInfo back from JSONB
func (p *PaymentInfo) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("unsupported type for payment info: %T", value)
		}
	}
	return json.Unmarshal(bytes, p)
}

// SeatID derives the stable string key for a (table, seat-number) pair.
// The id is never reused for a different physical seat.
func SeatID(tableID, seatNumber int) string {
	return "t" + strconv.Itoa(tableID) + "-s" + strconv.Itoa(seatNumber)
}

// ParseSeatID splits an id of the form "t{N}-s{M}" back into its parts
func ParseSeatID(id string) (tableID, seatNumber int, err error) {
	parts := strings.SplitN(id, "-", 2)
	if len(parts) != 2 || !strings.HasPrefix(parts[0], "t") || !strings.HasPrefix(parts[1], "s") {
		return 0, 0, fmt.Errorf("malformed seat id %q", id)
	}
	tableID, err = strconv.Atoi(parts[0][1:])
	if err != nil || tableID < 1 {
		return 0, 0, fmt.Errorf("malformed seat id %q", id)
	}
	seatNumber, err = strconv.Atoi(parts[1][1:])
	if err != nil || seatNumber < 1 {
		return 0, 0, fmt.Errorf("malformed seat id %q", id)
	}
	return tableID, seatNumber, nil
}

// TierForTable maps a table number onto its pricing band
func TierForTable(tableID int, hall config.HallConfig) Tier {
	if tableID <= hall.GoldTables {
		return TierGold
	}
	return TierSilver
}

// PriceForTier returns the current list price for a tier. Prices are
// materialized onto seat records at seeding time; later changes do not
// retroactively alter existing records.
func PriceForTier(tier Tier, hall config.HallConfig) float64 {
	switch tier {
	case TierPlatinum:
		return hall.PlatinumPrice
	case TierGold:
		return hall.GoldPrice
	default:
		return hall.SilverPrice
	}
}

// NewSeat materializes a fresh AVAILABLE record for a physical seat
func NewSeat(tableID, seatNumber int, hall config.HallConfig) Seat {
	tier := TierForTable(tableID, hall)
	return Seat{
		ID:            SeatID(tableID, seatNumber),
		TableID:       tableID,
		SeatNumber:    seatNumber,
		Tier:          tier,
		Price:         PriceForTier(tier, hall),
		Status:        StatusAvailable,
		SchemaVersion: SchemaVersion,
	}
}

// IsLockedBy reports whether this session currently holds the seat
func (s *Seat) IsLockedBy(session string) bool {
	return s.LockedBy != nil && *s.LockedBy == session
}

// HoldExpired reports whether a CHECKOUT hold has outlived the lock
// duration. PENDING and SOLD seats never expire.
func (s *Seat) HoldExpired(now time.Time, duration time.Duration) bool {
	if !s.Status.Expires() || s.LockedAt == nil {
		return false
	}
	return !now.Before(s.LockedAt.Add(duration))
}

// RemainingLock returns how long the current hold has left, zero when the
// hold has lapsed or the seat is not in checkout.
func (s *Seat) RemainingLock(now time.Time, duration time.Duration) time.Duration {
	if !s.Status.Expires() || s.LockedAt == nil {
		return 0
	}
	remaining := s.LockedAt.Add(duration).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PayablePrice returns the amount owed for this seat, applying the member
// discount where the attendee qualifies. Computed at submission time only;
// the stored price is never mutated.
func (s *Seat) PayablePrice(discount float64) float64 {
	if s.Details != nil && s.Details.EligibleForMemberDiscount() {
		price := s.Price - discount
		if price < 0 {
			return 0
		}
		return price
	}
	return s.Price
}

// ToResponse converts a seat to its API shape. Lock timestamps go out as
// epoch millis to match what the seating chart client consumes.
func (s *Seat) ToResponse() SeatResponse {
	resp := SeatResponse{
		ID:            s.ID,
		TableID:       s.TableID,
		SeatNumber:    s.SeatNumber,
		Tier:          string(s.Tier),
		Price:         s.Price,
		Status:        s.Status.String(),
		SchemaVersion: s.SchemaVersion,
	}
	if s.LockedBy != nil {
		resp.LockedBy = *s.LockedBy
	}
	if s.LockedAt != nil {
		resp.LockedAt = s.LockedAt.UnixMilli()
	}
	if s.Details != nil {
		d := *s.Details
		resp.Details = &d
	}
	if s.Payment != nil {
		p := *s.Payment
		p.Receipt = "" // blobs are fetched separately, not pushed in snapshots
		resp.Payment = &p
	}
	return resp
}
