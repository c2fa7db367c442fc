package registration

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Category identifies which attendee variant applies. Each category has its
// own required-field set, enforced in Validate.
type Category string

const (
	CategoryVitroxian Category = "VITROXIAN"
	CategoryStudent   Category = "STUDENT"
	CategoryOutsider  Category = "OUTSIDER"
)

// IsValid checks if the category is one of the known variants
func (c Category) IsValid() bool {
	switch c {
	case CategoryVitroxian, CategoryStudent, CategoryOutsider:
		return true
	}
	return false
}

// String returns the string representation of Category
func (c Category) String() string {
	return string(c)
}

// Details is the attendee record attached to a seat when it moves to
// pending review. The shape is category-dependent: IdentityNo doubles as
// staff id for VITROXIAN, student id for STUDENT and IC number for
// OUTSIDER. CarPlate, Email and Phone only apply to OUTSIDER.
type Details struct {
	Category   Category `json:"category"`
	Name       string   `json:"name"`
	IdentityNo string   `json:"identity_no"`
	CarPlate   string   `json:"car_plate,omitempty"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	Member     bool     `json:"member"`
	Vegan      bool     `json:"vegan"`
}

// Value implements driver.Valuer so Details can be stored as JSONB
func (d Details) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for reading Details back from JSONB
func (d *Details) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("unsupported type for registration details: %T", value)
		}
	}
	return json.Unmarshal(bytes, d)
}
