package seats

type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusSelected  Status = "SELECTED" // legacy client-side value, still accepted on read
	StatusCheckout  Status = "CHECKOUT"
	StatusPending   Status = "PENDING"
	StatusSold      Status = "SOLD"
	StatusBlocked   Status = "BLOCKED"
)

// IsValid checks if the seat status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusSelected, StatusCheckout, StatusPending, StatusSold, StatusBlocked:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsLocked reports whether the seat carries an active hold. Only CHECKOUT
// holds expire; PENDING waits for admin review.
func (s Status) IsLocked() bool {
	return s == StatusCheckout || s == StatusPending
}

// Expires reports whether a hold in this status is subject to the
// lock duration.
func (s Status) Expires() bool {
	return s == StatusCheckout
}

// CanBeHeld checks if a seat with this status can enter checkout
func (s Status) CanBeHeld() bool {
	return s == StatusAvailable
}

// CanBeSubmitted checks if a seat with this status can move to pending review
func (s Status) CanBeSubmitted() bool {
	return s == StatusCheckout
}

// CanBeApproved checks if a seat with this status can be marked sold
func (s Status) CanBeApproved() bool {
	return s == StatusPending
}
