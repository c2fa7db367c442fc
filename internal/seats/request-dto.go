package seats

// CheckoutRequest starts a batch hold for the caller's session
type CheckoutRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1,max=12"`
}

// CancelCheckoutRequest releases some or all of the session's holds
type CancelCheckoutRequest struct {
	SeatIDs []string `json:"seat_ids" binding:"required,min=1"`
}

// RegistrationEntryRequest is one seat's attendee form
type RegistrationEntryRequest struct {
	SeatID     string `json:"seat_id" binding:"required"`
	Category   string `json:"category" binding:"required,oneof=VITROXIAN STUDENT OUTSIDER"`
	Name       string `json:"name" binding:"required"`
	IdentityNo string `json:"identity_no" binding:"required"`
	CarPlate   string `json:"car_plate"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Member     bool   `json:"member"`
	Vegan      bool   `json:"vegan"`
}

// SubmitRegistrationRequest carries the whole checkout form: one entry per
// held seat plus the shared payment evidence. The receipt is an opaque
// base64 blob, size-capped by config.
type SubmitRegistrationRequest struct {
	Entries []RegistrationEntryRequest `json:"entries" binding:"required,min=1,dive"`
	RefNo   string                     `json:"ref_no" binding:"required"`
	Date    string                     `json:"date" binding:"required"`
	Time    string                     `json:"time" binding:"required"`
	Receipt string                     `json:"receipt"`
}
