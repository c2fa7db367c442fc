package registration

import (
	"strings"
	"unicode"
)

// FieldError describes a single failed validation rule
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult carries the outcome of validating one attendee record
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

const (
	minNameLen       = 3
	minStudentIDLen  = 1
	minOutsiderICLen = 6
	minPhoneDigits   = 8
)

// Validate applies the category-dependent rule set. The rules are exhaustive
// per category: VITROXIAN and STUDENT need a non-empty identifier, OUTSIDER
// additionally needs a car plate, an email and a phone number.
func (d *Details) Validate() ValidationResult {
	var errs []FieldError

	if len(strings.TrimSpace(d.Name)) < minNameLen {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at least 3 characters"})
	}

	switch d.Category {
	case CategoryVitroxian, CategoryStudent:
		if len(strings.TrimSpace(d.IdentityNo)) < minStudentIDLen {
			errs = append(errs, FieldError{Field: "identity_no", Message: "identifier is required"})
		}
	case CategoryOutsider:
		if len(strings.TrimSpace(d.IdentityNo)) < minOutsiderICLen {
			errs = append(errs, FieldError{Field: "identity_no", Message: "IC number must be at least 6 characters"})
		}
		if strings.TrimSpace(d.CarPlate) == "" {
			errs = append(errs, FieldError{Field: "car_plate", Message: "car plate is required"})
		}
		if !strings.Contains(d.Email, "@") {
			errs = append(errs, FieldError{Field: "email", Message: "a valid email is required"})
		}
		if countDigits(d.Phone) < minPhoneDigits {
			errs = append(errs, FieldError{Field: "phone", Message: "phone number must have at least 8 digits"})
		}
	default:
		errs = append(errs, FieldError{Field: "category", Message: "category must be one of VITROXIAN, STUDENT, OUTSIDER"})
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Normalize trims free-text fields and drops flags that do not apply to the
// category. The member flag only carries meaning for students.
func (d *Details) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.IdentityNo = strings.TrimSpace(d.IdentityNo)
	d.CarPlate = strings.ToUpper(strings.TrimSpace(d.CarPlate))
	d.Email = strings.TrimSpace(d.Email)
	d.Phone = strings.TrimSpace(d.Phone)
	if d.Category != CategoryStudent {
		d.Member = false
	}
}

// EligibleForMemberDiscount reports whether this attendee qualifies for the
// per-seat member discount at total computation time.
func (d *Details) EligibleForMemberDiscount() bool {
	return d.Category == CategoryStudent && d.Member
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
