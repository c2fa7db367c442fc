package registration

import "testing"

func validOutsider() Details {
	return Details{
		Category:   CategoryOutsider,
		Name:       "Jordan Lim",
		IdentityNo: "990101045678",
		CarPlate:   "PKV 1234",
		Email:      "jordan@example.com",
		Phone:      "+60 12-345 6789",
	}
}

func TestValidateVitroxian(t *testing.T) {
	d := Details{Category: CategoryVitroxian, Name: "Mei Ling", IdentityNo: "VX-1044"}
	if result := d.Validate(); !result.Valid {
		t.Fatalf("expected valid vitroxian, got errors %v", result.Errors)
	}

	d.IdentityNo = "   "
	if result := d.Validate(); result.Valid {
		t.Fatal("expected blank identifier to fail")
	}
}

func TestValidateStudent(t *testing.T) {
	d := Details{Category: CategoryStudent, Name: "Aravind", IdentityNo: "21WMR09876", Member: true}
	if result := d.Validate(); !result.Valid {
		t.Fatalf("expected valid student, got errors %v", result.Errors)
	}
}

func TestValidateOutsider(t *testing.T) {
	d := validOutsider()
	if result := d.Validate(); !result.Valid {
		t.Fatalf("expected valid outsider, got errors %v", result.Errors)
	}

	cases := []struct {
		field  string
		mutate func(*Details)
	}{
		{"identity_no", func(d *Details) { d.IdentityNo = "12345" }},
		{"car_plate", func(d *Details) { d.CarPlate = " " }},
		{"email", func(d *Details) { d.Email = "not-an-email" }},
		{"phone", func(d *Details) { d.Phone = "123" }},
	}
	for _, tc := range cases {
		d := validOutsider()
		tc.mutate(&d)
		result := d.Validate()
		if result.Valid {
			t.Errorf("expected %s rule to fail", tc.field)
			continue
		}
		found := false
		for _, e := range result.Errors {
			if e.Field == tc.field {
				found = true
			}
		}
		if !found {
			t.Errorf("expected an error on %s, got %v", tc.field, result.Errors)
		}
	}
}

func TestValidateNameLength(t *testing.T) {
	d := Details{Category: CategoryStudent, Name: "  Al  ", IdentityNo: "22WMR01234"}
	result := d.Validate()
	if result.Valid {
		t.Fatal("expected two-character name to fail after trimming")
	}
}

func TestValidateUnknownCategory(t *testing.T) {
	d := Details{Category: Category("ALIEN"), Name: "Somebody"}
	if result := d.Validate(); result.Valid {
		t.Fatal("expected unknown category to fail")
	}
}

func TestNormalizeClearsMemberForNonStudents(t *testing.T) {
	d := validOutsider()
	d.Member = true
	d.Normalize()
	if d.Member {
		t.Fatal("member flag should be cleared for non-students")
	}

	s := Details{Category: CategoryStudent, Name: "Aravind", IdentityNo: "21WMR09876", Member: true}
	s.Normalize()
	if !s.Member {
		t.Fatal("member flag should survive for students")
	}
}

func TestNormalizeTrimsAndUppercases(t *testing.T) {
	d := Details{
		Category:   CategoryOutsider,
		Name:       "  Jordan Lim  ",
		IdentityNo: " 990101045678 ",
		CarPlate:   " pkv 1234 ",
		Email:      " jordan@example.com ",
		Phone:      " 0123456789 ",
	}
	d.Normalize()
	if d.Name != "Jordan Lim" {
		t.Errorf("name not trimmed: %q", d.Name)
	}
	if d.CarPlate != "PKV 1234" {
		t.Errorf("car plate not normalized: %q", d.CarPlate)
	}
	if d.Email != "jordan@example.com" || d.Phone != "0123456789" {
		t.Errorf("contact fields not trimmed: %q %q", d.Email, d.Phone)
	}
}

func TestEligibleForMemberDiscount(t *testing.T) {
	d := Details{Category: CategoryStudent, Member: true}
	if !d.EligibleForMemberDiscount() {
		t.Fatal("student member should be eligible")
	}
	d.Member = false
	if d.EligibleForMemberDiscount() {
		t.Fatal("non-member student should not be eligible")
	}
	o := Details{Category: CategoryOutsider, Member: true}
	if o.EligibleForMemberDiscount() {
		t.Fatal("outsider should never be eligible")
	}
}
