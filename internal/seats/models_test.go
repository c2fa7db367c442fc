package seats

import (
	"testing"
	"time"

	"hallbook/internal/registration"
	"hallbook/internal/shared/config"
)

func testHall() config.HallConfig {
	return config.HallConfig{
		TotalTables:     14,
		SeatsPerTable:   6,
		GoldTables:      10,
		GoldPrice:       10.88,
		SilverPrice:     8.88,
		LockDuration:    300 * time.Second,
		MemberDiscount:  1.00,
		MaxReceiptBytes: 1 << 20,
	}
}

func TestSeatIDRoundTrip(t *testing.T) {
	id := SeatID(12, 4)
	if id != "t12-s4" {
		t.Fatalf("unexpected seat id %q", id)
	}
	table, num, err := ParseSeatID(id)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if table != 12 || num != 4 {
		t.Fatalf("round trip mismatch: got (%d, %d)", table, num)
	}
}

func TestParseSeatIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"", "t1", "1-4", "s4-t1", "t0-s1", "tx-s1", "t1-s0", "t1-sx"} {
		if _, _, err := ParseSeatID(id); err == nil {
			t.Errorf("expected %q to be rejected", id)
		}
	}
}

func TestTierForTableBoundary(t *testing.T) {
	hall := testHall()
	if tier := TierForTable(10, hall); tier != TierGold {
		t.Fatalf("table 10 should be GOLD, got %s", tier)
	}
	if tier := TierForTable(11, hall); tier != TierSilver {
		t.Fatalf("table 11 should be SILVER, got %s", tier)
	}
}

func TestNewSeatDefaults(t *testing.T) {
	hall := testHall()
	seat := NewSeat(3, 2, hall)
	if seat.ID != "t3-s2" || seat.Status != StatusAvailable {
		t.Fatalf("unexpected seed record: %+v", seat)
	}
	if seat.Price != hall.GoldPrice {
		t.Fatalf("expected gold price %v, got %v", hall.GoldPrice, seat.Price)
	}
	if seat.SchemaVersion != SchemaVersion {
		t.Fatalf("expected schema version %d, got %d", SchemaVersion, seat.SchemaVersion)
	}
	if seat.LockedBy != nil || seat.LockedAt != nil {
		t.Fatal("fresh seat must carry no lock fields")
	}
}

func TestHoldExpiredBoundary(t *testing.T) {
	hall := testHall()
	lockedAt := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	session := "sess-1"
	seat := NewSeat(1, 1, hall)
	seat.Status = StatusCheckout
	seat.LockedBy = &session
	seat.LockedAt = &lockedAt

	justBefore := lockedAt.Add(hall.LockDuration - time.Millisecond)
	if seat.HoldExpired(justBefore, hall.LockDuration) {
		t.Fatal("hold should still be live just before the deadline")
	}
	atDeadline := lockedAt.Add(hall.LockDuration)
	if !seat.HoldExpired(atDeadline, hall.LockDuration) {
		t.Fatal("hold should expire exactly at lockedAt + duration")
	}

	// PENDING never expires regardless of age
	seat.Status = StatusPending
	longAfter := lockedAt.Add(24 * time.Hour)
	if seat.HoldExpired(longAfter, hall.LockDuration) {
		t.Fatal("pending registrations must not expire")
	}
}

func TestRemainingLock(t *testing.T) {
	hall := testHall()
	lockedAt := time.Now()
	seat := NewSeat(1, 1, hall)
	seat.Status = StatusCheckout
	seat.LockedAt = &lockedAt

	remaining := seat.RemainingLock(lockedAt.Add(100*time.Second), hall.LockDuration)
	if remaining != 200*time.Second {
		t.Fatalf("expected 200s remaining, got %v", remaining)
	}
	if r := seat.RemainingLock(lockedAt.Add(400*time.Second), hall.LockDuration); r != 0 {
		t.Fatalf("lapsed hold should report zero, got %v", r)
	}
}

func TestPayablePrice(t *testing.T) {
	hall := testHall()
	seat := NewSeat(2, 1, hall)
	seat.Details = &registration.Details{Category: registration.CategoryStudent, Member: true}
	if got := seat.PayablePrice(hall.MemberDiscount); got != hall.GoldPrice-1.00 {
		t.Fatalf("expected discounted price, got %v", got)
	}

	seat.Details.Member = false
	if got := seat.PayablePrice(hall.MemberDiscount); got != hall.GoldPrice {
		t.Fatalf("expected full price, got %v", got)
	}

	// discount never drives the price negative
	free := NewSeat(1, 1, hall)
	free.Price = 0.50
	free.Details = &registration.Details{Category: registration.CategoryStudent, Member: true}
	if got := free.PayablePrice(hall.MemberDiscount); got != 0 {
		t.Fatalf("expected floor at zero, got %v", got)
	}
}

func TestToResponseStripsReceipt(t *testing.T) {
	hall := testHall()
	seat := NewSeat(1, 1, hall)
	seat.Payment = &PaymentInfo{RefNo: "TXN100", Receipt: "aGVsbG8="}

	resp := seat.ToResponse()
	if resp.Payment == nil || resp.Payment.RefNo != "TXN100" {
		t.Fatal("payment metadata should survive")
	}
	if resp.Payment.Receipt != "" {
		t.Fatal("receipt blob must be stripped from snapshots")
	}
	if seat.Payment.Receipt != "aGVsbG8=" {
		t.Fatal("stored record must keep the receipt")
	}
}

func TestSeatPatchClearLockClearsBoth(t *testing.T) {
	hall := testHall()
	session := "sess-1"
	now := time.Now()
	seat := NewSeat(1, 1, hall)
	seat.Status = StatusCheckout
	seat.LockedBy = &session
	seat.LockedAt = &now

	status := StatusSold
	SeatPatch{Status: &status, ClearLock: true}.Apply(&seat)

	if seat.Status != StatusSold {
		t.Fatalf("status not applied: %s", seat.Status)
	}
	if seat.LockedBy != nil || seat.LockedAt != nil {
		t.Fatal("ClearLock must blank both lock fields together")
	}
}

func TestSeatPatchPartialMerge(t *testing.T) {
	hall := testHall()
	seat := NewSeat(1, 1, hall)
	session := "sess-9"
	now := time.Now()
	status := StatusCheckout

	SeatPatch{Status: &status, LockedBy: &session, LockedAt: &now}.Apply(&seat)
	if !seat.IsLockedBy(session) || seat.LockedAt == nil {
		t.Fatal("lock fields not applied")
	}

	// a patch touching only details must leave the lock intact
	details := registration.Details{Category: registration.CategoryStudent, Name: "Aravind", IdentityNo: "21WMR09876"}
	SeatPatch{Details: &details}.Apply(&seat)
	if !seat.IsLockedBy(session) || seat.Status != StatusCheckout {
		t.Fatal("unrelated patch must not disturb the lock")
	}
	if seat.Details == nil || seat.Details.Name != "Aravind" {
		t.Fatal("details not applied")
	}
}
