package schedule

import "testing"

func newTestSchedule(id, tuid string, stp STPIndicator, start, end string, mask uint8) *Schedule {
	return &Schedule{
		ID:       id,
		TUID:     tuid,
		STP:      stp,
		Calendar: NewCalendar(date(start), date(end), mask),
	}
}

func TestOverlayResolverPriority(t *testing.T) {
	var allDays uint8 = dayMonday | dayTuesday | dayWednesday | dayThursday | dayFriday | daySaturday | daySunday

	permanent := newTestSchedule("P1", "T12345", STPPermanent, "2026-01-01", "2026-03-31", allDays)
	overlay := newTestSchedule("O1", "T12345", STPOverlay, "2026-01-10", "2026-01-20", allDays)
	cancellation := newTestSchedule("C1", "T12345", STPCancellation, "2026-01-12", "2026-01-14", allDays)

	resolver := NewOverlayResolver[*Schedule]()
	out := resolver.Resolve([]*Schedule{permanent, overlay, cancellation})

	if len(out) != 2 {
		t.Fatalf("got %d surviving records, want 2 (a cancellation never survives into the output)", len(out))
	}

	for _, s := range out {
		switch s.ID {
		case "C1":
			t.Error("cancellation record should not survive into the resolved output")
		case "O1":
			if s.Calendar.Active(date("2026-01-12")) {
				t.Error("overlay should have excluded the cancellation's dates")
			}
			if !s.Calendar.Active(date("2026-01-10")) {
				t.Error("overlay should remain active outside the cancellation window")
			}
		case "P1":
			if s.Calendar.Active(date("2026-01-15")) {
				t.Error("permanent schedule should have excluded the overlay's dates")
			}
			if !s.Calendar.Active(date("2026-01-05")) {
				t.Error("permanent schedule should remain active before the overlay window")
			}
		}
	}
}

func TestOverlayResolverDropsFullyConsumedRecord(t *testing.T) {
	var allDays uint8 = dayMonday | dayTuesday | dayWednesday | dayThursday | dayFriday | daySaturday | daySunday

	permanent := newTestSchedule("P1", "T99999", STPPermanent, "2026-01-05", "2026-01-05", allDays)
	overlay := newTestSchedule("O1", "T99999", STPOverlay, "2026-01-05", "2026-01-05", allDays)

	resolver := NewOverlayResolver[*Schedule]()
	out := resolver.Resolve([]*Schedule{permanent, overlay})

	if len(out) != 1 {
		t.Fatalf("got %d surviving records, want 1 (permanent fully excluded)", len(out))
	}
	if out[0].ID != "O1" {
		t.Errorf("surviving record = %s, want O1", out[0].ID)
	}
}
