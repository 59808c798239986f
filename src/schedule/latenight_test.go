package schedule

import "testing"

func TestDuplicateLeavesNonRolloverScheduleAlone(t *testing.T) {
	s := scheduleWithStops("S1", []StopTime{
		{CRS: "PAD", Arrival: date("2026-01-01"), Departure: date("2026-01-01")},
	})

	out := NewLateNightDuplicator().Duplicate([]*Schedule{s})
	if len(out) != 1 {
		t.Fatalf("got %d schedules, want 1 (no rollover, no duplicate)", len(out))
	}
}

func TestDuplicateAddsShiftedCopyOnRollover(t *testing.T) {
	s := scheduleWithStops("S1", []StopTime{
		{CRS: "PAD", Arrival: date("2026-01-01"), Departure: date("2026-01-01")},
		{CRS: "RDG", Arrival: date("2026-01-02"), Departure: date("2026-01-02")},
	})
	s.Calendar = NewCalendar(date("2026-01-03"), date("2026-01-31"), daySaturday)

	out := NewLateNightDuplicator().Duplicate([]*Schedule{s})
	if len(out) != 2 {
		t.Fatalf("got %d schedules, want 2 (original plus late-night duplicate)", len(out))
	}

	dup := out[1]
	if dup.ID != "S1_latenight" {
		t.Errorf("duplicate ID = %q, want %q", dup.ID, "S1_latenight")
	}
	if dup.OriginalTripID != "S1" {
		t.Errorf("duplicate OriginalTripID = %q, want %q", dup.OriginalTripID, "S1")
	}
	if !dup.Stops[1].Arrival.Equal(date("2026-01-01")) {
		t.Errorf("duplicate second stop arrival = %v, want shifted back a day to 2026-01-01", dup.Stops[1].Arrival)
	}
	if !dup.Calendar.Start.Equal(date("2026-01-02")) {
		t.Errorf("duplicate calendar start = %v, want shifted back a day", dup.Calendar.Start)
	}
}
