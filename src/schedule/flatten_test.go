package schedule

import "testing"

func scheduleWithStops(id string, stops []StopTime) *Schedule {
	return &Schedule{ID: id, TUID: id, Calendar: NewCalendar(date("2026-01-01"), date("2026-01-31"), daySaturday), Stops: stops}
}

func TestFlattenDropsScheduleWithNoPublicCall(t *testing.T) {
	allPass := scheduleWithStops("S1", []StopTime{
		{CRS: "PAD", Pickup: PickupNone, DropOff: PickupNone},
		{CRS: "RDG", Pickup: PickupNone, DropOff: PickupNone},
	})
	public := scheduleWithStops("S2", []StopTime{
		{CRS: "PAD", Pickup: PickupRegular, DropOff: PickupNone},
		{CRS: "RDG", Pickup: PickupNone, DropOff: PickupRegular},
	})

	flattener := NewScheduleFlattener()
	out, err := flattener.Flatten([]*Schedule{allPass, public})
	if err != nil {
		t.Fatalf("Flatten() error = %v", err)
	}
	if len(out) != 1 || out[0].ID != "S2" {
		t.Fatalf("got %v, want only S2 to survive", out)
	}
}

func TestFlattenErrorsOnDuplicateTripID(t *testing.T) {
	a := scheduleWithStops("S1", []StopTime{{CRS: "PAD", Pickup: PickupRegular}})
	b := scheduleWithStops("S1", []StopTime{{CRS: "EUS", Pickup: PickupRegular}})

	flattener := NewScheduleFlattener()
	_, err := flattener.Flatten([]*Schedule{a, b})
	if err == nil {
		t.Fatal("expected an error for duplicate trip id, got nil")
	}
}
