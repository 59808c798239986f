package schedule

import (
	"fmt"
	"testing"
	"time"
)

// sliceRowSource is an in-memory RowSource for tests, shaped the same
// way a *pgxpool.Rows is: Next/Scan/Err, so the builder never has to
// know it isn't talking to Postgres.
type sliceRowSource struct {
	rows []Row
	idx  int
}

func (s *sliceRowSource) Next() bool {
	if s.idx >= len(s.rows) {
		return false
	}
	s.idx++
	return true
}

func (s *sliceRowSource) Scan(dest ...any) error {
	if len(dest) != 1 {
		return fmt.Errorf("sliceRowSource.Scan: expected 1 dest, got %d", len(dest))
	}
	ptr, ok := dest[0].(*Row)
	if !ok {
		return fmt.Errorf("sliceRowSource.Scan: dest is not *Row")
	}
	*ptr = s.rows[s.idx-1]
	return nil
}

func (s *sliceRowSource) Err() error { return nil }

func scanRow(src RowSource) (Row, error) {
	var r Row
	err := src.Scan(&r)
	return r, err
}

func clockTime(hhmm string) *time.Time {
	t, err := time.Parse("1504", hhmm)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestStreamingBuilderMidnightRollover(t *testing.T) {
	rows := []Row{
		{
			ScheduleID: "S1", TUID: "T1", STP: STPPermanent,
			CRS: "PAD", TIPLOC: "PADTON", Departure: clockTime("2330"), PublicDeparture: clockTime("2330"),
			Activity: ActivityTrainBegins,
		},
		{
			ScheduleID: "S1", TUID: "T1", STP: STPPermanent,
			CRS: "RDG", TIPLOC: "READING", Arrival: clockTime("0010"), PublicArrival: clockTime("0010"),
			Departure: clockTime("0012"), PublicDeparture: clockTime("0012"),
			Activity: ActivityStopsToSetDown,
		},
	}

	builder := NewStreamingScheduleBuilder(BuilderOptions{})
	src := &sliceRowSource{rows: rows}
	out, err := builder.Build(src, scanRow)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d schedules, want 1", len(out))
	}

	sched := out[0]
	if len(sched.Stops) != 2 {
		t.Fatalf("got %d stops, want 2", len(sched.Stops))
	}
	first, second := sched.Stops[0], sched.Stops[1]
	if !second.Arrival.After(first.Departure) {
		t.Errorf("second stop arrival %v should fall after first stop departure %v once rolled over", second.Arrival, first.Departure)
	}
	if second.Arrival.Day() == first.Departure.Day() {
		t.Error("expected 00:10 to roll onto the day after a 23:30 departure, not stay on the same day")
	}
}

func TestStreamingBuilderSkipsCancellationStops(t *testing.T) {
	rows := []Row{
		{ScheduleID: "S2", TUID: "T2", STP: STPCancellation, CRS: "PAD", Activity: ActivityTrainBegins},
	}

	builder := NewStreamingScheduleBuilder(BuilderOptions{})
	src := &sliceRowSource{rows: rows}
	out, err := builder.Build(src, scanRow)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d schedules, want 1", len(out))
	}
	if len(out[0].Stops) != 0 {
		t.Errorf("got %d stops on a cancellation schedule, want 0", len(out[0].Stops))
	}
}

func TestStreamingBuilderUseScheduledWhenNoPublicDefaultFalse(t *testing.T) {
	rows := []Row{
		{
			ScheduleID: "S3", TUID: "T3", STP: STPPermanent,
			CRS: "EUS", Departure: clockTime("0900"), Activity: ActivityTrainBegins,
		},
	}

	builder := NewStreamingScheduleBuilder(BuilderOptions{UseScheduledWhenNoPublic: false})
	src := &sliceRowSource{rows: rows}
	out, err := builder.Build(src, scanRow)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(out[0].Stops) != 0 {
		t.Errorf("got %d stops, want 0 (no public time and no scheduled-time fallback)", len(out[0].Stops))
	}
}

func TestRouteTypeForCategory(t *testing.T) {
	cases := map[string]RouteMode{
		"OO": ModeRail, "XC": ModeRail, "BR": ModeReplacementBus,
		"BS": ModeBus, "OL": ModeSubway, "SS": ModeFerry, "ZZ": ModeRail,
	}
	for category, want := range cases {
		if got := RouteTypeForCategory(category); got != want {
			t.Errorf("RouteTypeForCategory(%q) = %v, want %v", category, got, want)
		}
	}
}
