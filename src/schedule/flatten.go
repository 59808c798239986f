package schedule

import "fmt"

// ScheduleFlattener performs the final pre-output pass over built
// schedules: drop anything with no public call left (an all-pass or
// all-operational schedule has nothing a passenger could board), and
// fail loudly on a duplicate trip id, since two trips sharing an id is
// a downstream GTFS consumer's worst day, not a recoverable condition.
type ScheduleFlattener struct{}

// NewScheduleFlattener constructs a flattener.
func NewScheduleFlattener() *ScheduleFlattener { return &ScheduleFlattener{} }

// Flatten returns schedules with at least one public-facing stop,
// erroring on the first duplicate trip id it encounters.
func (f *ScheduleFlattener) Flatten(schedules []*Schedule) ([]*Schedule, error) {
	seen := make(map[string]bool, len(schedules))
	out := make([]*Schedule, 0, len(schedules))

	for _, s := range schedules {
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate trip id %q", s.ID)
		}
		seen[s.ID] = true

		if !hasPublicCall(s.Stops) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func hasPublicCall(stops []StopTime) bool {
	for _, st := range stops {
		if st.Pickup == PickupRegular || st.DropOff == PickupRegular {
			return true
		}
	}
	return false
}
