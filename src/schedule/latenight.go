package schedule

import "time"

// LateNightDuplicator handles a schedule whose calling pattern crosses
// midnight relative to its own calendar's running date: GTFS has no
// notion of a trip "belonging" to the day after the one it departs on,
// so such a schedule needs a second, day-shifted copy to be correctly
// selectable by a trip planner querying either date.
type LateNightDuplicator struct{}

// NewLateNightDuplicator constructs a duplicator.
func NewLateNightDuplicator() *LateNightDuplicator { return &LateNightDuplicator{} }

// Duplicate returns schedules with an extra entry appended for every
// schedule that rolls over midnight: a clone whose calendar is shifted
// one day earlier (so it represents "yesterday's" running of the same
// service as seen from today) with every stop time shifted back 24h to
// match.
func (d *LateNightDuplicator) Duplicate(schedules []*Schedule) []*Schedule {
	out := make([]*Schedule, 0, len(schedules))
	for _, s := range schedules {
		out = append(out, s)
		if !crossesMidnight(s) {
			continue
		}
		dup := duplicateShifted(s)
		out = append(out, dup)
	}
	return out
}

// crossesMidnight reports whether normalizeMidnightRollover pushed any
// stop a calendar day past the schedule's first stop: time.Time wraps
// Hour() back into 0-23 on a rollover, so the rollover has to be read
// off the date component instead.
func crossesMidnight(s *Schedule) bool {
	if len(s.Stops) == 0 {
		return false
	}
	baseDay := s.Stops[0].Departure.Day()
	for _, st := range s.Stops {
		if st.Arrival.Day() != baseDay || st.Departure.Day() != baseDay {
			return true
		}
	}
	return false
}

func duplicateShifted(s *Schedule) *Schedule {
	clone := s.CloneRecord(s.Calendar.ShiftBackward()).(*Schedule)
	clone.ID = s.ID + "_latenight"
	clone.OriginalTripID = s.ID
	for i := range clone.Stops {
		clone.Stops[i].Arrival = clone.Stops[i].Arrival.Add(-24 * time.Hour)
		clone.Stops[i].Departure = clone.Stops[i].Departure.Add(-24 * time.Hour)
	}
	return clone
}
