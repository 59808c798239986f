package schedule

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"
)

// AssociationApplier merges Split/Join associations into the schedules
// they relate, producing a single merged Schedule that runs as one trip
// through the junction TIPLOC rather than two independently-dedpulicated
// ones.
type AssociationApplier struct{}

// NewAssociationApplier constructs an applier.
func NewAssociationApplier() *AssociationApplier { return &AssociationApplier{} }

// Apply walks associations and, for every pair of schedules sharing the
// association's main/associated TUIDs whose calendars actually
// intersect the association's own calendar, produces a merged Schedule.
// A TUID commonly carries more than one surviving schedule out of
// OverlayResolver (a permanent schedule with exclusions plus a
// non-overlapping overlay), so every (base, associated) pair under the
// matching TUIDs is tried, not just one arbitrarily chosen schedule.
// Associations referencing a TUID absent from the batch, or whose
// calendars never overlap once date-indicator arithmetic is applied,
// are skipped and reported, not fatal — per the spec's error table a
// missing association junction stop is tolerated per association
// rather than aborting the whole batch. Schedules that participate in
// no surviving association are returned unchanged; a schedule with
// dates consumed by a merge is returned as a clone whose calendar
// excludes those dates (the caller's slice is not mutated), or dropped
// if no operating day remains.
func (a *AssociationApplier) Apply(schedules []*Schedule, assocs []*Association) ([]*Schedule, error) {
	byTUID := make(map[string][]*Schedule, len(schedules))
	for _, s := range schedules {
		byTUID[s.TUID] = append(byTUID[s.TUID], s)
	}

	consumed := make(map[string]map[time.Time]bool) // schedule id -> dates spent in a merge
	markConsumed := func(id string, d time.Time) {
		if consumed[id] == nil {
			consumed[id] = make(map[time.Time]bool)
		}
		consumed[id][d] = true
	}

	var merged []*Schedule
	var errs error

	for _, assoc := range assocs {
		bases, ok := byTUID[assoc.MainTUID]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("association %s: main schedule %s not found", assoc.ID, assoc.MainTUID))
			continue
		}
		others, ok := byTUID[assoc.AssocTUID]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("association %s: associated schedule %s not found", assoc.ID, assoc.AssocTUID))
			continue
		}

		anyOverlap := false
		for _, main := range bases {
			for _, other := range others {
				shiftedOther := shiftForDateIndicator(other.Calendar, assoc.DateIndicator)
				if assoc.Calendar != nil {
					shiftedOther = intersectCalendars(shiftedOther, assoc.Calendar)
					if shiftedOther == nil {
						continue
					}
				}
				if main.Calendar.Overlap(shiftedOther) == OverlapNone {
					continue
				}
				anyOverlap = true

				ms, err := mergeAtJunction(main, other, assoc, shiftedOther)
				if err != nil {
					errs = multierr.Append(errs, fmt.Errorf("association %s: %w", assoc.ID, err))
					continue
				}
				if ms == nil {
					continue
				}
				merged = append(merged, ms)

				for d := main.Calendar.Start; !d.After(main.Calendar.End); d = d.AddDate(0, 0, 1) {
					if main.Calendar.Active(d) && shiftedOther.Active(d) {
						markConsumed(main.ID, d)
						markConsumed(other.ID, unshiftDate(d, assoc.DateIndicator))
					}
				}
			}
		}
		if !anyOverlap {
			errs = multierr.Append(errs, fmt.Errorf("association %s: calendars never overlap", assoc.ID))
		}
	}

	out := make([]*Schedule, 0, len(schedules)+len(merged))
	for _, s := range schedules {
		excl := consumed[s.ID]
		if len(excl) == 0 {
			out = append(out, s)
			continue
		}
		narrowed := s.Calendar.AddExcludeDays(excludeCalendarFromDates(excl))
		if narrowed == nil {
			continue
		}
		clone := s.CloneRecord(narrowed).(*Schedule)
		out = append(out, clone)
	}
	out = append(out, merged...)

	return out, errs
}

// excludeCalendarFromDates builds a throwaway Calendar that is active
// exactly on the given dates, so it can stand in as "the other
// calendar" for Calendar.AddExcludeDays, which wants a full calendar
// rather than a bare date set. It runs every weekday across the dates'
// span and excludes every date in that span not present in the set.
func excludeCalendarFromDates(dates map[time.Time]bool) *Calendar {
	if len(dates) == 0 {
		return &Calendar{Excludes: map[time.Time]bool{}}
	}
	var start, end time.Time
	first := true
	for d := range dates {
		if first || d.Before(start) {
			start = d
		}
		if first || d.After(end) {
			end = d
		}
		first = false
	}
	allDays := dayMonday | dayTuesday | dayWednesday | dayThursday | dayFriday | daySaturday | daySunday
	excludes := make(map[time.Time]bool)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if !dates[d] {
			excludes[d] = true
		}
	}
	return &Calendar{Start: start, End: end, Days: uint8(allDays), Excludes: excludes}
}

// shiftForDateIndicator translates the associated schedule's calendar
// into the main schedule's date frame: a "next day" association means
// the associated schedule's calling pattern, on the calendar date that
// is one day after the main schedule's, is the one that actually joins
// or splits on the main schedule's date (and one day before for a
// "previous day" association).
func shiftForDateIndicator(cal *Calendar, indicator AssociationDateIndicator) *Calendar {
	switch indicator {
	case DateNext:
		return cal.ShiftBackward()
	case DatePrevious:
		return cal.ShiftForward()
	default:
		return cal
	}
}

func unshiftDate(d time.Time, indicator AssociationDateIndicator) time.Time {
	switch indicator {
	case DateNext:
		return d.AddDate(0, 0, 1)
	case DatePrevious:
		return d.AddDate(0, 0, -1)
	default:
		return d
	}
}

// mergeAtJunction builds the combined calling pattern for a Split (VV)
// or Join (JJ) association. Per spec: Split keeps the base schedule's
// approach to the junction and the associated schedule's continuation
// beyond it (tuid = base_assoc); Join keeps the associated schedule's
// approach and the base schedule's continuation (tuid = assoc_base) —
// the two categories are mirror images of each other, not the same
// formula applied twice. shiftedOther is other.Calendar already
// translated into main's date frame and narrowed to the association's
// own calendar by the caller.
func mergeAtJunction(main, other *Schedule, assoc *Association, shiftedOther *Calendar) (*Schedule, error) {
	mainIdx := findStopByTIPLOC(main.Stops, assoc.JunctionTIPLOC)
	otherIdx := findStopByTIPLOC(other.Stops, assoc.JunctionTIPLOC)
	if mainIdx < 0 || otherIdx < 0 {
		return nil, fmt.Errorf("junction TIPLOC %s not found on both schedules", assoc.JunctionTIPLOC)
	}

	var tuid string
	var before, after []StopTime
	var firstPiece, secondPiece StopTime
	var shiftAfter bool

	switch assoc.Category {
	case AssocSplit:
		tuid = main.TUID + "_" + other.TUID
		before = main.Stops[:mainIdx]
		firstPiece = main.Stops[mainIdx]
		secondPiece = other.Stops[otherIdx]
		after = other.Stops[otherIdx+1:]
		shiftAfter = assoc.DateIndicator == DateNext
	case AssocJoin:
		tuid = other.TUID + "_" + main.TUID
		before = other.Stops[:otherIdx]
		firstPiece = other.Stops[otherIdx]
		secondPiece = main.Stops[mainIdx]
		after = main.Stops[mainIdx+1:]
		shiftAfter = assoc.DateIndicator == DatePrevious
	default:
		return nil, fmt.Errorf("unknown association category %q", assoc.Category)
	}

	merge := firstPiece
	merge.Arrival = firstPiece.Arrival
	merge.Departure = secondPiece.Departure
	merge.Pickup = secondPiece.Pickup
	merge.DropOff = firstPiece.DropOff
	merge.ForcedJunction = true
	if merge.Arrival.After(merge.Departure) {
		if assoc.DateIndicator == DateNext {
			merge.Departure = merge.Departure.Add(24 * time.Hour)
		} else {
			merge.Departure = merge.Arrival
		}
	}
	switch assoc.Category {
	case AssocJoin:
		merge.Pickup = PickupNone
	case AssocSplit:
		merge.DropOff = PickupNone
	}

	stops := make([]StopTime, 0, len(before)+1+len(after))
	stops = append(stops, before...)
	stops = append(stops, merge)
	for _, st := range after {
		if shiftAfter {
			st.Arrival = st.Arrival.Add(24 * time.Hour)
			st.Departure = st.Departure.Add(24 * time.Hour)
		}
		stops = append(stops, st)
	}
	for i := range stops {
		stops[i].StopSequence = i + 1
	}

	mergedCal := intersectCalendars(main.Calendar, shiftedOther)
	if mergedCal == nil {
		return nil, nil
	}

	ms := &Schedule{
		ID:             tripID(tuid, mergedCal.Start, mergedCal.End),
		TUID:           tuid,
		STP:            main.STP,
		Headcode:       main.Headcode,
		ATOCCode:       main.ATOCCode,
		TrainCategory:  main.TrainCategory,
		TrainClass:     main.TrainClass,
		Reservations:   main.Reservations,
		Calendar:       mergedCal,
		Stops:          stops,
		DepartureHour:  main.DepartureHour,
		OriginalTripID: main.ID,
	}
	return ms, nil
}

// intersectCalendars returns a's date range and weekday mask narrowed to
// what both a and b are active on, with both exclusion sets unioned in.
// Returns nil if nothing remains active.
func intersectCalendars(a, b *Calendar) *Calendar {
	start := a.Start
	if b.Start.After(start) {
		start = b.Start
	}
	end := a.End
	if b.End.Before(end) {
		end = b.End
	}
	removeMask := a.Days &^ b.Days
	excludes := make(map[time.Time]bool, len(a.Excludes)+len(b.Excludes))
	for d := range a.Excludes {
		excludes[d] = true
	}
	for d := range b.Excludes {
		excludes[d] = true
	}
	return a.Clone(start, end, removeMask, excludes)
}

func findStopByTIPLOC(stops []StopTime, tiploc string) int {
	for i, s := range stops {
		if s.TIPLOC == tiploc {
			return i
		}
	}
	return -1
}

// sortAssociations orders associations so joins/splits whose own
// calendar starts earliest are applied first, giving
// deterministic output when several associations touch the same TUID.
func sortAssociations(assocs []*Association) {
	sort.SliceStable(assocs, func(i, j int) bool {
		return assocs[i].Calendar.Start.Before(assocs[j].Calendar.Start)
	})
}
