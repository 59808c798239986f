package schedule

import (
	"fmt"
	"strings"
	"time"
)

// RowSource is the iteration contract the streaming builder folds over.
// Its method set is deliberately shaped to match pgx.Rows: a *pgxpool.Rows
// satisfies it without an adapter, while tests and the VSTP live path can
// supply an in-memory slice-backed implementation instead.
type RowSource interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// BuilderOptions configures the streaming builder's handful of
// behavioural switches.
type BuilderOptions struct {
	// UseScheduledWhenNoPublic controls whether a stop with no public
	// time falls back to its working (scheduled) time as the GTFS call
	// time. Default false: a stop with neither public time is simply
	// not a public call and drops from the output, since the later of
	// the two competing sources (public, when present) is what the
	// spec designates authoritative for passenger-facing GTFS.
	UseScheduledWhenNoPublic bool
}

var trainCategoryRouteType = map[string]RouteMode{
	"OO": ModeRail, "XX": ModeRail, "XZ": ModeRail, "XC": ModeRail,
	"BR": ModeReplacementBus,
	"BS": ModeBus,
	"OL": ModeSubway,
	"SS": ModeFerry,
}

// tripID derives a Schedule's trip id from its TUID and running dates,
// matching the spec's "{tuid}_{runsFrom:YYYYMMDD}_{runsTo:YYYYMMDD}"
// format.
func tripID(tuid string, start, end time.Time) string {
	return fmt.Sprintf("%s_%s_%s", strings.TrimSpace(tuid), start.Format("20060102"), end.Format("20060102"))
}

// RouteTypeForCategory maps a CIF_train_category code to a GTFS
// route_type, defaulting to Rail for anything not in the static table.
func RouteTypeForCategory(category string) RouteMode {
	if mode, ok := trainCategoryRouteType[category]; ok {
		return mode
	}
	return ModeRail
}

// activityFlags derives pickup/dropoff/pass/advertised-ness from a raw
// CIF activity field, which can carry several 2-character codes
// concatenated back to back (e.g. "TB" alone, or "U D " for a stop that
// is simultaneously a pick-up and set-down point under two activities).
type activityFlags struct {
	pickup        bool
	dropoff       bool
	coordinate    bool // "R ": stops only when required, both ends coordinate with the driver
	notAdvertised bool // "N ": not advertised to the public; rowToStop drops the row, no stop with nulled times is kept
	isPass        bool
}

var pickupActivities = map[string]bool{"T ": true, "TB": true, "U ": true}
var dropoffActivities = map[string]bool{"T ": true, "TF": true, "D ": true}

func parseActivity(code ActivityCode) activityFlags {
	var flags activityFlags
	raw := string(code)
	for i := 0; i+2 <= len(raw); i += 2 {
		c := raw[i : i+2]
		switch c {
		case "PP", "OP":
			return activityFlags{isPass: true}
		case "N ":
			return activityFlags{notAdvertised: true}
		case "R ":
			flags.coordinate = true
		}
		if pickupActivities[c] {
			flags.pickup = true
		}
		if dropoffActivities[c] {
			flags.dropoff = true
		}
	}
	return flags
}

// StreamingScheduleBuilder folds an ordered sequence of Rows — ordered
// (stp_indicator DESC, schedule id, stop order) by the caller — into
// built Schedule values, one schedule boundary at a time, without ever
// materialising the whole row set.
type StreamingScheduleBuilder struct {
	opts BuilderOptions
}

// NewStreamingScheduleBuilder constructs a builder with opts.
func NewStreamingScheduleBuilder(opts BuilderOptions) *StreamingScheduleBuilder {
	return &StreamingScheduleBuilder{opts: opts}
}

// Build drains src one row at a time via Next/Scan, emitting one
// Schedule per contiguous run of rows sharing a ScheduleID. It never
// materialises the full row set: rows are read one at a time from the
// caller's RowSource (ordered stp_indicator DESC, schedule id, stop
// order), and only the built schedules are kept. Rows belonging
// to a Cancellation-STP schedule contribute no stops (§4.2's "skip stop
// construction for cancellation STP" rule) but the schedule is still
// emitted, with zero stops, so downstream overlay resolution still sees
// its calendar.
func (b *StreamingScheduleBuilder) Build(src RowSource, scan func(RowSource) (Row, error)) ([]*Schedule, error) {
	var out []*Schedule
	var cur *Schedule
	var curRawID string
	var prevRow *Row
	var prevStop *StopTime

	flush := func() {
		if cur == nil {
			return
		}
		renumber(cur)
		out = append(out, cur)
		cur = nil
		curRawID = ""
		prevRow = nil
		prevStop = nil
	}

	for src.Next() {
		r, err := scan(src)
		if err != nil {
			return nil, err
		}
		row := &r
		if cur == nil || row.ScheduleID != curRawID {
			flush()
			curRawID = row.ScheduleID
			cur = &Schedule{
				ID:            tripID(row.TUID, row.ScheduleStart, row.ScheduleEnd),
				TUID:          row.TUID,
				STP:           row.STP,
				Headcode:      row.Headcode,
				ATOCCode:      row.ATOCCode,
				TrainCategory: row.TrainCategory,
				TrainClass:    row.TrainClass,
				Reservations:  row.Reservations,
				Calendar:      NewCalendar(row.ScheduleStart, row.ScheduleEnd, ParseDaysRun(row.DaysRun)),
			}
		}

		if row.STP == STPCancellation {
			continue
		}

		stop, ok := b.rowToStop(row)
		if !ok {
			continue
		}

		if prevStop != nil && prevStop.CRS == stop.CRS && prevRow.ScheduleID == row.ScheduleID {
			merged, keep := mergeAdjacentSameCRS(*prevStop, stop)
			if !keep {
				prevRow = row
				continue
			}
			cur.Stops[len(cur.Stops)-1] = merged
			prevStop = &cur.Stops[len(cur.Stops)-1]
			prevRow = row
			continue
		}

		if cur.DepartureHour == 0 && len(cur.Stops) == 0 {
			cur.DepartureHour = stop.Departure.Hour()
		}
		normalizeMidnightRollover(&stop, cur.DepartureHour)

		cur.Stops = append(cur.Stops, stop)
		prevStop = &cur.Stops[len(cur.Stops)-1]
		prevRow = row
	}
	flush()

	return out, src.Err()
}

// rowToStop converts a single CIF row into a StopTime, selecting the
// public time when present and, only if UseScheduledWhenNoPublic is
// set, falling back to the working time. A row contributing no usable
// time source at all is not a stop.
func (b *StreamingScheduleBuilder) rowToStop(row *Row) (StopTime, bool) {
	flags := parseActivity(row.Activity)
	if flags.isPass {
		return StopTime{}, false
	}

	if flags.notAdvertised {
		return StopTime{}, false
	}

	arr, arrOK := pickTime(row.PublicArrival, row.Arrival, b.opts.UseScheduledWhenNoPublic)
	dep, depOK := pickTime(row.PublicDeparture, row.Departure, b.opts.UseScheduledWhenNoPublic)
	if !arrOK && !depOK {
		return StopTime{}, false
	}
	if !arrOK {
		arr = dep
	}
	if !depOK {
		dep = arr
	}

	pickup, dropoff := PickupNone, PickupNone
	if flags.coordinate {
		pickup, dropoff = PickupCoordinateDriver, PickupCoordinateDriver
	} else {
		if flags.pickup {
			pickup = PickupRegular
		}
		if flags.dropoff {
			dropoff = PickupRegular
		}
	}

	return StopTime{
		ATCO:      atcoForCRS(row.CRS),
		CRS:       row.CRS,
		TIPLOC:    row.TIPLOC,
		Arrival:   arr,
		Departure: dep,
		Platform:  row.Platform,
		Pickup:    pickup,
		DropOff:   dropoff,
		Timepoint: row.PublicArrival != nil || row.PublicDeparture != nil,
		FirstClass: firstClassAvailable(row.TrainClass),
	}, true
}

// atcoForCRS derives a GTFS stop_id from a CRS code under National
// Rail's own ATCO convention: a rail station's ATCO code is "9100"
// followed by its 3-letter CRS code. No separate ATCO table is loaded
// anywhere in this pipeline, so this is the only ATCO source; it holds
// for every National Rail station and is what pipeline.go uses as
// GTFSStopTime.StopID instead of the bare CRS.
func atcoForCRS(crs string) string {
	if crs == "" {
		return ""
	}
	return "9100" + crs
}

func pickTime(public, scheduled *time.Time, fallback bool) (time.Time, bool) {
	if public != nil {
		return *public, true
	}
	if fallback && scheduled != nil {
		return *scheduled, true
	}
	return time.Time{}, false
}

// normalizeMidnightRollover pushes a stop's clock times forward a day
// once the schedule has rolled past midnight: if the current hour is
// earlier than the schedule's first departure hour, and that departure
// hour is late enough (>=4) that an earlier-looking hour can only mean
// a rollover rather than an early-morning first stop, add 24h.
func normalizeMidnightRollover(stop *StopTime, departureHour int) {
	if departureHour < 4 {
		return
	}
	if stop.Arrival.Hour() < departureHour {
		stop.Arrival = stop.Arrival.Add(24 * time.Hour)
	}
	if stop.Departure.Hour() < departureHour {
		stop.Departure = stop.Departure.Add(24 * time.Hour)
	}
}

// mergeAdjacentSameCRS implements the spec's rule for two consecutive
// rows sharing a CRS (typically a TIPLOC split across two physical
// platforms at one station): merge into a single stop carrying the
// earlier arrival and later departure, keeping the more permissive
// pickup/dropoff of the two, unless neither row actually allows a
// public call, in which case the incoming row is dropped and the
// earlier stop is kept as it was.
func mergeAdjacentSameCRS(prev, next StopTime) (StopTime, bool) {
	if prev.Pickup == PickupNone && prev.DropOff == PickupNone &&
		next.Pickup == PickupNone && next.DropOff == PickupNone {
		return StopTime{}, false
	}
	merged := prev
	if next.Departure.After(merged.Departure) {
		merged.Departure = next.Departure
	}
	if next.Arrival.Before(merged.Arrival) {
		merged.Arrival = next.Arrival
	}
	if next.Pickup < merged.Pickup {
		merged.Pickup = next.Pickup
	}
	if next.DropOff < merged.DropOff {
		merged.DropOff = next.DropOff
	}
	return merged, true
}

func renumber(s *Schedule) {
	for i := range s.Stops {
		s.Stops[i].StopSequence = i + 1
	}
}

// firstClassAvailable reports whether a stop's train carries first
// class accommodation, derived from CIF_train_class ("" or "B" means
// both classes are available; "S" means standard only).
func firstClassAvailable(trainClass string) bool {
	return trainClass != "S"
}

// reservationPossible reports whether seat reservation is possible for
// this schedule, derived from CIF_reservations.
func reservationPossible(reservations string) bool {
	switch reservations {
	case "A", "R", "S":
		return true
	default:
		return false
	}
}
