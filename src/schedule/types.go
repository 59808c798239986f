package schedule

import "time"

// STPIndicator is CIF's "how does this record relate to others sharing
// the same TUID" flag. Overlay resolution takes records lowest priority
// first (Permanent, then Overlay, New, Cancellation) and lets each later
// record carve its dates out of the earlier ones, so Cancellation and
// New both take precedence over Overlay, which takes precedence over
// Permanent.
type STPIndicator byte

const (
	STPPermanent    STPIndicator = 'P'
	STPOverlay      STPIndicator = 'O'
	STPNew          STPIndicator = 'N'
	STPCancellation STPIndicator = 'C'
)

func (s STPIndicator) priority() int {
	switch s {
	case STPCancellation:
		return 3
	case STPNew:
		return 2
	case STPOverlay:
		return 1
	default:
		return 0
	}
}

// ActivityCode is one of the 2-character CIF location activity codes
// relevant to GTFS pickup/dropoff derivation. The full CIF set carries
// many more codes (crew changes, attaches, request stops); only the
// ones that change passenger pickup/dropoff behaviour are modelled.
type ActivityCode string

const (
	ActivityNone              ActivityCode = "  "
	ActivityTrainBegins       ActivityCode = "TB"
	ActivityTrainFinishes     ActivityCode = "TF"
	ActivityStopsToPickUp     ActivityCode = "U "
	ActivityStopsToSetDown    ActivityCode = "D "
	ActivityStopsNotAdvertise ActivityCode = "N "
	ActivityStopsOperational  ActivityCode = "OP"
	ActivityPass              ActivityCode = "PP"
)

// GTFSPickupDropoff mirrors the stop_times.txt pickup_type/drop_off_type
// enumeration: 0 regular, 1 none, 2 phone ahead, 3 coordinate with driver.
type GTFSPickupDropoff int

const (
	PickupRegular           GTFSPickupDropoff = 0
	PickupNone              GTFSPickupDropoff = 1
	PickupCoordinateDriver  GTFSPickupDropoff = 3
)

// Row is the single shape every CIF stop-time record is read through,
// whatever table or feed it came from. It is deliberately flat: the
// builder never needs to know whether a row arrived via a batch SQL
// query or a VSTP live amendment.
type Row struct {
	ScheduleID      string
	TUID            string
	STP             STPIndicator
	TrainCategory   string
	ATOCCode        string
	Headcode        string
	TrainClass      string // CIF_train_class: "B" both, "S" standard-only, empty unspecified
	Reservations    string // CIF_reservations: "A" compulsory, "R" recommended, "S" possible, empty none
	ScheduleStart   time.Time
	ScheduleEnd     time.Time
	DaysRun         string // CIF_schedule_days_runs: 7 chars, Mon..Sun, '1' runs/'0' doesn't
	CRS             string
	TIPLOC          string
	LocationOrder   int
	Arrival         *time.Time
	PublicArrival   *time.Time
	Departure       *time.Time
	PublicDeparture *time.Time
	Pass            *time.Time
	Platform        string
	Activity        ActivityCode
}

// StopTime is a single resolved call at a location within a built
// Schedule, after time-source selection and sequence renumbering. CRS
// and TIPLOC are what every rule predicate and junction lookup in this
// package compares on; ATCO is carried alongside purely because it's
// the code GTFS output keys a stop_id on, never as a comparison key.
type StopTime struct {
	StopSequence  int
	ATCO          string
	CRS           string
	TIPLOC        string
	Arrival       time.Time
	Departure     time.Time
	Platform      string
	Headsign      string
	Pickup        GTFSPickupDropoff
	DropOff       GTFSPickupDropoff
	Timepoint     bool // true when the call time came from the public timetable, not a working-time fallback
	FirstClass    bool
	ForcedJunction bool // true for the stop synthesised/forced at an association junction
}

// Schedule is a single train's built, not-yet-flattened journey: one
// CIF TUID's calling pattern paired with the calendar it runs on.
type Schedule struct {
	ID                  string
	TUID                string
	STP                 STPIndicator
	Headcode            string
	ATOCCode            string
	TrainCategory        string
	TrainClass          string
	Reservations        string
	Calendar            *Calendar
	Stops               []StopTime
	DepartureHour       int
	OriginalTripID       string // carried across late-night duplication / association merges
}

// OverlayRecord is the capability interface OverlayResolver needs from
// whatever element type (Schedule or Association) it is collapsing.
// Any type satisfying it can go through the same overlay pass.
type OverlayRecord interface {
	RecordID() string
	RecordTUID() string
	RecordSTP() STPIndicator
	RecordCalendar() *Calendar
	CloneRecord(cal *Calendar) OverlayRecord
}

func (s *Schedule) RecordID() string        { return s.ID }
func (s *Schedule) RecordTUID() string      { return s.TUID }
func (s *Schedule) RecordSTP() STPIndicator { return s.STP }
func (s *Schedule) RecordCalendar() *Calendar { return s.Calendar }
func (s *Schedule) CloneRecord(cal *Calendar) OverlayRecord {
	clone := *s
	clone.Calendar = cal
	stops := make([]StopTime, len(s.Stops))
	copy(stops, s.Stops)
	clone.Stops = stops
	return &clone
}

// AssociationCategory is CIF's JJ (join) / VV (split, "divide") code.
type AssociationCategory string

const (
	AssocJoin  AssociationCategory = "JJ"
	AssocSplit AssociationCategory = "VV"
)

// AssociationDateIndicator is CIF's same/next/previous-day flag relating
// the associated schedule's day of operation to the main schedule's.
type AssociationDateIndicator string

const (
	DateSame     AssociationDateIndicator = "S"
	DateNext     AssociationDateIndicator = "N"
	DatePrevious AssociationDateIndicator = "P"
)

// Association is a resolved Split/Join link between two TUIDs at a
// TIPLOC junction.
type Association struct {
	ID            string
	MainTUID      string
	AssocTUID     string
	STP           STPIndicator
	Category      AssociationCategory
	DateIndicator AssociationDateIndicator
	JunctionTIPLOC string
	Calendar      *Calendar
}

func (a *Association) RecordID() string          { return a.ID }
func (a *Association) RecordTUID() string        { return a.MainTUID }
func (a *Association) RecordSTP() STPIndicator    { return a.STP }
func (a *Association) RecordCalendar() *Calendar  { return a.Calendar }
func (a *Association) CloneRecord(cal *Calendar) OverlayRecord {
	clone := *a
	clone.Calendar = cal
	return &clone
}

// RouteMode mirrors the GTFS routes.txt route_type values this engine
// derives from CIF_train_category.
type RouteMode int

const (
	ModeRail           RouteMode = 2
	ModeBus            RouteMode = 3
	ModeReplacementBus RouteMode = 714
	ModeSubway         RouteMode = 1
	ModeFerry          RouteMode = 4
)

// GTFSAgency is the agency.txt row shape.
type GTFSAgency struct {
	AgencyID string
	Name     string
	URL      string
	Timezone string
}

// GTFSRoute is the routes.txt row shape.
type GTFSRoute struct {
	RouteID        string
	AgencyID       string
	ShortName      string
	LongName       string
	Type           RouteMode
	Color          string
	TextColor      string
}

// GTFSStop is the stops.txt row shape, carrying the non-standard
// platform_code column the engine's platform-aware calling points need.
type GTFSStop struct {
	StopID       string
	Code         string // CRS
	Name         string
	PlatformCode string
}

// GTFSTrip is the trips.txt row shape, carrying the non-standard
// original_trip_id column that lets a late-night-duplicated or
// association-merged trip be traced back to the CIF schedule it came
// from.
type GTFSTrip struct {
	RouteID         string
	ServiceID       string
	TripID          string
	Headsign        string
	ShapeID         string
	OriginalTripID  string
}

// GTFSStopTime is the stop_times.txt row shape.
type GTFSStopTime struct {
	TripID        string
	StopSequence  int
	StopID        string
	Arrival       time.Time
	Departure     time.Time
	Headsign      string
	Pickup        GTFSPickupDropoff
	DropOff       GTFSPickupDropoff
	Timepoint     bool
}

// GTFSShape is one point of a shapes.txt polyline. This engine derives
// shapes purely from calling-point order (§4.8), so shape points are
// the stop locations themselves, not a surveyed track geometry.
type GTFSShape struct {
	ShapeID      string
	PtSequence   int
	Lat, Lon     float64
}
