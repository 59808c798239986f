package schedule

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// CRSLocator resolves a CRS code to a human-readable name and, when
// available, a WGS84 coordinate. Both are external collaborators this
// package treats as black boxes: station naming data and the
// OSGB36->WGS84 projection both live outside the engine's scope.
type CRSLocator interface {
	Name(crs string) string
	Coordinate(crs string) (lat, lon float64, ok bool)
}

// Pipeline wires the eight resolution/assembly stages together in the
// order the CIF->GTFS data flow requires: overlay resolution for both
// schedules and associations happens before association application,
// which happens before flattening, late-night duplication and finally
// headsign/route/shape derivation.
type Pipeline struct {
	opts     BuilderOptions
	locator  CRSLocator
	ids      *IdGenerator
	shapeCache ShapeIDCache
	logger   *zap.SugaredLogger
}

// NewPipeline constructs a Pipeline. logger and shapeCache may be nil.
func NewPipeline(opts BuilderOptions, locator CRSLocator, ids *IdGenerator, shapeCache ShapeIDCache, logger *zap.SugaredLogger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Pipeline{opts: opts, locator: locator, ids: ids, shapeCache: shapeCache, logger: logger}
}

// Result is everything a Pipeline run produces, ready for a caller to
// hand to a row sink it owns.
type Result struct {
	Agencies   []GTFSAgency
	Routes     []GTFSRoute
	Trips      []GTFSTrip
	StopTimes  []GTFSStopTime
	Calendars  []GTFSCalendar
	CalendarDates []GTFSCalendarDate
	Shapes     []GTFSShape
}

// Run executes the full pipeline over rawSchedules and rawAssociations.
// Errors accumulated from association application are returned
// alongside a non-nil Result: the spec's error table treats an
// unresolvable association as a per-association, not a per-batch,
// failure.
func (p *Pipeline) Run(rawSchedules []*Schedule, rawAssociations []*Association) (*Result, error) {
	var errs error

	scheduleResolver := NewOverlayResolver[*Schedule]()
	resolvedSchedules := scheduleResolver.Resolve(rawSchedules)
	p.logger.Infow("resolved schedule overlays", "in", len(rawSchedules), "out", len(resolvedSchedules))

	assocResolver := NewOverlayResolver[*Association]()
	resolvedAssocs := assocResolver.Resolve(rawAssociations)
	sortAssociations(resolvedAssocs)
	p.logger.Infow("resolved association overlays", "in", len(rawAssociations), "out", len(resolvedAssocs))

	applier := NewAssociationApplier()
	withAssocs, err := applier.Apply(resolvedSchedules, resolvedAssocs)
	if err != nil {
		errs = multierr.Append(errs, fmt.Errorf("applying associations: %w", err))
	}
	p.logger.Infow("applied associations", "schedules", len(withAssocs))

	flattener := NewScheduleFlattener()
	flattened, err := flattener.Flatten(withAssocs)
	if err != nil {
		return nil, multierr.Append(errs, fmt.Errorf("flattening: %w", err))
	}
	p.logger.Infow("flattened schedules", "out", len(flattened))

	duplicator := NewLateNightDuplicator()
	final := duplicator.Duplicate(flattened)
	p.logger.Infow("late-night duplication", "out", len(final))

	result := p.assemble(final)
	return result, errs
}

func (p *Pipeline) assemble(schedules []*Schedule) *Result {
	headsigner := NewHeadsignInference()
	router := NewRouteGrouper(p.ids)
	shaper := NewShapeDedup(p.ids, p.shapeCache)

	crsNames := make(map[string]string)
	agencies := make(map[string]GTFSAgency)

	res := &Result{}

	for _, s := range schedules {
		for _, st := range s.Stops {
			if _, ok := crsNames[st.CRS]; !ok {
				crsNames[st.CRS] = p.locator.Name(st.CRS)
			}
		}
	}

	for _, s := range schedules {
		routeID := router.RouteIDFor(s, crsNames)
		shapeID := shaper.ShapeIDFor(s)
		serviceID := calendarIdentity(s.Calendar)
		var tripHeadsign string
		if len(s.Stops) > 0 {
			tripHeadsign = headsigner.HeadsignAt(s, 0, crsNames)
		}

		info := lookupOperator(s.ATOCCode)
		if _, ok := agencies[info.Code]; !ok {
			agencies[info.Code] = GTFSAgency{AgencyID: info.Code, Name: info.Name, Timezone: "Europe/London"}
		}

		res.Trips = append(res.Trips, GTFSTrip{
			RouteID:        routeID,
			ServiceID:      serviceID,
			TripID:         s.ID,
			Headsign:       tripHeadsign,
			ShapeID:        shapeID,
			OriginalTripID: s.OriginalTripID,
		})
		res.Calendars = append(res.Calendars, s.Calendar.ToCalendar(serviceID))
		res.CalendarDates = append(res.CalendarDates, s.Calendar.ToCalendarDates(serviceID)...)

		for i, st := range s.Stops {
			stopHeadsign := headsigner.HeadsignAt(s, i, crsNames)
			res.StopTimes = append(res.StopTimes, GTFSStopTime{
				TripID:       s.ID,
				StopSequence: st.StopSequence,
				StopID:       st.ATCO,
				Arrival:      st.Arrival,
				Departure:    st.Departure,
				Headsign:     stopHeadsign,
				Pickup:       st.Pickup,
				DropOff:      st.DropOff,
				Timepoint:    st.Timepoint,
			})
		}
	}

	res.Routes = router.Routes()
	res.Shapes = shaper.Shapes(p.locator.Coordinate)
	for _, a := range agencies {
		res.Agencies = append(res.Agencies, a)
	}
	return res
}
