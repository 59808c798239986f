package schedule

import "fmt"

// routeKey is the structural-equality key two trips must share to be
// grouped onto the same GTFS route: same agency, same mode, same short
// and long name, same colours. Two trips that happen to visit the same
// stations but differ in any of these (a ReplacementBus standing in for
// a cancelled Rail service, say) get separate routes.
type routeKey struct {
	Agency    string
	Mode      RouteMode
	Short     string
	Long      string
	Color     string
	TextColor string
}

// RouteNamer derives a route's short/long name and branding from a
// schedule, branching on operator for the handful of operators whose
// public branding splits a single ATOC code across multiple named
// services.
type RouteNamer struct{}

// NewRouteNamer constructs a RouteNamer.
func NewRouteNamer() *RouteNamer { return &RouteNamer{} }

// routeKeyFor derives the grouping key and display names for s.
func (n *RouteNamer) routeKeyFor(s *Schedule, crsNames map[string]string) (routeKey, string, string) {
	mode := RouteTypeForCategory(s.TrainCategory)
	info := lookupOperator(s.ATOCCode)

	agency := s.ATOCCode
	short := info.Name
	long := routeLongName(s, crsNames)

	switch s.ATOCCode {
	case "LM":
		// West Midlands Trains runs two public brands under one ATOC code.
		if isLNRService(s) {
			short = "London Northwestern Railway"
		} else {
			short = "West Midlands Railway"
		}
	case "LE":
		if isStanstedExpress(s) {
			short = "Stansted Express"
		}
	case "LO":
		short = londonOverlineName(s)
	case "ME":
		if isWirralLine(s) {
			short = "Wirral Line"
		} else {
			short = "Northern Line"
		}
	}

	color, textColor := info.Color, info.TextColor
	if mode == ModeReplacementBus {
		short += " Rail Replacement"
	}

	return routeKey{Agency: agency, Mode: mode, Short: short, Long: long, Color: color, TextColor: textColor}, short, long
}

func routeLongName(s *Schedule, crsNames map[string]string) string {
	if len(s.Stops) == 0 {
		return ""
	}
	origin := crsNames[s.Stops[0].CRS]
	if origin == "" {
		origin = s.Stops[0].CRS
	}
	dest := crsNames[s.Stops[len(s.Stops)-1].CRS]
	if dest == "" {
		dest = s.Stops[len(s.Stops)-1].CRS
	}
	return origin + " to " + dest
}

func isLNRService(s *Schedule) bool {
	return findCallingIndex(s.Stops, "EUS") >= 0 || findCallingIndex(s.Stops, "NMP") >= 0
}

func isStanstedExpress(s *Schedule) bool {
	return findCallingIndex(s.Stops, "SSD") >= 0 && findCallingIndex(s.Stops, "LST") >= 0
}

func isWirralLine(s *Schedule) bool {
	for _, crs := range []string{"NLN", "WLN", "HBN"} {
		if findCallingIndex(s.Stops, crs) >= 0 {
			return true
		}
	}
	return false
}

var londonOverlineNames = []struct {
	Line string
	CRS  string
}{
	{"Mildmay line", "HHY"},
	{"Windrush line", "WWR"},
	{"Weaver line", "GSY"},
	{"Lioness line", "WFJ"},
	{"Liberty line", "UMG"},
	{"Suffragette line", "BXY"},
}

func londonOverlineName(s *Schedule) string {
	for _, candidate := range londonOverlineNames {
		if findCallingIndex(s.Stops, candidate.CRS) >= 0 {
			return candidate.Line
		}
	}
	return "London Overground"
}

// RouteGrouper assigns a stable route id to every distinct routeKey it
// sees, reusing the id for repeat keys across the batch.
type RouteGrouper struct {
	namer  *RouteNamer
	ids    *IdGenerator
	seen   map[routeKey]string
	routes map[string]GTFSRoute
}

// NewRouteGrouper constructs a RouteGrouper seeded from ids.
func NewRouteGrouper(ids *IdGenerator) *RouteGrouper {
	return &RouteGrouper{
		namer:  NewRouteNamer(),
		ids:    ids,
		seen:   make(map[routeKey]string),
		routes: make(map[string]GTFSRoute),
	}
}

// RouteIDFor returns the route id s belongs to, allocating a new one
// (and its GTFSRoute row) the first time a given routeKey is seen.
func (g *RouteGrouper) RouteIDFor(s *Schedule, crsNames map[string]string) string {
	key, short, long := g.namer.routeKeyFor(s, crsNames)
	if id, ok := g.seen[key]; ok {
		return id
	}

	id := fmt.Sprintf("route_%d", g.ids.Next())
	if key.Mode == ModeReplacementBus {
		id += "_BUS"
	}
	g.seen[key] = id
	g.routes[id] = GTFSRoute{
		RouteID:   id,
		AgencyID:  key.Agency,
		ShortName: short,
		LongName:  long,
		Type:      key.Mode,
		Color:     key.Color,
		TextColor: key.TextColor,
	}
	return id
}

// Routes returns every route row allocated so far.
func (g *RouteGrouper) Routes() []GTFSRoute {
	out := make([]GTFSRoute, 0, len(g.routes))
	for _, r := range g.routes {
		out = append(out, r)
	}
	return out
}
