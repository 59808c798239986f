package schedule

// topologyRule is one operator-keyed headsign override. A rule fires
// when the schedule calls at Via after the stop currently being
// labelled. Firing either substitutes FalseDest for the schedule's true
// destination (leaving the via-text layer to still run against it), or,
// when ViaPlace is also set, resolves the headsign completely by
// appending a "(via <Place>)" qualifier and skipping the via-text layer
// entirely.
type topologyRule struct {
	Operator  string
	Via       string // CRS of the calling point that triggers the rule
	FalseDest string // CRS standing in for the true destination; empty keeps it
	ViaPlace  string // when set, fully resolves the headsign; empty defers to the via-text layer
}

// topologyRules is deliberately plain data: the spec requires this rule
// set to be editable without touching the matching code. Rules are
// tried in order and the first match wins (`??=` semantics) so more
// specific operator rules should be listed ahead of the catch-all.
var topologyRules = []topologyRule{
	// SW: the Kingston and Hounslow loops both run out and back to
	// Waterloo, so the loop direction is the only thing worth telling
	// a rider; Guildford and Portsmouth trains fork at Woking.
	{Operator: "SW", Via: "KNG", ViaPlace: "Kingston"},
	{Operator: "SW", Via: "HOU", ViaPlace: "Hounslow"},
	{Operator: "SW", Via: "GLD", ViaPlace: "Guildford"},
	{Operator: "SW", Via: "PMH", ViaPlace: "Portsmouth"},

	// SE: the Dartford loop forks via Sidcup or Bexleyheath before
	// Woolwich/Dartford; Kent Coast services fork again beyond Faversham
	// and are conventionally advertised under the fork's own name.
	{Operator: "SE", Via: "SID", ViaPlace: "Sidcup"},
	{Operator: "SE", Via: "BXH", ViaPlace: "Bexleyheath"},
	{Operator: "SE", Via: "WWA", ViaPlace: "Woolwich"},
	{Operator: "SE", Via: "DFD", ViaPlace: "Dartford"},
	{Operator: "SE", Via: "RAM", FalseDest: "RAM"},

	// LO: the Clapham Junction and Highbury & Islington loops share the
	// same ambiguity as SW's loops above.
	{Operator: "LO", Via: "CLJ", ViaPlace: "Clapham Junction"},
	{Operator: "LO", Via: "HHY", ViaPlace: "Highbury & Islington"},

	// ME: Wirral line services are advertised under their branch
	// terminus rather than the line's nominal city-centre destination.
	{Operator: "ME", Via: "NBN", FalseDest: "NBN"},

	// AW: the Merthyr branch gets the same false-destination treatment.
	{Operator: "AW", Via: "MTT", FalseDest: "MTT"},

	// Catch-all: the Huddersfield/Brighouse branch ambiguity on the
	// Calder Valley line affects more than one operator's service.
	{Operator: "", Via: "BGH", FalseDest: "HUD"},
}

// viaRule is one entry of the via-text disambiguation table: a trip
// calling at At whose destination is Dest gets Viatext appended in
// parentheses if it also calls at Loc1 (and, when Loc2 is set, at Loc2
// strictly after Loc1) before reaching Dest.
type viaRule struct {
	At      string // CRS of the stop the rule applies at
	Dest    string // TIPLOC of the schedule's (possibly false) destination
	Loc1    string // TIPLOC that must be called at between At and Dest
	Loc2    string // optional second TIPLOC, must follow Loc1
	Viatext string // qualifier text, e.g. "via Slough"
}

var viaRules = []viaRule{
	{At: "RDG", Dest: "PADTON", Loc1: "SLOUGH", Loc2: "", Viatext: "via Slough"},
	{At: "RDG", Dest: "PADTON", Loc1: "DIDCOT", Loc2: "", Viatext: "via Didcot"},
	{At: "BHM", Dest: "EUSTON", Loc1: "RUGBY", Loc2: "MKNSCEN", Viatext: "via Rugby"},
	{At: "YRK", Dest: "EDINBUR", Loc1: "NEWCSTL", Loc2: "BERWICK", Viatext: "via Newcastle"},
	{At: "BTN", Dest: "VICTORI", Loc1: "REDHILL", Loc2: "", Viatext: "via Redhill"},
	{At: "BTN", Dest: "VICTORI", Loc1: "CROYDSS", Loc2: "", Viatext: "via Croydon"},
}

// HeadsignInference derives a rider-facing headsign for every stop of a
// schedule from the topology and via-text layers above. Unlike the
// route-level name RouteNamer derives once per schedule, a headsign can
// legitimately change partway through a trip: a stop ahead of a
// false-destination branch point sees the branch terminus, a stop past
// it reverts to the train's true destination.
type HeadsignInference struct{}

// NewHeadsignInference constructs a HeadsignInference.
func NewHeadsignInference() *HeadsignInference { return &HeadsignInference{} }

// HeadsignAt returns the headsign for the stop at atIdx, as seen by a
// rider boarding there.
func (h *HeadsignInference) HeadsignAt(s *Schedule, atIdx int, crsNames map[string]string) string {
	if len(s.Stops) == 0 {
		return ""
	}
	trueDestIdx := len(s.Stops) - 1
	at := s.Stops[atIdx]

	destIdx := trueDestIdx
	for _, rule := range topologyRules {
		if rule.Operator != "" && rule.Operator != s.ATOCCode {
			continue
		}
		if findCallingIndexFrom(s.Stops, rule.Via, atIdx+1) < 0 {
			continue
		}
		if rule.FalseDest != "" {
			if idx := findCallingIndexFrom(s.Stops, rule.FalseDest, atIdx+1); idx >= 0 {
				destIdx = idx
			}
		}
		if rule.ViaPlace != "" {
			return nameFor(s.Stops[destIdx].CRS, crsNames) + " (via " + rule.ViaPlace + ")"
		}
		break
	}

	destTIPLOC := s.Stops[destIdx].TIPLOC
	var viaTIPLOCs []string
	if atIdx+1 < destIdx {
		for _, st := range s.Stops[atIdx+1 : destIdx] {
			if !st.Arrival.IsZero() {
				viaTIPLOCs = append(viaTIPLOCs, st.TIPLOC)
			}
		}
	}

	var best *viaRule
	bestPos := -1
	for i := range viaRules {
		rule := &viaRules[i]
		if rule.At != at.CRS || rule.Dest != destTIPLOC {
			continue
		}
		pos1 := indexOfTIPLOC(viaTIPLOCs, rule.Loc1)
		if pos1 < 0 {
			continue
		}
		if rule.Loc2 != "" {
			pos2 := indexOfTIPLOC(viaTIPLOCs, rule.Loc2)
			if pos2 < 0 || pos2 <= pos1 {
				continue
			}
		}
		if best == nil || pos1 < bestPos {
			best = rule
			bestPos = pos1
		}
	}

	destName := nameFor(s.Stops[destIdx].CRS, crsNames)
	if best != nil {
		return destName + " (" + best.Viatext + ")"
	}
	return destName
}

func nameFor(crs string, crsNames map[string]string) string {
	if name, ok := crsNames[crs]; ok && name != "" {
		return name
	}
	return crs
}

func indexOfTIPLOC(tiplocs []string, tiploc string) int {
	for i, t := range tiplocs {
		if t == tiploc {
			return i
		}
	}
	return -1
}

// findCallingIndex returns the index of the first stop calling at crs,
// or -1 if the schedule never calls there.
func findCallingIndex(stops []StopTime, crs string) int {
	return findCallingIndexFrom(stops, crs, 0)
}

// findCallingIndexFrom is findCallingIndex restricted to stops at or
// after start, matching the topology rules' "later in the stop list"
// requirement.
func findCallingIndexFrom(stops []StopTime, crs string, start int) int {
	if start < 0 {
		start = 0
	}
	for i := start; i < len(stops); i++ {
		if stops[i].CRS == crs {
			return i
		}
	}
	return -1
}
