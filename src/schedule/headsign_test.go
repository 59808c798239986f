package schedule

import (
	"testing"
	"time"
)

func stopsAt(crss ...string) []StopTime {
	stops := make([]StopTime, len(crss))
	for i, crs := range crss {
		stops[i] = StopTime{CRS: crs, StopSequence: i + 1}
	}
	return stops
}

// crsTiplocStops builds stops carrying both a CRS and a TIPLOC, with
// every stop but the first given a non-zero arrival so via-text
// matching (which filters on a public call) has something to match.
func crsTiplocStops(pairs ...[2]string) []StopTime {
	stops := make([]StopTime, len(pairs))
	for i, p := range pairs {
		stops[i] = StopTime{CRS: p[0], TIPLOC: p[1], StopSequence: i + 1}
		if i > 0 {
			stops[i].Arrival = time.Date(2026, 1, 1, 10, i, 0, 0, time.UTC)
		}
	}
	return stops
}

func TestHeadsignTopologyRuleWins(t *testing.T) {
	s := &Schedule{ATOCCode: "SW", Stops: stopsAt("WAT", "KNG", "SHE")}
	h := NewHeadsignInference()
	crsNames := map[string]string{"SHE": "Shepperton"}
	want := "Shepperton (via Kingston)"
	if got := h.HeadsignAt(s, 0, crsNames); got != want {
		t.Errorf("HeadsignAt() = %q, want %q", got, want)
	}
}

func TestHeadsignTopologyRuleIgnoresWrongOperator(t *testing.T) {
	s := &Schedule{ATOCCode: "GW", Stops: stopsAt("WAT", "KNG", "SHE")}
	h := NewHeadsignInference()
	crsNames := map[string]string{"SHE": "Shepperton"}
	if got := h.HeadsignAt(s, 0, crsNames); got != "Shepperton" {
		t.Errorf("HeadsignAt() = %q, want the bare destination name %q (SW-only rule shouldn't fire for GW)", got, "Shepperton")
	}
}

func TestHeadsignCatchAllRuleSubstitutesFalseDestination(t *testing.T) {
	// Per the Huddersfield/Brighouse catch-all rule, a Northern trip
	// calling at Brighouse on its way to a real destination beyond
	// Huddersfield is headsigned for Huddersfield, not its true terminus.
	s := &Schedule{ATOCCode: "NT", Stops: stopsAt("LEE", "BGH", "HUD", "MIR")}
	h := NewHeadsignInference()
	crsNames := map[string]string{"HUD": "Huddersfield"}
	if got := h.HeadsignAt(s, 0, crsNames); got != "Huddersfield" {
		t.Errorf("HeadsignAt() = %q, want %q", got, "Huddersfield")
	}
}

func TestHeadsignCatchAllRuleIgnoresNoOperatorRestriction(t *testing.T) {
	s := &Schedule{ATOCCode: "XX", Stops: stopsAt("LEE", "BGH", "HUD", "MIR")}
	h := NewHeadsignInference()
	crsNames := map[string]string{"HUD": "Huddersfield"}
	if got := h.HeadsignAt(s, 0, crsNames); got != "Huddersfield" {
		t.Errorf("HeadsignAt() = %q, want %q (catch-all rule applies regardless of operator)", got, "Huddersfield")
	}
}

func TestHeadsignViaTextRule(t *testing.T) {
	s := &Schedule{ATOCCode: "GW", Stops: crsTiplocStops(
		[2]string{"RDG", "READING"},
		[2]string{"SLO", "SLOUGH"},
		[2]string{"PAD", "PADTON"},
	)}
	h := NewHeadsignInference()
	crsNames := map[string]string{"PAD": "London Paddington"}
	want := "London Paddington (via Slough)"
	if got := h.HeadsignAt(s, 0, crsNames); got != want {
		t.Errorf("HeadsignAt() = %q, want %q", got, want)
	}
}

func TestHeadsignViaTextRequiresLoc2Order(t *testing.T) {
	// BHM->EUSTON via Rugby needs Milton Keynes Central strictly after
	// Rugby; reversing the order should not match.
	s := &Schedule{ATOCCode: "LM", Stops: crsTiplocStops(
		[2]string{"BHM", "BRMNGHM"},
		[2]string{"MKC", "MKNSCEN"},
		[2]string{"RUG", "RUGBY"},
		[2]string{"EUS", "EUSTON"},
	)}
	h := NewHeadsignInference()
	crsNames := map[string]string{"EUS": "London Euston"}
	if got := h.HeadsignAt(s, 0, crsNames); got != "London Euston" {
		t.Errorf("HeadsignAt() = %q, want the bare destination name %q since Loc2 precedes Loc1", got, "London Euston")
	}
}

func TestHeadsignFallsBackToDestinationName(t *testing.T) {
	s := &Schedule{ATOCCode: "GW", Stops: stopsAt("RDG", "TWY", "OXF")}
	h := NewHeadsignInference()
	crsNames := map[string]string{"OXF": "Oxford"}
	if got := h.HeadsignAt(s, 0, crsNames); got != "Oxford" {
		t.Errorf("HeadsignAt() = %q, want %q", got, "Oxford")
	}
}

func TestHeadsignFallsBackToBareCRSWithNoNameTable(t *testing.T) {
	s := &Schedule{ATOCCode: "GW", Stops: stopsAt("RDG", "OXF")}
	h := NewHeadsignInference()
	if got := h.HeadsignAt(s, 0, nil); got != "OXF" {
		t.Errorf("HeadsignAt() = %q, want bare CRS %q", got, "OXF")
	}
}

func TestHeadsignChangesPastBranchPoint(t *testing.T) {
	// A rider boarding after the branch point sees the true destination.
	s := &Schedule{ATOCCode: "SW", Stops: stopsAt("WAT", "KNG", "SHE")}
	h := NewHeadsignInference()
	crsNames := map[string]string{"SHE": "Shepperton"}
	if got := h.HeadsignAt(s, 1, crsNames); got != "Shepperton" {
		t.Errorf("HeadsignAt() = %q, want %q (no Via left to find past the branch point)", got, "Shepperton")
	}
}
