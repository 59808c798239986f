package schedule

import (
	"strings"
	"testing"
)

func TestRouteGrouperReusesIDForSameKey(t *testing.T) {
	grouper := NewRouteGrouper(NewIdGenerator(0))
	crsNames := map[string]string{"PAD": "London Paddington", "RDG": "Reading"}

	a := &Schedule{ATOCCode: "GW", TrainCategory: "OO", Stops: stopsAt("PAD", "RDG")}
	b := &Schedule{ATOCCode: "GW", TrainCategory: "OO", Stops: stopsAt("PAD", "RDG")}

	idA := grouper.RouteIDFor(a, crsNames)
	idB := grouper.RouteIDFor(b, crsNames)
	if idA != idB {
		t.Errorf("got distinct route ids %q and %q for identical routeKeys", idA, idB)
	}
	if len(grouper.Routes()) != 1 {
		t.Errorf("got %d routes, want 1", len(grouper.Routes()))
	}
}

func TestRouteGrouperSplitsDistinctDestinations(t *testing.T) {
	grouper := NewRouteGrouper(NewIdGenerator(0))
	crsNames := map[string]string{"PAD": "London Paddington", "RDG": "Reading", "OXF": "Oxford"}

	a := &Schedule{ATOCCode: "GW", TrainCategory: "OO", Stops: stopsAt("PAD", "RDG")}
	b := &Schedule{ATOCCode: "GW", TrainCategory: "OO", Stops: stopsAt("PAD", "OXF")}

	idA := grouper.RouteIDFor(a, crsNames)
	idB := grouper.RouteIDFor(b, crsNames)
	if idA == idB {
		t.Error("expected distinct route ids for distinct long names")
	}
}

func TestRouteGrouperSplitsWestMidlandsBrands(t *testing.T) {
	grouper := NewRouteGrouper(NewIdGenerator(0))

	lnr := &Schedule{ATOCCode: "LM", TrainCategory: "OO", Stops: stopsAt("EUS", "MKC")}
	wmr := &Schedule{ATOCCode: "LM", TrainCategory: "OO", Stops: stopsAt("BHM", "NFD")}

	idLNR := grouper.RouteIDFor(lnr, nil)
	idWMR := grouper.RouteIDFor(wmr, nil)
	if idLNR == idWMR {
		t.Error("expected London Northwestern and West Midlands Railway to land on distinct routes")
	}

	routes := grouper.Routes()
	names := make(map[string]bool, len(routes))
	for _, r := range routes {
		names[r.ShortName] = true
	}
	if !names["London Northwestern Railway"] || !names["West Midlands Railway"] {
		t.Errorf("got route names %v, want both LM brands present", names)
	}
}

func TestRouteGrouperReplacementBusAppendsSuffix(t *testing.T) {
	grouper := NewRouteGrouper(NewIdGenerator(0))
	s := &Schedule{ATOCCode: "GW", TrainCategory: "BR", Stops: stopsAt("PAD", "RDG")}

	id := grouper.RouteIDFor(s, nil)
	routes := grouper.Routes()
	if len(routes) != 1 {
		t.Fatalf("got %d routes, want 1", len(routes))
	}
	if routes[0].AgencyID != "GW" {
		t.Errorf("AgencyID = %q, want GW (the _BUS suffix belongs on the route id)", routes[0].AgencyID)
	}
	if !strings.HasSuffix(id, "_BUS") {
		t.Errorf("route id = %q, want a _BUS suffix", id)
	}
	if routes[0].Type != ModeReplacementBus {
		t.Errorf("Type = %v, want ModeReplacementBus", routes[0].Type)
	}
}
