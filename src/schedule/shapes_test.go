package schedule

import "testing"

type mapShapeCache struct {
	m map[string]string
}

func newMapShapeCache() *mapShapeCache { return &mapShapeCache{m: make(map[string]string)} }

func (c *mapShapeCache) Get(key string) (string, bool) { v, ok := c.m[key]; return v, ok }
func (c *mapShapeCache) Set(key, id string)             { c.m[key] = id }

func TestShapeDedupReusesIDForSameStopSequence(t *testing.T) {
	dedup := NewShapeDedup(NewIdGenerator(0), nil)

	a := &Schedule{Stops: stopsAt("PAD", "RDG", "OXF")}
	b := &Schedule{Stops: stopsAt("PAD", "RDG", "OXF")}
	c := &Schedule{Stops: stopsAt("PAD", "TWY", "OXF")}

	idA := dedup.ShapeIDFor(a)
	idB := dedup.ShapeIDFor(b)
	idC := dedup.ShapeIDFor(c)

	if idA != idB {
		t.Errorf("got distinct shape ids %q and %q for identical calling sequences", idA, idB)
	}
	if idA == idC {
		t.Error("expected a distinct shape id for a different calling sequence")
	}
}

func TestShapeDedupConsultsExternalCache(t *testing.T) {
	cache := newMapShapeCache()
	first := NewShapeDedup(NewIdGenerator(0), cache)
	s := &Schedule{Stops: stopsAt("PAD", "RDG")}
	id := first.ShapeIDFor(s)

	second := NewShapeDedup(NewIdGenerator(0), cache)
	gotID := second.ShapeIDFor(s)
	if gotID != id {
		t.Errorf("second ShapeDedup instance got id %q, want the cached %q", gotID, id)
	}
}

func TestShapesSkipsUnresolvableStops(t *testing.T) {
	dedup := NewShapeDedup(NewIdGenerator(0), nil)
	s := &Schedule{Stops: stopsAt("PAD", "ZZZ", "RDG")}
	dedup.ShapeIDFor(s)

	coords := map[string][2]float64{"PAD": {51.517, -0.177}, "RDG": {51.458, -0.973}}
	locate := func(crs string) (float64, float64, bool) {
		c, ok := coords[crs]
		return c[0], c[1], ok
	}

	shapes := dedup.Shapes(locate)
	if len(shapes) != 2 {
		t.Fatalf("got %d shape points, want 2 (ZZZ has no coordinate)", len(shapes))
	}
	for _, pt := range shapes {
		if pt.PtSequence < 0 || pt.PtSequence > 1 {
			t.Errorf("got PtSequence %d, want renumbered to 0..1 after skipping the unresolvable stop", pt.PtSequence)
		}
	}
}
