package schedule

// ShapeIDCache lets a long-lived process carry shape ids across
// separate pipeline runs; an id found in the cache is used as is. With
// no cache supplied, ShapeDedup derives every id as "shape_" plus a hash
// of the CRS sequence, so the same sequence gets the same id in every
// run, with the same dedup behaviour within a run.
type ShapeIDCache interface {
	Get(key string) (string, bool)
	Set(key, id string)
}

// ShapeDedup assigns a shape id to every distinct stop-id sequence it
// sees, so two trips calling at the same stations in the same order
// share one shapes.txt entry instead of each getting their own.
type ShapeDedup struct {
	ids    *IdGenerator
	cache  ShapeIDCache
	seen   map[string]string
	shapes map[string][]string
}

// NewShapeDedup constructs a ShapeDedup. cache may be nil.
func NewShapeDedup(ids *IdGenerator, cache ShapeIDCache) *ShapeDedup {
	return &ShapeDedup{
		ids:    ids,
		cache:  cache,
		seen:   make(map[string]string),
		shapes: make(map[string][]string),
	}
}

// ShapeIDFor returns the shape id for s's calling-point sequence,
// allocating a new one the first time a given sequence is seen (first
// consulting the cache, if any, before minting a fresh id).
func (d *ShapeDedup) ShapeIDFor(s *Schedule) string {
	stopIDs := make([]string, len(s.Stops))
	for i, st := range s.Stops {
		stopIDs[i] = st.CRS
	}
	key := shapeIdentity(stopIDs)

	if id, ok := d.seen[key]; ok {
		return id
	}
	if d.cache != nil {
		if id, ok := d.cache.Get(key); ok {
			d.seen[key] = id
			d.shapes[id] = stopIDs
			return id
		}
	}

	id := "shape_" + key
	d.seen[key] = id
	d.shapes[id] = stopIDs
	if d.cache != nil {
		d.cache.Set(key, id)
	}
	return id
}

// Shapes returns every GTFS shape point allocated so far. Since this
// engine has no track geometry source (OSGB36/WGS84 projection is a
// black-box dependency outside the engine's scope), shape points are
// the stop locations themselves in calling order; locate maps a CRS to
// its WGS84 coordinate.
func (d *ShapeDedup) Shapes(locate func(crs string) (lat, lon float64, ok bool)) []GTFSShape {
	var out []GTFSShape
	for id, stopIDs := range d.shapes {
		seq := 0
		for _, crs := range stopIDs {
			lat, lon, ok := locate(crs)
			if !ok {
				continue
			}
			out = append(out, GTFSShape{ShapeID: id, PtSequence: seq, Lat: lat, Lon: lon})
			seq++
		}
	}
	return out
}
