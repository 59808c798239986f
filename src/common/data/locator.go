package data

import (
	"context"
)

// PGCRSLocator implements schedule.CRSLocator over the tiploc table.
// Station naming is a straightforward lookup; the WGS84 coordinate
// lookup is the engine's one black-box dependency (§Non-goals): this
// implementation reads whatever lat/lon columns a station-coordinate
// overlay has populated and reports ok=false when none exist, rather
// than performing an OSGB36->WGS84 projection itself.
type PGCRSLocator struct {
	dc    *DataClient
	names map[string]string
	coords map[string][2]float64
}

// NewPGCRSLocator constructs a PGCRSLocator. Call Load before first use.
func NewPGCRSLocator(dc *DataClient) *PGCRSLocator {
	return &PGCRSLocator{dc: dc, names: make(map[string]string), coords: make(map[string][2]float64)}
}

// Load populates the locator's in-memory name/coordinate tables from
// the tiploc table in one pass, so per-stop lookups during a pipeline
// run never hit Postgres individually.
func (l *PGCRSLocator) Load(ctx context.Context) error {
	rows, err := l.dc.pg.Query(ctx, `
		SELECT crs_code, description, lat, lon
		FROM tiploc
		WHERE crs_code IS NOT NULL AND crs_code != ''
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var crs, description string
		var lat, lon *float64
		if err := rows.Scan(&crs, &description, &lat, &lon); err != nil {
			return err
		}
		if description != "" {
			l.names[crs] = description
		}
		if lat != nil && lon != nil {
			l.coords[crs] = [2]float64{*lat, *lon}
		}
	}
	return rows.Err()
}

// Name implements schedule.CRSLocator.
func (l *PGCRSLocator) Name(crs string) string {
	return l.names[crs]
}

// Coordinate implements schedule.CRSLocator.
func (l *PGCRSLocator) Coordinate(crs string) (lat, lon float64, ok bool) {
	c, ok := l.coords[crs]
	if !ok {
		return 0, 0, false
	}
	return c[0], c[1], true
}
