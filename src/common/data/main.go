// Package data wires the engine's storage-backed collaborators: the
// pgx-backed row source the streaming builder folds over, the run
// store the admin surface reports stats from, and the Postgres tiploc
// lookups the schedule package treats as external black boxes.
package data

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nrdp-rail/gtfs-engine/src/schedule"
)

// DataClient is the shared handle to the engine's storage backends.
type DataClient struct {
	pg     *pgxpool.Pool
	rdb    *redis.Client
	logger *zap.SugaredLogger
}

// NewDataClient constructs a DataClient over an already-connected pool
// and Redis client.
func NewDataClient(db *pgxpool.Pool, rdb *redis.Client, logger *zap.SugaredLogger) *DataClient {
	return &DataClient{
		pg:     db,
		rdb:    rdb,
		logger: logger,
	}
}

// ScheduleRows returns a RowSource over every schedule_location row for
// schedules active on or after fromDate, ordered so the streaming
// builder sees one schedule's stops together and overlay resolution
// sees Permanent records first, then Overlay, New and Cancellation
// (stp_indicator descending), each in schedule id order. pgx.Rows already satisfies
// schedule.RowSource, so no adapter type is needed.
func (dc *DataClient) ScheduleRows(ctx context.Context, fromDate time.Time) (pgx.Rows, error) {
	return dc.pg.Query(ctx, `
		SELECT s.id::text, s.train_uid, s.stp_indicator, s.train_category,
		       s.atoc_code, s.headcode, s.train_class, s.reservations,
		       s.schedule_start_date, s.schedule_end_date, s.schedule_days_runs,
		       COALESCE(t.crs_code, ''), l.tiploc_code, l.location_order,
		       l.arrival, l.public_arrival, l.departure, l.public_departure, l.pass,
		       l.platform, l.activity
		FROM schedule s
		JOIN schedule_location l ON l.schedule_id = s.id
		LEFT JOIN tiploc t ON t.tiploc_code = l.tiploc_code
		WHERE s.schedule_end_date >= $1
		ORDER BY s.stp_indicator DESC, s.id, l.location_order
	`, fromDate)
}

// ScanScheduleRow adapts a RowSource's Scan into a schedule.Row,
// matching the column order ScheduleRows selects. Callers of
// schedule.StreamingScheduleBuilder.Build pass this as the scan
// argument.
func ScanScheduleRow(src schedule.RowSource) (schedule.Row, error) {
	var r schedule.Row
	var stp string
	err := src.Scan(
		&r.ScheduleID, &r.TUID, &stp, &r.TrainCategory,
		&r.ATOCCode, &r.Headcode, &r.TrainClass, &r.Reservations,
		&r.ScheduleStart, &r.ScheduleEnd, &r.DaysRun,
		&r.CRS, &r.TIPLOC, &r.LocationOrder,
		&r.Arrival, &r.PublicArrival, &r.Departure, &r.PublicDeparture, &r.Pass,
		&r.Platform, &r.Activity,
	)
	if len(stp) > 0 {
		r.STP = schedule.STPIndicator(stp[0])
	}
	return r, err
}

// AssociationRows returns every association row active on or after
// fromDate, in the same Permanent-first STP order as ScheduleRows.
func (dc *DataClient) AssociationRows(ctx context.Context, fromDate time.Time) (pgx.Rows, error) {
	return dc.pg.Query(ctx, `
		SELECT a.id::text, a.main_train_uid, a.assoc_train_uid, a.stp_indicator,
		       a.category, a.date_indicator, a.location,
		       a.assoc_start_date, a.assoc_end_date, a.assoc_days
		FROM association a
		WHERE a.assoc_end_date >= $1
		ORDER BY a.stp_indicator DESC, a.id
	`, fromDate)
}

// ScanAssociationRow is the scan argument for an AssociationRows-backed
// RowSource.
func ScanAssociationRow(rows pgx.Rows) (*schedule.Association, error) {
	var a schedule.Association
	var stp, category, dateIndicator, daysRun string
	var start, end time.Time
	err := rows.Scan(&a.ID, &a.MainTUID, &a.AssocTUID, &stp, &category, &dateIndicator, &a.JunctionTIPLOC,
		&start, &end, &daysRun)
	if err != nil {
		return nil, err
	}
	if len(stp) > 0 {
		a.STP = schedule.STPIndicator(stp[0])
	}
	a.Category = schedule.AssociationCategory(category)
	a.DateIndicator = schedule.AssociationDateIndicator(dateIndicator)
	a.Calendar = schedule.NewCalendar(start, end, schedule.ParseDaysRun(daysRun))
	return &a, nil
}

// BuildRunStore records pipeline run stats for the admin surface to
// report, keyed in Redis so a restarted gtfs-admin process can still
// answer /stats for the last completed run.
type BuildRunStore struct {
	rdb *redis.Client
}

// NewBuildRunStore constructs a BuildRunStore over rdb.
func NewBuildRunStore(rdb *redis.Client) *BuildRunStore {
	return &BuildRunStore{rdb: rdb}
}

// RunStats is the snapshot persisted for one completed pipeline run.
type RunStats struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Trips      int
	Routes     int
	Shapes     int
	Errors     int
}

const buildRunKey = "gtfs:last_run"

// RecordRun persists stats as the most recently completed run.
func (s *BuildRunStore) RecordRun(ctx context.Context, stats RunStats) error {
	return s.rdb.HSet(ctx, buildRunKey, map[string]any{
		"started_at":  stats.StartedAt.Format(time.RFC3339),
		"finished_at": stats.FinishedAt.Format(time.RFC3339),
		"trips":       stats.Trips,
		"routes":      stats.Routes,
		"shapes":      stats.Shapes,
		"errors":      stats.Errors,
	}).Err()
}

// LastRun returns the most recently recorded run, or ok=false if no
// run has completed yet.
func (s *BuildRunStore) LastRun(ctx context.Context) (RunStats, bool, error) {
	vals, err := s.rdb.HGetAll(ctx, buildRunKey).Result()
	if err != nil {
		return RunStats{}, false, err
	}
	if len(vals) == 0 {
		return RunStats{}, false, nil
	}

	var stats RunStats
	stats.StartedAt, _ = time.Parse(time.RFC3339, vals["started_at"])
	stats.FinishedAt, _ = time.Parse(time.RFC3339, vals["finished_at"])
	stats.Trips = atoiOrZero(vals["trips"])
	stats.Routes = atoiOrZero(vals["routes"])
	stats.Shapes = atoiOrZero(vals["shapes"])
	stats.Errors = atoiOrZero(vals["errors"])
	return stats, true, nil
}

func atoiOrZero(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
