// Command gtfs-builder runs one pipeline pass: it loads schedule and
// association rows out of Postgres, folds them through
// schedule.Pipeline, and records the resulting counts for the admin
// surface. Serialising the Result to GTFS's CSV/TSV files is a row
// sink this command does not own; a deployment wires that separately
// onto the Result this command produces.
package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nrdp-rail/gtfs-engine/src/common/data"
	"github.com/nrdp-rail/gtfs-engine/src/common/utils"
	"github.com/nrdp-rail/gtfs-engine/src/schedule"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	utils.InitLogger()
	defer utils.SyncLogger()
	log := utils.GetLogger()

	db, err := utils.NewPostgresConnection()
	if err != nil {
		log.Fatalw("connecting to postgres", "error", err)
	}
	defer db.Close()

	rdb := utils.NewRedisClient()
	defer rdb.Close()

	conn, channel, err := utils.NewRabbitConnection()
	if err != nil {
		log.Fatalw("connecting to rabbitmq", "error", err)
	}
	defer conn.Close()
	defer channel.Close()

	if _, err := channel.QueueDeclare("gtfs.build.completed", false, false, false, false, nil); err != nil {
		log.Fatalw("declaring build-completed queue", "error", err)
	}

	dc := data.NewDataClient(db, rdb, log)
	runs := data.NewBuildRunStore(rdb)

	locator := data.NewPGCRSLocator(dc)
	if err := locator.Load(ctx); err != nil {
		log.Fatalw("loading tiploc locator", "error", err)
	}

	shapeCache := data.NewRedisShapeCache(ctx, rdb)
	ids := schedule.NewIdGenerator(0)

	pipeline := schedule.NewPipeline(schedule.BuilderOptions{}, locator, ids, shapeCache, log)

	startedAt := time.Now()
	fromDate := startedAt.Add(-24 * time.Hour)

	rawSchedules, err := loadSchedules(ctx, dc, fromDate)
	if err != nil {
		log.Fatalw("loading schedules", "error", err)
	}

	rawAssociations, err := loadAssociations(ctx, dc, fromDate)
	if err != nil {
		log.Fatalw("loading associations", "error", err)
	}

	log.Infow("running pipeline", "schedules", len(rawSchedules), "associations", len(rawAssociations))

	result, runErr := pipeline.Run(rawSchedules, rawAssociations)
	if runErr != nil {
		log.Warnw("pipeline completed with errors", "error", runErr)
	}

	finishedAt := time.Now()
	errCount := 0
	if runErr != nil {
		errCount = 1
	}

	stats := data.RunStats{
		StartedAt:  startedAt,
		FinishedAt: finishedAt,
		Trips:      len(result.Trips),
		Routes:     len(result.Routes),
		Shapes:     len(result.Shapes),
		Errors:     errCount,
	}
	if err := runs.RecordRun(ctx, stats); err != nil {
		log.Errorw("recording run stats", "error", err)
	}

	log.Infow("pipeline run complete",
		"trips", len(result.Trips),
		"stop_times", len(result.StopTimes),
		"routes", len(result.Routes),
		"shapes", len(result.Shapes),
		"calendars", len(result.Calendars),
		"agencies", len(result.Agencies),
	)

	if err := publishCompletion(channel, stats); err != nil {
		log.Warnw("publishing build-completed event", "error", err)
	}
}

// loadSchedules drains a ScheduleRows cursor through the streaming
// builder, yielding one *schedule.Schedule per TUID/STP row group.
func loadSchedules(ctx context.Context, dc *data.DataClient, fromDate time.Time) ([]*schedule.Schedule, error) {
	rows, err := dc.ScheduleRows(ctx, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	builder := schedule.NewStreamingScheduleBuilder(schedule.BuilderOptions{})
	return builder.Build(rows, func(src schedule.RowSource) (schedule.Row, error) {
		return data.ScanScheduleRow(src)
	})
}

func loadAssociations(ctx context.Context, dc *data.DataClient, fromDate time.Time) ([]*schedule.Association, error) {
	rows, err := dc.AssociationRows(ctx, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*schedule.Association
	for rows.Next() {
		assoc, err := data.ScanAssociationRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, assoc)
	}
	return out, rows.Err()
}

func publishCompletion(channel *amqp.Channel, stats data.RunStats) error {
	body, err := json.Marshal(struct {
		FinishedAt time.Time `json:"finished_at"`
		Trips      int       `json:"trips"`
		Routes     int       `json:"routes"`
		Shapes     int       `json:"shapes"`
	}{stats.FinishedAt, stats.Trips, stats.Routes, stats.Shapes})
	if err != nil {
		return err
	}
	return channel.Publish(
		"",
		"gtfs.build.completed",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
