// Command schedule-live-updater applies VSTP live schedule amendments
// as they arrive: each message is both persisted to the schedule/
// schedule_location tables cif-loader populates in bulk, and folded
// through the same streaming builder the batch pipeline uses, so a
// live amendment produces exactly the same Schedule shape a CIF row
// would have.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/nrdp-rail/gtfs-engine/src/common/types"
	"github.com/nrdp-rail/gtfs-engine/src/common/utils"
	"github.com/nrdp-rail/gtfs-engine/src/schedule"
)

func main() {
	ctx := context.Background()
	utils.InitLogger()
	defer utils.SyncLogger()
	log := utils.GetLogger()

	log.Info("starting schedule-live-updater")

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

	if _, err := channel.QueueDeclare("vstp", false, false, false, false, nil); err != nil {
		log.Fatalw("declaring vstp queue", "error", err)
	}

	msgs, err := channel.Consume("vstp", "", true, false, false, false, nil)
	if err != nil {
		log.Fatalw("consuming vstp queue", "error", err)
	}

	log.Info("processing VSTP schedule messages")

	for msg := range msgs {
		var vstpMsg types.VSTPMessage
		if err := json.Unmarshal(msg.Body, &vstpMsg); err != nil {
			log.Errorw("bad VSTP json", "error", err)
			continue
		}

		built, err := processVSTPMessage(ctx, db, rdb, &vstpMsg)
		if err != nil {
			log.Errorw("processing VSTP message", "trainUID", vstpMsg.VSTPCIFMsgV1.Schedule.TrainUID, "error", err)
			continue
		}

		log.Infow("applied live amendment", "trainUID", vstpMsg.VSTPCIFMsgV1.Schedule.TrainUID, "stp", string(built.STP), "stops", len(built.Stops))
	}
}

// processVSTPMessage persists the VSTP schedule to Postgres (the same
// shape cif-loader populates) and returns the schedule.Schedule the
// streaming builder folded it into, so the caller can confirm the
// amendment produced a sane calling pattern before it's picked up by
// the next batch pipeline run.
func processVSTPMessage(ctx context.Context, db *pgxpool.Pool, rdb *redis.Client, vstpMsg *types.VSTPMessage) (*schedule.Schedule, error) {
	vs := &vstpMsg.VSTPCIFMsgV1.Schedule

	startDate, err := time.Parse("2006-01-02", vs.ScheduleStartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	endDate, err := time.Parse("2006-01-02", vs.ScheduleEndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var rows []schedule.Row
	var scheduleID int
	for _, segment := range vs.ScheduleSegment {
		err = tx.QueryRow(ctx, `
			INSERT INTO schedule (
				train_uid, transaction_type, stp_indicator, bank_holiday_running,
				applicable_timetable, atoc_code, schedule_days_runs, schedule_start_date,
				schedule_end_date, train_status, signalling_id, train_category,
				headcode, course_indicator, train_service_code, business_sector,
				power_type, timing_load, speed, operating_characteristics,
				train_class, sleepers, reservations, connection_indicator,
				catering_code, service_branding, traction_class, uic_code,
				origin_msg_id, schema_location
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
				$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30
			) RETURNING id`,
			vs.TrainUID,
			vs.TransactionType,
			vs.StpIndicator,
			nullString(vs.BankHolidayRunning),
			nullString(vs.ApplicableTimetable),
			nullString(segment.AtocCode),
			vs.ScheduleDaysRuns,
			startDate,
			endDate,
			vs.TrainStatus,
			segment.SignallingId,
			segment.TrainCategory,
			segment.Headcode,
			parseIntOrZero(segment.CourseIndicator),
			segment.TrainServiceCode,
			nullString(segment.BusinessSector),
			nullString(segment.PowerType),
			nullString(segment.TimingLoad),
			nullString(segment.Speed),
			nullString(segment.OperatingCharacteristics),
			nullString(segment.TrainClass),
			nullString(segment.Sleepers),
			nullString(segment.Reservations),
			nullString(segment.ConnectionIndicator),
			nullString(segment.CateringCode),
			segment.ServiceBranding,
			nullString(segment.TractionClass),
			nullString(segment.UicCode),
			vstpMsg.VSTPCIFMsgV1.OriginMsgId,
			vstpMsg.VSTPCIFMsgV1.SchemaLocation,
		).Scan(&scheduleID)
		if err != nil {
			return nil, fmt.Errorf("inserting schedule: %w", err)
		}

		for i, location := range segment.ScheduleLocation {
			if err := insertScheduleLocation(ctx, tx, scheduleID, &location, i+1); err != nil {
				return nil, fmt.Errorf("inserting schedule location: %w", err)
			}
			rows = append(rows, vstpRowToScheduleRow(vs, &segment, &location, i+1, startDate, endDate))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	built, err := foldVSTPRows(rows)
	if err != nil {
		return nil, err
	}

	if err := clearLiveExclusions(ctx, rdb, strings.TrimSpace(vs.TrainUID)); err != nil {
		utils.GetLogger().Warnw("clearing live exclusion cache", "error", err)
	}

	return built, nil
}

// foldVSTPRows runs rows (already ordered by location_order) through
// the same streaming builder the batch pipeline uses, so a live
// amendment's calling pattern is normalised identically to a CIF one.
func foldVSTPRows(rows []schedule.Row) (*schedule.Schedule, error) {
	src := &inMemoryRows{rows: rows}
	builder := schedule.NewStreamingScheduleBuilder(schedule.BuilderOptions{})
	built, err := builder.Build(src, func(s schedule.RowSource) (schedule.Row, error) {
		ims := s.(*inMemoryRows)
		return ims.rows[ims.idx-1], nil
	})
	if err != nil {
		return nil, err
	}
	if len(built) == 0 {
		return &schedule.Schedule{}, nil
	}
	return built[0], nil
}

type inMemoryRows struct {
	rows []schedule.Row
	idx  int
}

func (r *inMemoryRows) Next() bool {
	if r.idx >= len(r.rows) {
		return false
	}
	r.idx++
	return true
}
func (r *inMemoryRows) Scan(dest ...any) error { return nil }
func (r *inMemoryRows) Err() error             { return nil }

func vstpRowToScheduleRow(vs *types.VSTPSchedule, segment *types.VSTPScheduleSegment, loc *types.VSTPScheduleLocation, order int, startDate, endDate time.Time) schedule.Row {
	stp := schedule.STPIndicator(' ')
	if len(vs.StpIndicator) > 0 {
		stp = schedule.STPIndicator(vs.StpIndicator[0])
	}
	return schedule.Row{
		ScheduleID:      vs.ScheduleId,
		TUID:            vs.TrainUID,
		STP:             stp,
		TrainCategory:   segment.TrainCategory,
		ATOCCode:        segment.AtocCode,
		Headcode:        segment.Headcode,
		TrainClass:      segment.TrainClass,
		Reservations:    segment.Reservations,
		ScheduleStart:   startDate,
		ScheduleEnd:     endDate,
		DaysRun:         vs.ScheduleDaysRuns,
		TIPLOC:          loc.Location.Tiploc.TiplocId,
		LocationOrder:   order,
		Arrival:         parseVSTPTime(loc.ScheduledArrivalTime),
		PublicArrival:   parseVSTPTime(loc.PublicArrivalTime),
		Departure:       parseVSTPTime(loc.ScheduledDepartureTime),
		PublicDeparture: parseVSTPTime(loc.PublicDepartureTime),
		Pass:            parseVSTPTime(loc.ScheduledPassTime),
		Platform:        loc.Platform,
		Activity:        schedule.ActivityCode(loc.Activity),
	}
}

func insertScheduleLocation(ctx context.Context, tx pgx.Tx, scheduleID int, location *types.VSTPScheduleLocation, order int) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO schedule_location (
			schedule_id, location_type, record_identity, tiploc_code, tiploc_instance,
			arrival, public_arrival, departure, public_departure, pass,
			platform, line, path, engineering_allowance, pathing_allowance,
			performance_allowance, location_order, activity
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18
		)`,
		scheduleID,
		"LO",
		"LO",
		location.Location.Tiploc.TiplocId,
		nil,
		parseVSTPTime(location.ScheduledArrivalTime),
		parseVSTPTime(location.PublicArrivalTime),
		parseVSTPTime(location.ScheduledDepartureTime),
		parseVSTPTime(location.PublicDepartureTime),
		parseVSTPTime(location.ScheduledPassTime),
		nullString(location.Platform),
		nullString(location.Line),
		nullString(location.Path),
		nullString(location.EngineeringAllowance),
		nullString(location.PathingAllowance),
		nullString(location.PerformanceAllowance),
		order,
		nullString(location.Activity),
	)
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseIntOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func parseVSTPTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("1504", s)
	if err != nil {
		return nil
	}
	return &t
}

func clearLiveExclusions(ctx context.Context, rdb *redis.Client, tuid string) error {
	return rdb.Del(ctx, "gtfs:excl:"+tuid).Err()
}
