// Command cancellation-consumer watches the TRUST feed for train
// cancellations and live movement reports. A cancellation turns into a
// live exclusion date against the cancelled train in the Redis
// exclusion store; the batch pipeline (gtfs-builder) does not read that
// store. ARRIVAL/DEPARTURE reports are just cached for operational
// visibility.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nrdp-rail/gtfs-engine/src/common/data"
	"github.com/nrdp-rail/gtfs-engine/src/common/types"
	"github.com/nrdp-rail/gtfs-engine/src/common/utils"
)

func main() {
	ctx := context.Background()
	utils.InitLogger()
	defer utils.SyncLogger()
	log := utils.GetLogger()

	rdb := utils.NewRedisClient()
	defer rdb.Close()
	exclusions := data.NewRedisExclusionStore(rdb)

	conn, channel, err := utils.NewRabbitConnection()
	if err != nil {
		log.Fatalw("connecting to rabbitmq", "error", err)
	}
	defer conn.Close()
	defer channel.Close()

	if _, err := channel.QueueDeclare("trust", false, false, false, false, nil); err != nil {
		log.Fatalw("declaring trust queue", "error", err)
	}

	msgs, err := channel.Consume("trust", "", true, false, false, false, nil)
	if err != nil {
		log.Fatalw("consuming trust queue", "error", err)
	}

	log.Info("tracking train positions and cancellations via TRUST feed")

	for msg := range msgs {
		var trust types.TrustMessage
		if err := json.Unmarshal(msg.Body, &trust); err != nil {
			log.Errorw("bad TRUST json", "error", err)
			continue
		}

		switch trust.Header.MsgType {
		case types.TrainCancellation:
			if err := handleCancellation(ctx, exclusions, &trust); err != nil {
				log.Errorw("handling cancellation", "trainID", trust.Body.TrainID, "error", err)
			}

		case types.TrainMovement:
			if trust.Body.EventType == "ARRIVAL" || trust.Body.EventType == "DEPARTURE" {
				if err := cachePosition(ctx, rdb, &trust); err != nil {
					log.Errorw("caching position", "trainID", trust.Body.TrainID, "error", err)
				}
			}
		}
	}
}

// handleCancellation turns a TRUST cancellation into a live exclusion
// date keyed on the train's TRUST id (a daily working id). Nothing maps
// that id to a TUID: the batch pipeline's schedule query does not join
// against these exclusions.
func handleCancellation(ctx context.Context, exclusions *data.RedisExclusionStore, trust *types.TrustMessage) error {
	day := cancellationDay(trust.Body.ActualTimestamp, trust.Body.PlannedTimestamp)
	return exclusions.AddExcludeDay(ctx, trust.Body.TrainID, day)
}

func cancellationDay(actual, planned string) string {
	ts := actual
	if ts == "" {
		ts = planned
	}
	if len(ts) < 14 {
		return time.Now().UTC().Format("2006-01-02")
	}
	parsed, err := time.Parse("20060102150405", ts[:14])
	if err != nil {
		return time.Now().UTC().Format("2006-01-02")
	}
	return parsed.Format("2006-01-02")
}

func cachePosition(ctx context.Context, rdb *redis.Client, trust *types.TrustMessage) error {
	key := fmt.Sprintf("train:%s", trust.Body.TrainID)
	data := map[string]any{
		"train_id":        trust.Body.TrainID,
		"event_type":      trust.Body.EventType,
		"location_stanox": trust.Body.LocStanox,
		"timestamp":       trust.Body.ActualTimestamp,
	}
	if err := rdb.HSet(ctx, key, data).Err(); err != nil {
		return err
	}
	return rdb.Expire(ctx, key, 2*time.Hour).Err()
}
