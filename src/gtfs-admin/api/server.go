package api

import (
	"github.com/nrdp-rail/gtfs-engine/src/common/data"
	"github.com/nrdp-rail/gtfs-engine/src/common/utils"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// APIServer exposes operational endpoints over the pipeline's Redis
// run-stats and the AMQP connection used to request an out-of-band
// rebuild. It carries no passenger-facing query surface: that scope
// belongs to a GTFS consumer, not to this engine.
type APIServer struct {
	Logger  *zap.SugaredLogger
	Runs    *data.BuildRunStore
	mqConn  *amqp.Connection
	mqChan  *amqp.Channel
}

func NewServer() (*APIServer, error) {
	logger := utils.GetLogger()

	rdb := utils.NewRedisClient()
	runs := data.NewBuildRunStore(rdb)

	conn, channel, err := utils.NewRabbitConnection()
	if err != nil {
		logger.Errorw("failed to connect to rabbitmq", "error", err)
		return nil, err
	}

	if _, err := channel.QueueDeclare("gtfs.rebuild.requested", false, false, false, false, nil); err != nil {
		logger.Errorw("failed to declare rebuild queue", "error", err)
		return nil, err
	}

	return &APIServer{
		Logger: logger,
		Runs:   runs,
		mqConn: conn,
		mqChan: channel,
	}, nil
}

func (s *APIServer) Close() {
	if s.mqChan != nil {
		s.mqChan.Close()
	}
	if s.mqConn != nil {
		s.mqConn.Close()
	}
}
