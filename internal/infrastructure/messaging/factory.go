package messaging

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/config"
)

// NewPublisher は BROKER_DRIVER に応じた Publisher を作成する。
// redis ドライバーでは redisClient が必要
func NewPublisher(cfg config.BrokerConfig, redisClient redis.UniversalClient, log *zap.Logger) (Publisher, error) {
	adapter := NewLoggerAdapter(log)

	switch cfg.Driver {
	case config.BrokerNone, "":
		return NopPublisher{}, nil
	case config.BrokerMemory:
		return NewWatermillPublisher(NewGoChannel(adapter), cfg.Topic), nil
	case config.BrokerRedis:
		if redisClient == nil {
			return nil, fmt.Errorf("redis ブローカーには Redis クライアントが必要です")
		}
		return NewRedisStreamPublisher(redisClient, cfg.Topic, adapter)
	case config.BrokerKafka:
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.Topic, adapter)
	case config.BrokerRabbitMQ:
		return NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.Topic)
	default:
		return nil, fmt.Errorf("unsupported broker driver: %s", cfg.Driver)
	}
}
