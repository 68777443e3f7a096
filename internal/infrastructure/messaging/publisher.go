// Package messaging は予約イベントをメッセージブローカーへ配信する
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-kafka/v2/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
)

// メッセージのメタデータキー
const metadataEventType = "event_type"

// Publisher は予約イベントの配信先
type Publisher interface {
	Publish(ctx context.Context, event reservation.Event) error
	Close() error
}

// WatermillPublisher は watermill の message.Publisher に JSON で配信する
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewWatermillPublisher(publisher message.Publisher, topic string) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, topic: topic}
}

func (p *WatermillPublisher) Publish(ctx context.Context, event reservation.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("イベントのシリアライズに失敗: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(metadataEventType, string(event.Type))
	msg.SetContext(ctx)

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("イベント配信に失敗: %w", err)
	}
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// NewGoChannel はプロセス内配信用の Pub/Sub を作成する。購読にも使える
func NewGoChannel(logger watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
}

// NewRedisStreamPublisher は Redis Streams へ配信する Publisher を作成する
func NewRedisStreamPublisher(client redis.UniversalClient, topic string, logger watermill.LoggerAdapter) (*WatermillPublisher, error) {
	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: client}, logger)
	if err != nil {
		return nil, fmt.Errorf("Redis Streams パブリッシャー作成に失敗: %w", err)
	}
	return NewWatermillPublisher(pub, topic), nil
}

// NewKafkaPublisher は Kafka へ配信する Publisher を作成する
func NewKafkaPublisher(brokers []string, topic string, logger watermill.LoggerAdapter) (*WatermillPublisher, error) {
	pub, err := kafka.NewPublisher(kafka.PublisherConfig{
		Brokers:   brokers,
		Marshaler: kafka.DefaultMarshaler{},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("Kafka パブリッシャー作成に失敗: %w", err)
	}
	return NewWatermillPublisher(pub, topic), nil
}

// NopPublisher は何も配信しない
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, reservation.Event) error { return nil }
func (NopPublisher) Close() error                                    { return nil }
