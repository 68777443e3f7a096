package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("キャッシュが見つかりません")

// TripCache は列車の空席数をキャッシュする
type TripCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewTripCache(client *redis.Client, ttl time.Duration) *TripCache {
	return &TripCache{client: client, ttl: ttl}
}

// GetAvailableSeats はキャッシュ済みの空席数を返す。未キャッシュなら ErrCacheMiss
func (c *TripCache) GetAvailableSeats(ctx context.Context, tripID string) (int, error) {
	val, err := c.client.Get(ctx, availableSeatsKey(tripID)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

func (c *TripCache) SetAvailableSeats(ctx context.Context, tripID string, seats int) error {
	if err := c.client.Set(ctx, availableSeatsKey(tripID), seats, c.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

func (c *TripCache) Invalidate(ctx context.Context, tripID string) error {
	if err := c.client.Del(ctx, availableSeatsKey(tripID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func availableSeatsKey(tripID string) string {
	return fmt.Sprintf("trips:available:%s", tripID)
}
