package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/metrics"
)

var (
	ErrLockNotAcquired = errors.New("ロックを取得できませんでした")
	ErrLockNotOwned    = errors.New("ロックの所有者ではありません")
)

// 所有者が一致する場合のみ削除する
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
else
	return 0
end
`)

// 所有者が一致する場合のみ期限を延長する
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
else
	return 0
end
`)

// Lock は Redis 上の排他ロック
type Lock struct {
	client  *redis.Client
	key     string
	value   string
	metrics *metrics.Metrics
}

// LockManager は列車単位のロックを管理する
type LockManager struct {
	client     *redis.Client
	ttl        time.Duration
	maxRetries int
	retryDelay time.Duration
	metrics    *metrics.Metrics
}

// NewLockManager は ttl のロックを発行する LockManager を作成する
func NewLockManager(client *redis.Client, ttl time.Duration, m *metrics.Metrics) *LockManager {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &LockManager{client: client, ttl: ttl, maxRetries: 20, retryDelay: 50 * time.Millisecond, metrics: m}
}

func tripLockKey(tripID string) string {
	return fmt.Sprintf("lock:trip:%s", tripID)
}

// Acquire はロックを1回だけ試みる
func (m *LockManager) Acquire(ctx context.Context, key string) (*Lock, error) {
	value := uuid.NewString()
	ok, err := m.client.SetNX(ctx, key, value, m.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("ロック取得に失敗: %w", err)
	}
	if !ok {
		return nil, ErrLockNotAcquired
	}
	return &Lock{client: m.client, key: key, value: value, metrics: m.metrics}, nil
}

// AcquireWithRetry は取得できるまで retryDelay 間隔で maxRetries 回試みる
func (m *LockManager) AcquireWithRetry(ctx context.Context, key string) (*Lock, error) {
	start := time.Now()
	var lastErr error
retry:
	for i := 0; i < m.maxRetries; i++ {
		lock, err := m.Acquire(ctx, key)
		if err == nil {
			m.metrics.ObserveLock("acquire", true, time.Since(start).Seconds())
			return lock, nil
		}
		lastErr = err
		if !errors.Is(err, ErrLockNotAcquired) {
			break
		}
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		case <-time.After(m.retryDelay):
		}
	}
	m.metrics.ObserveLock("acquire", false, time.Since(start).Seconds())
	return nil, lastErr
}

// LockTrip は列車の空席数を変更する処理を直列化するロックを取得し、解放関数を返す
func (m *LockManager) LockTrip(ctx context.Context, tripID string) (func(context.Context) error, error) {
	lock, err := m.AcquireWithRetry(ctx, tripLockKey(tripID))
	if err != nil {
		return nil, err
	}
	return lock.Release, nil
}

// Release はロックを解放する
func (l *Lock) Release(ctx context.Context) error {
	start := time.Now()
	result, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.value).Int()
	if err != nil {
		l.metrics.ObserveLock("release", false, time.Since(start).Seconds())
		return fmt.Errorf("ロック解放に失敗: %w", err)
	}
	l.metrics.ObserveLock("release", result == 1, time.Since(start).Seconds())
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}

// Extend はロックの有効期限を延長する
func (l *Lock) Extend(ctx context.Context, ttl time.Duration) error {
	result, err := extendScript.Run(ctx, l.client, []string{l.key}, l.value, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("ロック延長に失敗: %w", err)
	}
	if result == 0 {
		return ErrLockNotOwned
	}
	return nil
}
