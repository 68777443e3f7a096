// Package worker はHTTPリクエストとは独立して動くバックグラウンド処理
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
)

// ReservationSweeper は有効期間を過ぎた未払い予約を削除する
type ReservationSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// 連続失敗がこの回数に達したらエラーログに切り替える
const failureAlertThreshold = 3

// ExpirySweeper は未払い予約の期限切れ削除を定期実行する
// 一覧取得時の削除とは別に、誰も一覧を見ない間も予約が残り続けないようにする
type ExpirySweeper struct {
	sweeper  ReservationSweeper
	interval time.Duration
	// 1回の削除にかける上限
	timeout time.Duration

	failures int

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

func NewExpirySweeper(s ReservationSweeper, interval time.Duration) *ExpirySweeper {
	return &ExpirySweeper{
		sweeper:  s,
		interval: interval,
		timeout:  interval / 2,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start は起動直後に一度削除し、以降 interval ごとに繰り返す
// ctx のキャンセルか Stop で戻る
func (w *ExpirySweeper) Start(ctx context.Context) {
	defer close(w.doneCh)
	logger.Info("期限切れ予約の定期削除を開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("期限切れ予約の定期削除を停止", zap.String("reason", "context"))
			return
		case <-w.stopCh:
			logger.Info("期限切れ予約の定期削除を停止", zap.String("reason", "stop"))
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// Stop は実行中の削除が終わるのを待って停止する。複数回呼んでもよい
func (w *ExpirySweeper) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *ExpirySweeper) sweep(ctx context.Context) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	count, err := w.sweeper.SweepExpired(ctx)
	if err != nil {
		w.failures++
		log := logger.Warn
		if w.failures >= failureAlertThreshold {
			log = logger.Error
		}
		log("期限切れ予約の削除に失敗", zap.Int("consecutive_failures", w.failures), zap.Error(err))
		return
	}
	w.failures = 0
	logger.Debug("期限切れ予約の定期削除", zap.Int("removed", count))
}
