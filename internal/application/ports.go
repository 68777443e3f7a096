package application

import (
	"context"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/apperr"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
)

var (
	ErrTripBusy  = apperr.New(apperr.ErrInsufficientInventory, "この列車は他の予約を処理中です。しばらくしてから再度お試しください")
	ErrForbidden = apperr.New(apperr.ErrUnauthorized, "この操作を行う権限がありません")
)

// Caller はリクエスト元のユーザーを表す
type Caller struct {
	UserID  string
	IsAdmin bool
}

// CanAccess は userID が所有するリソースを操作できるかを返す
func (c Caller) CanAccess(userID string) bool {
	return c.IsAdmin || c.UserID == userID
}

// TripLocker は列車単位の排他ロック。戻り値の関数でロックを解放する
type TripLocker interface {
	LockTrip(ctx context.Context, tripID string) (func(context.Context) error, error)
}

// TripCache は空席数キャッシュ
type TripCache interface {
	GetAvailableSeats(ctx context.Context, tripID string) (int, error)
	SetAvailableSeats(ctx context.Context, tripID string, seats int) error
	Invalidate(ctx context.Context, tripID string) error
}

// EventPublisher は予約イベントの送信先
type EventPublisher interface {
	Publish(ctx context.Context, event reservation.Event) error
}
