package reservation

import (
	"context"
	"time"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
)

// Repository は予約リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	Create(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Reservation, error)

	// GetByIDForUpdate はIDから予約を行ロック付きで取得する（トランザクション必須）
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Reservation, error)

	// List は全ユーザーの予約一覧を作成日時順に取得する
	List(ctx context.Context) ([]*Reservation, error)

	// ListByUserID はユーザーの予約一覧を作成日時順に取得する
	ListByUserID(ctx context.Context, userID string) ([]*Reservation, error)

	// ListUnpaidCreatedBefore は cutoff より前に作成された未払い予約を取得する
	ListUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]*Reservation, error)

	// CountByTripID は列車に紐づく予約数を取得する
	CountByTripID(ctx context.Context, tripID string) (int, error)

	// Update は予約を更新する（トランザクション必須）
	Update(ctx context.Context, tx transaction.Tx, reservation *Reservation) error

	// Delete は予約を削除する（トランザクション必須）
	Delete(ctx context.Context, tx transaction.Tx, id string) error
}
