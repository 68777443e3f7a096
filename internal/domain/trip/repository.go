package trip

import (
	"context"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
)

// Repository は運行便リポジトリのインターフェース
type Repository interface {
	// Create は新しい運行便を作成する
	Create(ctx context.Context, trip *Trip) error

	// GetByID はIDから運行便を取得する
	GetByID(ctx context.Context, id string) (*Trip, error)

	// List は運行便一覧を出発日時順に取得する
	List(ctx context.Context) ([]*Trip, error)

	// Update は運行便を更新する（楽観的ロック）
	Update(ctx context.Context, trip *Trip) error

	// Delete は運行便を削除する
	Delete(ctx context.Context, id string) error

	// AdjustSeats は空席数に delta を原子的に加え、更新後の空席数を返す（トランザクション必須）
	// 結果が負になる場合は ErrInsufficientSeats を返し、変更しない
	AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta int) (int, error)
}
