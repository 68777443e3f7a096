package card

import "context"

// Repository は鉄道カードリポジトリのインターフェース
type Repository interface {
	// GetByUserID はユーザーのカードを取得する。未登録なら ErrCardNotFound
	GetByUserID(ctx context.Context, userID string) (*TrainCard, error)

	// Upsert はユーザーのカードを作成または更新する
	Upsert(ctx context.Context, card *TrainCard) error

	// DeleteByUserID はユーザーのカードを削除する
	DeleteByUserID(ctx context.Context, userID string) error
}
