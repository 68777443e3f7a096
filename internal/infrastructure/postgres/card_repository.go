package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
)

type cardRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CardType  string    `db:"card_type"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type CardRepository struct{ db *sqlx.DB }

func NewCardRepository(db *sqlx.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) GetByUserID(ctx context.Context, userID string) (*card.TrainCard, error) {
	var row cardRow
	query := `SELECT id, user_id, card_type, created_at, updated_at FROM train_cards WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, card.ErrCardNotFound
		}
		return nil, fmt.Errorf("カード取得に失敗: %w", err)
	}
	return &card.TrainCard{
		ID: row.ID, UserID: row.UserID, Type: card.Type(row.CardType),
		CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt,
	}, nil
}

// Upsert はユーザーごとに1枚のカードを作成または種別を更新する
func (r *CardRepository) Upsert(ctx context.Context, c *card.TrainCard) error {
	query := `INSERT INTO train_cards (user_id, card_type, created_at, updated_at) VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET card_type = EXCLUDED.card_type, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	if err := r.db.QueryRowContext(ctx, query, c.UserID, string(c.Type), c.CreatedAt, c.UpdatedAt).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("カード登録に失敗: %w", err)
	}
	return nil
}

func (r *CardRepository) DeleteByUserID(ctx context.Context, userID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM train_cards WHERE user_id = $1`, userID)
	if err != nil {
		if isInvalidID(err) {
			return card.ErrCardNotFound
		}
		return fmt.Errorf("カード削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return card.ErrCardNotFound
	}
	return nil
}

var _ card.Repository = (*CardRepository)(nil)
