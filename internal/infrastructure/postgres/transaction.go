package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
)

// errTxRequired は座席数や予約を書き換えるメソッドに postgres 以外の Tx が渡された場合のエラー
var errTxRequired = errors.New("トランザクションが必要です")

// pgTx は sqlx.Tx を transaction.Tx として扱う
type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) Commit() error {
	return t.tx.Commit()
}

// Rollback はコミット済みのトランザクションに対しては何もしない
func (t *pgTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

// TxManager は予約と列車の更新をまとめる PostgreSQL のトランザクションを開始する
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

// requireTx は書き込み系で使う sqlx.Tx を取り出す
func requireTx(tx transaction.Tx) (*sqlx.Tx, error) {
	if t, ok := tx.(*pgTx); ok && t != nil {
		return t.tx, nil
	}
	return nil, errTxRequired
}

var _ transaction.Manager = (*TxManager)(nil)
