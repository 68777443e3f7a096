// Package transaction は座席数と予約を同時に書き換えるための境界を定義する
package transaction

import (
	"context"
	"fmt"
)

// Tx は進行中のトランザクション
// 実体は PostgreSQL では sqlx.Tx、メモリストアではストア全体のロック
type Tx interface {
	Commit() error
	Rollback() error
}

// Manager はトランザクションを開始する
type Manager interface {
	Begin(ctx context.Context) (Tx, error)
}

// Run は fn を1つのトランザクションで実行する
// fn がエラーを返した場合とコミット前に panic した場合はロールバックされる
func Run(ctx context.Context, m Manager, fn func(tx Tx) error) error {
	tx, err := m.Begin(ctx)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	// コミット済みなら Rollback は何もしない
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("コミットに失敗: %w", err)
	}
	return nil
}
