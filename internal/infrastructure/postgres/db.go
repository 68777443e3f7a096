package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/config"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
)

// 起動直後はDBコンテナの準備が終わっていないことがあるため数回だけ再試行する
const (
	connectAttempts = 5
	connectBackoff  = time.Second
)

// NewConnection はPostgreSQLへ接続し、設定に従って接続プールを調整する
func NewConnection(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err = sqlx.Connect("postgres", cfg.DSN())
		if err == nil {
			break
		}
		logger.Warn("データベース接続を再試行",
			zap.String("host", cfg.Host),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		time.Sleep(time.Duration(attempt) * connectBackoff)
	}
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Ping はヘルスチェック用にデータベースへの疎通を確認する
func Ping(ctx context.Context, db *sqlx.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("データベースに到達できません: %w", err)
	}
	return nil
}
