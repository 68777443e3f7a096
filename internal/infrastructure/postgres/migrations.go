package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
)

// schemaMigrationsTable は適用済みバージョンを記録するテーブル
const schemaMigrationsTable = "train_schema_migrations"

// RunMigrations は trips, reservations, train_cards, users のスキーマを最新まで適用する
// 途中で失敗して dirty になったスキーマでは起動しない
func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: schemaMigrationsTable})
	if err != nil {
		return fmt.Errorf("マイグレーションドライバー作成エラー: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("マイグレーションの読み込みに失敗 (%s): %w", migrationsPath, err)
	}

	before, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("マイグレーションバージョン取得エラー: %w", err)
	}
	if dirty {
		return fmt.Errorf("スキーマが不完全な状態です。手動で修復してください: version=%d", before)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("マイグレーション実行エラー: %w", err)
	}

	after, _, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("マイグレーションバージョン取得エラー: %w", err)
	}
	if after == before {
		logger.Debug("スキーマは最新", zap.Uint("version", after))
		return nil
	}
	logger.Info("マイグレーション完了", zap.Uint("from", before), zap.Uint("to", after))
	return nil
}
