package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

func beginTx(t *testing.T, db *sqlx.DB, mock sqlmock.Sqlmock) transaction.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := NewTxManager(db).Begin(context.Background())
	require.NoError(t, err)
	return tx
}

// fakeTx は postgres 以外の Tx 実装
type fakeTx struct{}

func (fakeTx) Commit() error   { return nil }
func (fakeTx) Rollback() error { return nil }
