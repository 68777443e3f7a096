package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
)

const tripColumns = `id, departure_city, arrival_city, departure_at, arrival_at, two_way, available_seats, base_price, created_at, updated_at, version`

type tripRow struct {
	ID             string    `db:"id"`
	DepartureCity  string    `db:"departure_city"`
	ArrivalCity    string    `db:"arrival_city"`
	DepartureAt    time.Time `db:"departure_at"`
	ArrivalAt      time.Time `db:"arrival_at"`
	TwoWay         bool      `db:"two_way"`
	AvailableSeats int       `db:"available_seats"`
	BasePrice      float64   `db:"base_price"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
	Version        int       `db:"version"`
}

// toEntity は時刻を loc に揃えて変換する。時間帯割引は loc の時刻で判定される
func (r *tripRow) toEntity(loc *time.Location) *trip.Trip {
	return &trip.Trip{
		ID: r.ID, DepartureCity: r.DepartureCity, ArrivalCity: r.ArrivalCity,
		DepartureAt: r.DepartureAt.In(loc), ArrivalAt: r.ArrivalAt.In(loc),
		TwoWay: r.TwoWay, AvailableSeats: r.AvailableSeats, BasePrice: r.BasePrice,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt, Version: r.Version,
	}
}

type TripRepository struct {
	db  *sqlx.DB
	loc *time.Location
}

// NewTripRepository は運行便リポジトリを作成する。loc は読み出した日時のタイムゾーン
func NewTripRepository(db *sqlx.DB, loc *time.Location) *TripRepository {
	if loc == nil {
		loc = time.Local
	}
	return &TripRepository{db: db, loc: loc}
}

func (r *TripRepository) Create(ctx context.Context, t *trip.Trip) error {
	query := `INSERT INTO trips (departure_city, arrival_city, departure_at, arrival_at, two_way, available_seats, base_price, created_at, updated_at, version) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		t.DepartureCity, t.ArrivalCity, t.DepartureAt, t.ArrivalAt, t.TwoWay,
		t.AvailableSeats, t.BasePrice, t.CreatedAt, t.UpdatedAt, t.Version,
	).Scan(&t.ID); err != nil {
		return fmt.Errorf("列車作成に失敗: %w", err)
	}
	return nil
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	var row tripRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, trip.ErrTripNotFound
		}
		return nil, fmt.Errorf("列車取得に失敗: %w", err)
	}
	return row.toEntity(r.loc), nil
}

func (r *TripRepository) List(ctx context.Context) ([]*trip.Trip, error) {
	var rows []tripRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+tripColumns+` FROM trips ORDER BY departure_at, id`); err != nil {
		return nil, fmt.Errorf("列車一覧取得に失敗: %w", err)
	}
	trips := make([]*trip.Trip, len(rows))
	for i := range rows {
		trips[i] = rows[i].toEntity(r.loc)
	}
	return trips, nil
}

// Update は version が一致する場合のみ更新し、成功時に t.Version を進める
func (r *TripRepository) Update(ctx context.Context, t *trip.Trip) error {
	query := `UPDATE trips SET departure_city = $1, arrival_city = $2, departure_at = $3, arrival_at = $4, two_way = $5, available_seats = $6, base_price = $7, updated_at = $8, version = version + 1 WHERE id = $9 AND version = $10`
	result, err := r.db.ExecContext(ctx, query,
		t.DepartureCity, t.ArrivalCity, t.DepartureAt, t.ArrivalAt, t.TwoWay,
		t.AvailableSeats, t.BasePrice, t.UpdatedAt, t.ID, t.Version,
	)
	if err != nil {
		if isInvalidID(err) {
			return trip.ErrTripNotFound
		}
		return fmt.Errorf("列車更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		if _, err := r.GetByID(ctx, t.ID); err != nil {
			return err
		}
		return trip.ErrOptimisticLockConflict
	}
	t.Version++
	return nil
}

func (r *TripRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	if err != nil {
		switch {
		case hasCode(err, codeForeignKeyViolation):
			return trip.ErrTripHasReservations
		case isInvalidID(err):
			return trip.ErrTripNotFound
		}
		return fmt.Errorf("列車削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return trip.ErrTripNotFound
	}
	return nil
}

// AdjustSeats は条件付き UPDATE 1文で空席数を増減する。
// 更新されなかった場合は列車の有無で未検出と在庫不足を区別する
func (r *TripRepository) AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta int) (int, error) {
	sqlTx, err := requireTx(tx)
	if err != nil {
		return 0, err
	}

	query := `UPDATE trips SET available_seats = available_seats + $1, version = version + 1, updated_at = NOW() WHERE id = $2 AND available_seats + $1 >= 0 RETURNING available_seats`
	var seats int
	err = sqlTx.QueryRowContext(ctx, query, delta, id).Scan(&seats)
	if err == nil {
		return seats, nil
	}
	if isInvalidID(err) {
		return 0, trip.ErrTripNotFound
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("空席数更新に失敗: %w", err)
	}

	var current int
	if err := sqlTx.QueryRowContext(ctx, `SELECT available_seats FROM trips WHERE id = $1`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, trip.ErrTripNotFound
		}
		return 0, fmt.Errorf("空席数取得に失敗: %w", err)
	}
	return 0, fmt.Errorf("%w: 残り%d席です", trip.ErrInsufficientSeats, current)
}

var _ trip.Repository = (*TripRepository)(nil)
