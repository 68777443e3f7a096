package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
)

const reservationColumns = `id, trip_id, user_id, ticket_numbers, sum_price, has_child, is_paid, created_at, updated_at`

type reservationRow struct {
	ID            string    `db:"id"`
	TripID        string    `db:"trip_id"`
	UserID        string    `db:"user_id"`
	TicketNumbers int       `db:"ticket_numbers"`
	SumPrice      float64   `db:"sum_price"`
	HasChild      bool      `db:"has_child"`
	IsPaid        bool      `db:"is_paid"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (r *reservationRow) toEntity() *reservation.Reservation {
	return &reservation.Reservation{
		ID: r.ID, TripID: r.TripID, UserID: r.UserID,
		TicketNumbers: r.TicketNumbers, SumPrice: r.SumPrice,
		HasChild: r.HasChild, IsPaid: r.IsPaid,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func toReservations(rows []reservationRow) []*reservation.Reservation {
	result := make([]*reservation.Reservation, len(rows))
	for i := range rows {
		result[i] = rows[i].toEntity()
	}
	return result
}

type ReservationRepository struct{ db *sqlx.DB }

func NewReservationRepository(db *sqlx.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := requireTx(tx)
	if err != nil {
		return err
	}
	query := `INSERT INTO reservations (trip_id, user_id, ticket_numbers, sum_price, has_child, is_paid, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := sqlTx.QueryRowContext(ctx, query,
		res.TripID, res.UserID, res.TicketNumbers, res.SumPrice, res.HasChild, res.IsPaid, res.CreatedAt, res.UpdatedAt,
	).Scan(&res.ID); err != nil {
		return fmt.Errorf("予約作成に失敗: %w", err)
	}
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	return r.get(ctx, r.db, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	sqlTx, err := requireTx(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, sqlTx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReservationRepository) get(ctx context.Context, q sqlx.QueryerContext, query, id string) (*reservation.Reservation, error) {
	var row reservationRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || isInvalidID(err) {
			return nil, reservation.ErrReservationNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗: %w", err)
	}
	return row.toEntity(), nil
}

func (r *ReservationRepository) List(ctx context.Context) ([]*reservation.Reservation, error) {
	return r.selectMany(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY created_at, id`)
}

func (r *ReservationRepository) ListByUserID(ctx context.Context, userID string) ([]*reservation.Reservation, error) {
	return r.selectMany(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (r *ReservationRepository) ListUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]*reservation.Reservation, error) {
	return r.selectMany(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE is_paid = FALSE AND created_at < $1 ORDER BY created_at, id`, cutoff)
}

func (r *ReservationRepository) selectMany(ctx context.Context, query string, args ...interface{}) ([]*reservation.Reservation, error) {
	var rows []reservationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		if isInvalidID(err) {
			return []*reservation.Reservation{}, nil
		}
		return nil, fmt.Errorf("予約一覧取得に失敗: %w", err)
	}
	return toReservations(rows), nil
}

func (r *ReservationRepository) CountByTripID(ctx context.Context, tripID string) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM reservations WHERE trip_id = $1`, tripID); err != nil {
		if isInvalidID(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("予約数取得に失敗: %w", err)
	}
	return n, nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	sqlTx, err := requireTx(tx)
	if err != nil {
		return err
	}
	query := `UPDATE reservations SET ticket_numbers = $1, sum_price = $2, has_child = $3, is_paid = $4, updated_at = $5 WHERE id = $6`
	result, err := sqlTx.ExecContext(ctx, query, res.TicketNumbers, res.SumPrice, res.HasChild, res.IsPaid, res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("予約更新に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	sqlTx, err := requireTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlTx.ExecContext(ctx, `DELETE FROM reservations WHERE id = $1`, id)
	if err != nil {
		if isInvalidID(err) {
			return reservation.ErrReservationNotFound
		}
		return fmt.Errorf("予約削除に失敗: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return reservation.ErrReservationNotFound
	}
	return nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
