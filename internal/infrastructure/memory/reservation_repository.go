package memory

import (
	"context"
	"sort"
	"time"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
)

type ReservationRepository struct{ s *Store }

func NewReservationRepository(s *Store) *ReservationRepository {
	return &ReservationRepository{s: s}
}

func (r *ReservationRepository) Create(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	mtx, err := r.s.activeTx(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.trips[res.TripID]; !ok {
		return trip.ErrTripNotFound
	}
	if res.ID == "" {
		res.ID = newID()
	}
	id := res.ID
	r.s.reservations[id] = *res
	mtx.record(func() { delete(r.s.reservations, id) })
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res, ok := r.s.reservations[id]
	if !ok {
		return nil, reservation.ErrReservationNotFound
	}
	return &res, nil
}

// GetByIDForUpdate はトランザクションが直列に実行されるため通常の取得と同じ
func (r *ReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	if _, err := r.s.activeTx(tx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *ReservationRepository) List(ctx context.Context) ([]*reservation.Reservation, error) {
	return r.filter(func(*reservation.Reservation) bool { return true }), nil
}

func (r *ReservationRepository) ListByUserID(ctx context.Context, userID string) ([]*reservation.Reservation, error) {
	return r.filter(func(res *reservation.Reservation) bool { return res.UserID == userID }), nil
}

func (r *ReservationRepository) ListUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]*reservation.Reservation, error) {
	return r.filter(func(res *reservation.Reservation) bool {
		return !res.IsPaid && res.CreatedAt.Before(cutoff)
	}), nil
}

func (r *ReservationRepository) filter(keep func(*reservation.Reservation) bool) []*reservation.Reservation {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make([]*reservation.Reservation, 0)
	for _, res := range r.s.reservations {
		res := res
		if keep(&res) {
			result = append(result, &res)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (r *ReservationRepository) CountByTripID(ctx context.Context, tripID string) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, res := range r.s.reservations {
		if res.TripID == tripID {
			n++
		}
	}
	return n, nil
}

func (r *ReservationRepository) Update(ctx context.Context, tx transaction.Tx, res *reservation.Reservation) error {
	mtx, err := r.s.activeTx(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	before, ok := r.s.reservations[res.ID]
	if !ok {
		return reservation.ErrReservationNotFound
	}
	r.s.reservations[res.ID] = *res
	mtx.record(func() { r.s.reservations[before.ID] = before })
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	mtx, err := r.s.activeTx(tx)
	if err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	before, ok := r.s.reservations[id]
	if !ok {
		return reservation.ErrReservationNotFound
	}
	delete(r.s.reservations, id)
	mtx.record(func() { r.s.reservations[id] = before })
	return nil
}

var _ reservation.Repository = (*ReservationRepository)(nil)
