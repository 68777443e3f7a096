package memory

import (
	"context"
	"sort"
	"time"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
)

type TripRepository struct{ s *Store }

func NewTripRepository(s *Store) *TripRepository {
	return &TripRepository{s: s}
}

func (r *TripRepository) Create(ctx context.Context, t *trip.Trip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if t.ID == "" {
		t.ID = newID()
	}
	r.s.trips[t.ID] = *t
	return nil
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.trips[id]
	if !ok {
		return nil, trip.ErrTripNotFound
	}
	return &t, nil
}

func (r *TripRepository) List(ctx context.Context) ([]*trip.Trip, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	trips := make([]*trip.Trip, 0, len(r.s.trips))
	for _, t := range r.s.trips {
		t := t
		trips = append(trips, &t)
	}
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].DepartureAt.Equal(trips[j].DepartureAt) {
			return trips[i].DepartureAt.Before(trips[j].DepartureAt)
		}
		return trips[i].ID < trips[j].ID
	})
	return trips, nil
}

func (r *TripRepository) Update(ctx context.Context, t *trip.Trip) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.trips[t.ID]
	if !ok {
		return trip.ErrTripNotFound
	}
	if current.Version != t.Version {
		return trip.ErrOptimisticLockConflict
	}
	t.Version++
	r.s.trips[t.ID] = *t
	return nil
}

// Delete は予約が残っている列車を削除しない
func (r *TripRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.trips[id]; !ok {
		return trip.ErrTripNotFound
	}
	for _, res := range r.s.reservations {
		if res.TripID == id {
			return trip.ErrTripHasReservations
		}
	}
	delete(r.s.trips, id)
	return nil
}

func (r *TripRepository) AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta int) (int, error) {
	mtx, err := r.s.activeTx(tx)
	if err != nil {
		return 0, err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.trips[id]
	if !ok {
		return 0, trip.ErrTripNotFound
	}
	before := t
	if err := t.AdjustSeats(delta, time.Now()); err != nil {
		return 0, err
	}
	r.s.trips[id] = t
	mtx.record(func() { r.s.trips[id] = before })
	return t.AvailableSeats, nil
}

var _ trip.Repository = (*TripRepository)(nil)
