package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
	redisinfra "github.com/sanosuguru/go-train-ticket-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
)

type TripService struct {
	tripRepo        trip.Repository
	reservationRepo reservation.Repository
	cache           TripCache
	clock           clock.Clock
	loc             *time.Location
}

// NewTripService は TripService を作成する。cache は nil でもよい
func NewTripService(tr trip.Repository, rr reservation.Repository, cache TripCache, clk clock.Clock, loc *time.Location) *TripService {
	if loc == nil {
		loc = time.Local
	}
	return &TripService{tripRepo: tr, reservationRepo: rr, cache: cache, clock: clk, loc: loc}
}

// TripInput は作成・更新時の入力。日時は YYYY-MM-DDTHH:MM 形式
type TripInput struct {
	DepartureCity  string
	ArrivalCity    string
	DepartureAt    string
	ArrivalAt      string
	TwoWay         bool
	AvailableSeats int
	BasePrice      float64
}

func (s *TripService) params(in TripInput) (trip.Params, error) {
	p := trip.Params{
		DepartureCity:  strings.TrimSpace(in.DepartureCity),
		ArrivalCity:    strings.TrimSpace(in.ArrivalCity),
		TwoWay:         in.TwoWay,
		AvailableSeats: in.AvailableSeats,
		BasePrice:      in.BasePrice,
	}
	// 空文字は Validate で必須エラーになるよう zero のまま残す
	if strings.TrimSpace(in.DepartureAt) != "" {
		v, err := trip.ParseDateTime(in.DepartureAt, s.loc)
		if err != nil {
			return p, err
		}
		p.DepartureAt = v
	}
	if strings.TrimSpace(in.ArrivalAt) != "" {
		v, err := trip.ParseDateTime(in.ArrivalAt, s.loc)
		if err != nil {
			return p, err
		}
		p.ArrivalAt = v
	}
	return p, nil
}

func (s *TripService) CreateTrip(ctx context.Context, in TripInput) (*trip.Trip, error) {
	p, err := s.params(in)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	t := trip.NewTrip(p, now)
	if err := t.ValidateForCreate(now); err != nil {
		return nil, err
	}
	if err := s.tripRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("列車の作成に失敗: %w", err)
	}
	logger.Info("列車を作成",
		zap.String("trip_id", t.ID),
		zap.String("departure_city", t.DepartureCity),
		zap.String("arrival_city", t.ArrivalCity),
		zap.Int("seats", t.AvailableSeats),
	)
	return t, nil
}

func (s *TripService) GetTrip(ctx context.Context, id string) (*trip.Trip, error) {
	return s.tripRepo.GetByID(ctx, id)
}

// ListTrips は管理者には全便、それ以外には出発前の便のみを返す
func (s *TripService) ListTrips(ctx context.Context, caller Caller) ([]*trip.Trip, error) {
	trips, err := s.tripRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("列車一覧の取得に失敗: %w", err)
	}
	if caller.IsAdmin {
		return trips, nil
	}
	now := s.clock.Now()
	upcoming := make([]*trip.Trip, 0, len(trips))
	for _, t := range trips {
		if t.IsUpcoming(now) {
			upcoming = append(upcoming, t)
		}
	}
	return upcoming, nil
}

func (s *TripService) FilterTrips(ctx context.Context, caller Caller, filterType, filterData string) ([]*trip.Trip, error) {
	trips, err := s.ListTrips(ctx, caller)
	if err != nil {
		return nil, err
	}
	return trip.Filter(trips, trip.FilterType(filterType), filterData)
}

// UpdateTrip は全項目を上書きする。出発日時が過去かどうかは再検証しない
func (s *TripService) UpdateTrip(ctx context.Context, id string, in TripInput) (*trip.Trip, error) {
	p, err := s.params(in)
	if err != nil {
		return nil, err
	}
	t, err := s.tripRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	t.Apply(p, s.clock.Now())
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.tripRepo.Update(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, t.ID)
	logger.Info("列車を更新", zap.String("trip_id", t.ID), zap.Int("seats", t.AvailableSeats))
	return t, nil
}

// DeleteTrip は予約が残っている列車の削除を拒否する
func (s *TripService) DeleteTrip(ctx context.Context, id string) error {
	if _, err := s.tripRepo.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.reservationRepo.CountByTripID(ctx, id)
	if err != nil {
		return fmt.Errorf("予約数の取得に失敗: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d件", trip.ErrTripHasReservations, count)
	}
	if err := s.tripRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	logger.Info("列車を削除", zap.String("trip_id", id))
	return nil
}

// AvailableSeats はキャッシュを優先して空席数を返す
func (s *TripService) AvailableSeats(ctx context.Context, id string) (int, error) {
	if s.cache != nil {
		seats, err := s.cache.GetAvailableSeats(ctx, id)
		if err == nil {
			logger.Debug("キャッシュヒット", zap.String("trip_id", id), zap.Int("seats", seats))
			return seats, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			logger.Warn("キャッシュ取得エラー", zap.Error(err))
		}
	}

	t, err := s.tripRepo.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		if err := s.cache.SetAvailableSeats(ctx, id, t.AvailableSeats); err != nil {
			logger.Warn("キャッシュ保存エラー", zap.Error(err))
		}
	}
	return t.AvailableSeats, nil
}

func (s *TripService) invalidate(ctx context.Context, tripID string) {
	invalidateSeats(ctx, s.cache, tripID)
}

func invalidateSeats(ctx context.Context, cache TripCache, tripID string) {
	if cache == nil {
		return
	}
	if err := cache.Invalidate(ctx, tripID); err != nil {
		logger.Warn("キャッシュ無効化エラー", zap.String("trip_id", tripID), zap.Error(err))
	}
}
