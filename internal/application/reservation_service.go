package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/apperr"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/pricing"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
	redisinfra "github.com/sanosuguru/go-train-ticket-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/metrics"
)

type ReservationService struct {
	txManager       transaction.Manager
	tripRepo        trip.Repository
	reservationRepo reservation.Repository
	cardRepo        card.Repository

	locker    TripLocker
	cache     TripCache
	publisher EventPublisher
	metrics   *metrics.Metrics
	clock     clock.Clock

	expireAfter          time.Duration
	releaseSeatsOnExpiry bool
}

type ReservationOption func(*ReservationService)

// WithTripLocker は列車単位の分散ロックを使う
func WithTripLocker(l TripLocker) ReservationOption {
	return func(s *ReservationService) { s.locker = l }
}

func WithTripCache(c TripCache) ReservationOption {
	return func(s *ReservationService) { s.cache = c }
}

func WithEventPublisher(p EventPublisher) ReservationOption {
	return func(s *ReservationService) { s.publisher = p }
}

func WithMetrics(m *metrics.Metrics) ReservationOption {
	return func(s *ReservationService) { s.metrics = m }
}

func WithClock(c clock.Clock) ReservationOption {
	return func(s *ReservationService) { s.clock = c }
}

// WithExpiry は未払い予約の有効期間と、期限切れ時に座席を戻すかを指定する
func WithExpiry(expireAfter time.Duration, releaseSeats bool) ReservationOption {
	return func(s *ReservationService) {
		if expireAfter > 0 {
			s.expireAfter = expireAfter
		}
		s.releaseSeatsOnExpiry = releaseSeats
	}
}

func NewReservationService(
	tm transaction.Manager,
	tr trip.Repository,
	rr reservation.Repository,
	cr card.Repository,
	opts ...ReservationOption,
) *ReservationService {
	s := &ReservationService{
		txManager:       tm,
		tripRepo:        tr,
		reservationRepo: rr,
		cardRepo:        cr,
		clock:           clock.NewReal(nil),
		expireAfter:     reservation.DefaultExpireAfter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type BookInput struct {
	TripID        string
	UserID        string
	TicketNumbers int
	HasChild      bool
}

type EditInput struct {
	TicketNumbers int
	HasChild      bool
}

// Book は空席を確保して未払いの予約を作成する
func (s *ReservationService) Book(ctx context.Context, input BookInput) (*reservation.Reservation, error) {
	if input.TicketNumbers <= 0 {
		s.metrics.RecordReservation(metrics.StatusInvalid)
		return nil, reservation.ErrInvalidTicketNumbers
	}

	unlock, err := s.lockTrip(ctx, input.TripID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	t, err := s.tripRepo.GetByID(ctx, input.TripID)
	if err != nil {
		return nil, fmt.Errorf("列車取得に失敗: %w", err)
	}
	c, err := s.cardOf(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	price := pricing.CalculatePrice(t, c, input.TicketNumbers, input.HasChild)
	res := reservation.NewReservation(t.ID, input.UserID, input.TicketNumbers, price, input.HasChild, now)
	if err := res.Validate(); err != nil {
		s.metrics.RecordReservation(metrics.StatusInvalid)
		return nil, err
	}

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.tripRepo.AdjustSeats(ctx, tx, t.ID, -input.TicketNumbers); err != nil {
		s.recordFailure(err)
		return nil, err
	}
	if err := s.reservationRepo.Create(ctx, tx, res); err != nil {
		s.metrics.RecordReservation(metrics.StatusError)
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		s.metrics.RecordReservation(metrics.StatusError)
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	s.afterSeatChange(ctx, t.ID, metrics.ReasonBook, -input.TicketNumbers)
	s.metrics.RecordReservation(metrics.StatusBooked)
	s.publish(ctx, reservation.EventBooked, res)
	logger.Info("予約を作成",
		zap.String("reservation_id", res.ID),
		zap.String("trip_id", t.ID),
		zap.Int("tickets", res.TicketNumbers),
		zap.Float64("price", res.SumPrice),
	)
	return res, nil
}

// Edit は保有中の座席を一旦戻した前提で枚数を変更し、金額を再計算する
// 座席の返却と確保は差分 1 回の調整で行う
func (s *ReservationService) Edit(ctx context.Context, id string, input EditInput) (*reservation.Reservation, error) {
	if input.TicketNumbers <= 0 {
		s.metrics.RecordReservation(metrics.StatusInvalid)
		return nil, reservation.ErrInvalidTicketNumbers
	}

	current, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	unlock, err := s.lockTrip(ctx, current.TripID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	tx, err := s.txManager.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback()

	res, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if res.IsPaid {
		return nil, reservation.ErrReservationAlreadyPaid
	}
	t, err := s.tripRepo.GetByID(ctx, res.TripID)
	if err != nil {
		return nil, fmt.Errorf("列車取得に失敗: %w", err)
	}
	// 料金は予約者本人のカードで計算する
	c, err := s.cardOf(ctx, res.UserID)
	if err != nil {
		return nil, err
	}

	delta := res.TicketNumbers - input.TicketNumbers
	price := pricing.CalculatePrice(t, c, input.TicketNumbers, input.HasChild)
	if err := res.Change(input.TicketNumbers, input.HasChild, price, s.clock.Now()); err != nil {
		s.metrics.RecordReservation(metrics.StatusInvalid)
		return nil, err
	}
	if delta != 0 {
		if _, err := s.tripRepo.AdjustSeats(ctx, tx, res.TripID, delta); err != nil {
			s.recordFailure(err)
			return nil, err
		}
	}
	if err := s.reservationRepo.Update(ctx, tx, res); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}

	if delta != 0 {
		s.afterSeatChange(ctx, res.TripID, metrics.ReasonEdit, delta)
	}
	s.metrics.RecordReservation(metrics.StatusEdited)
	s.publish(ctx, reservation.EventEdited, res)
	logger.Info("予約を変更",
		zap.String("reservation_id", res.ID),
		zap.String("trip_id", res.TripID),
		zap.Int("tickets", res.TicketNumbers),
		zap.Float64("price", res.SumPrice),
	)
	return res, nil
}

// Pay は予約を支払い済みにする。支払い済みでもエラーにしない
func (s *ReservationService) Pay(ctx context.Context, id string) (*reservation.Reservation, error) {
	var res *reservation.Reservation
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		if res, err = s.reservationRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		res.MarkPaid(s.clock.Now())
		return s.reservationRepo.Update(ctx, tx, res)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordReservation(metrics.StatusPaid)
	s.publish(ctx, reservation.EventPaid, res)
	logger.Info("予約を支払い済みに変更", zap.String("reservation_id", res.ID), zap.Float64("price", res.SumPrice))
	return res, nil
}

// Cancel は予約を削除し、座席を列車に戻す
func (s *ReservationService) Cancel(ctx context.Context, id string) error {
	current, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	unlock, err := s.lockTrip(ctx, current.TripID)
	if err != nil {
		return err
	}
	defer unlock()

	var res *reservation.Reservation
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		var err error
		if res, err = s.reservationRepo.GetByIDForUpdate(ctx, tx, id); err != nil {
			return err
		}
		if err := res.CheckCancelable(); err != nil {
			return err
		}
		if err := s.reservationRepo.Delete(ctx, tx, res.ID); err != nil {
			return err
		}
		_, err = s.tripRepo.AdjustSeats(ctx, tx, res.TripID, res.TicketNumbers)
		return err
	})
	if err != nil {
		return err
	}

	s.afterSeatChange(ctx, res.TripID, metrics.ReasonCancel, res.TicketNumbers)
	s.metrics.RecordReservation(metrics.StatusCancelled)
	s.publish(ctx, reservation.EventCancelled, res)
	logger.Info("予約をキャンセル",
		zap.String("reservation_id", res.ID),
		zap.String("trip_id", res.TripID),
		zap.Int("tickets", res.TicketNumbers),
	)
	return nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	return s.reservationRepo.GetByID(ctx, id)
}

// ListReservations は期限切れの未払い予約を掃除してから一覧を返す
// 管理者は全ユーザー分、それ以外は自分の予約のみ
func (s *ReservationService) ListReservations(ctx context.Context, caller Caller) ([]*reservation.Reservation, error) {
	if _, err := s.SweepExpired(ctx); err != nil {
		logger.Warn("期限切れ予約の削除に失敗", zap.Error(err))
	}
	if caller.IsAdmin {
		return s.reservationRepo.List(ctx)
	}
	return s.reservationRepo.ListByUserID(ctx, caller.UserID)
}

// TicketDetails は乗車券の発行に必要な予約と列車を返す。未払いなら ErrReservationNotPaid
func (s *ReservationService) TicketDetails(ctx context.Context, id string) (*reservation.Reservation, *trip.Trip, error) {
	res, err := s.reservationRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if !res.IsPaid {
		return nil, nil, reservation.ErrReservationNotPaid
	}
	t, err := s.tripRepo.GetByID(ctx, res.TripID)
	if err != nil {
		return nil, nil, fmt.Errorf("列車取得に失敗: %w", err)
	}
	return res, t, nil
}

// SweepExpired は有効期間を過ぎた未払い予約を削除し、削除件数を返す
// 個々の削除失敗はログに残して処理を続ける
func (s *ReservationService) SweepExpired(ctx context.Context) (int, error) {
	now := s.clock.Now()
	candidates, err := s.reservationRepo.ListUnpaidCreatedBefore(ctx, now.Add(-s.expireAfter))
	if err != nil {
		return 0, fmt.Errorf("期限切れ予約の取得に失敗: %w", err)
	}

	count := 0
	for _, c := range candidates {
		removed, err := s.expire(ctx, c.ID, now)
		if err != nil {
			logger.Error("期限切れ予約の削除に失敗", zap.String("reservation_id", c.ID), zap.Error(err))
			continue
		}
		if removed != nil {
			count++
			s.publish(ctx, reservation.EventExpired, removed)
		}
	}
	if count > 0 {
		s.metrics.RecordExpired(count)
		logger.Info("期限切れ予約を削除", zap.Int("count", count), zap.Bool("release_seats", s.releaseSeatsOnExpiry))
	}
	return count, nil
}

// expire は行ロックを取ってから期限切れを再確認する。対象外なら nil を返す
func (s *ReservationService) expire(ctx context.Context, id string, now time.Time) (*reservation.Reservation, error) {
	var removed *reservation.Reservation
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		res, err := s.reservationRepo.GetByIDForUpdate(ctx, tx, id)
		if errors.Is(err, reservation.ErrReservationNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !res.IsExpired(now, s.expireAfter) {
			return nil
		}
		if err := s.reservationRepo.Delete(ctx, tx, res.ID); err != nil {
			return err
		}
		if s.releaseSeatsOnExpiry {
			if _, err := s.tripRepo.AdjustSeats(ctx, tx, res.TripID, res.TicketNumbers); err != nil {
				return err
			}
		}
		removed = res
		return nil
	})
	if err != nil || removed == nil {
		return nil, err
	}
	if s.releaseSeatsOnExpiry {
		s.afterSeatChange(ctx, removed.TripID, metrics.ReasonExpired, removed.TicketNumbers)
	}
	return removed, nil
}

// lockTrip は列車単位のロックを取る。ロックが未設定なら何もしない
// 取得できない場合は ErrTripBusy を返す
func (s *ReservationService) lockTrip(ctx context.Context, tripID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.LockTrip(ctx, tripID)
	if err != nil {
		s.metrics.RecordReservation(metrics.StatusLockFailed)
		if errors.Is(err, redisinfra.ErrLockNotAcquired) {
			return nil, ErrTripBusy
		}
		return nil, fmt.Errorf("列車ロックの取得に失敗: %w", err)
	}
	return func() {
		// リクエストがキャンセルされていても解放は行う
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("列車ロックの解放に失敗", zap.String("trip_id", tripID), zap.Error(err))
		}
	}, nil
}

// cardOf はユーザーの鉄道カードを返す。未登録なら nil
func (s *ReservationService) cardOf(ctx context.Context, userID string) (*card.TrainCard, error) {
	c, err := s.cardRepo.GetByUserID(ctx, userID)
	if errors.Is(err, card.ErrCardNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("鉄道カード取得に失敗: %w", err)
	}
	return c, nil
}

func (s *ReservationService) recordFailure(err error) {
	if errors.Is(err, apperr.ErrInsufficientInventory) {
		s.metrics.RecordReservation(metrics.StatusInsufficient)
		return
	}
	s.metrics.RecordReservation(metrics.StatusError)
}

// afterSeatChange はコミット後に空席キャッシュを捨て、調整量を記録する
func (s *ReservationService) afterSeatChange(ctx context.Context, tripID, reason string, delta int) {
	invalidateSeats(ctx, s.cache, tripID)
	s.metrics.RecordSeatAdjustment(reason, delta)
}

// publish はイベントを送る。失敗しても予約は確定済みなのでログのみ
func (s *ReservationService) publish(ctx context.Context, t reservation.EventType, r *reservation.Reservation) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, reservation.NewEvent(t, r, s.clock.Now())); err != nil {
		logger.Warn("予約イベントの送信に失敗",
			zap.String("event", string(t)),
			zap.String("reservation_id", r.ID),
			zap.Error(err),
		)
	}
}
