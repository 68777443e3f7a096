package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/apperr"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/transaction"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
	redisinfra "github.com/sanosuguru/go-train-ticket-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/clock"
)

// === Mock implementations ===

// MockTxManager implements transaction.Manager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) Begin(ctx context.Context) (transaction.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(transaction.Tx), args.Error(1)
}

// MockTx implements transaction.Tx
type MockTx struct {
	mock.Mock
}

func (m *MockTx) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTx) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// MockReservationRepository implements reservation.Repository
type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) Create(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) List(ctx context.Context) ([]*reservation.Reservation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListByUserID(ctx context.Context, userID string) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListUnpaidCreatedBefore(ctx context.Context, cutoff time.Time) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CountByTripID(ctx context.Context, tripID string) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationRepository) Update(ctx context.Context, tx transaction.Tx, r *reservation.Reservation) error {
	args := m.Called(ctx, tx, r)
	return args.Error(0)
}

func (m *MockReservationRepository) Delete(ctx context.Context, tx transaction.Tx, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

// MockTripRepository implements trip.Repository
type MockTripRepository struct {
	mock.Mock
}

func (m *MockTripRepository) Create(ctx context.Context, t *trip.Trip) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*trip.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trip.Trip), args.Error(1)
}

func (m *MockTripRepository) List(ctx context.Context) ([]*trip.Trip, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*trip.Trip), args.Error(1)
}

func (m *MockTripRepository) Update(ctx context.Context, t *trip.Trip) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockTripRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTripRepository) AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta int) (int, error) {
	args := m.Called(ctx, tx, id, delta)
	return args.Int(0), args.Error(1)
}

// MockCardRepository implements card.Repository
type MockCardRepository struct {
	mock.Mock
}

func (m *MockCardRepository) GetByUserID(ctx context.Context, userID string) (*card.TrainCard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card.TrainCard), args.Error(1)
}

func (m *MockCardRepository) Upsert(ctx context.Context, c *card.TrainCard) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCardRepository) DeleteByUserID(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockTripLocker implements TripLocker
type MockTripLocker struct {
	mock.Mock
	released int
}

func (m *MockTripLocker) LockTrip(ctx context.Context, tripID string) (func(context.Context) error, error) {
	args := m.Called(ctx, tripID)
	if err := args.Error(0); err != nil {
		return nil, err
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, nil
}

// MockTripCache implements TripCache
type MockTripCache struct {
	mock.Mock
}

func (m *MockTripCache) GetAvailableSeats(ctx context.Context, tripID string) (int, error) {
	args := m.Called(ctx, tripID)
	return args.Int(0), args.Error(1)
}

func (m *MockTripCache) SetAvailableSeats(ctx context.Context, tripID string, seats int) error {
	args := m.Called(ctx, tripID, seats)
	return args.Error(0)
}

func (m *MockTripCache) Invalidate(ctx context.Context, tripID string) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

// MockEventPublisher implements EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, ev reservation.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

// === Test helper ===
type testDeps struct {
	txManager *MockTxManager
	tx        *MockTx
	resRepo   *MockReservationRepository
	tripRepo  *MockTripRepository
	cardRepo  *MockCardRepository
	locker    *MockTripLocker
	cache     *MockTripCache
	publisher *MockEventPublisher
	clock     *clock.Fake
	service   *ReservationService
}

var testNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func newTestDeps(opts ...ReservationOption) *testDeps {
	d := &testDeps{
		txManager: new(MockTxManager),
		tx:        new(MockTx),
		resRepo:   new(MockReservationRepository),
		tripRepo:  new(MockTripRepository),
		cardRepo:  new(MockCardRepository),
		locker:    new(MockTripLocker),
		cache:     new(MockTripCache),
		publisher: new(MockEventPublisher),
		clock:     clock.NewFake(testNow),
	}
	base := []ReservationOption{
		WithTripLocker(d.locker),
		WithTripCache(d.cache),
		WithEventPublisher(d.publisher),
		WithClock(d.clock),
	}
	d.service = NewReservationService(d.txManager, d.tripRepo, d.resRepo, d.cardRepo, append(base, opts...)...)
	return d
}

// rushHourTrip は割引対象外の時間帯（08:00-08:30）、基本運賃 10 の便
func rushHourTrip() *trip.Trip {
	return &trip.Trip{
		ID:             "trip-1",
		DepartureCity:  "Tokyo",
		ArrivalCity:    "Yokohama",
		DepartureAt:    time.Date(2024, 3, 25, 8, 0, 0, 0, time.UTC),
		ArrivalAt:      time.Date(2024, 3, 25, 8, 30, 0, 0, time.UTC),
		AvailableSeats: 10,
		BasePrice:      10,
	}
}

func unpaidReservation() *reservation.Reservation {
	return &reservation.Reservation{
		ID:            "res-1",
		TripID:        "trip-1",
		UserID:        "user-1",
		TicketNumbers: 2,
		SumPrice:      20,
		CreatedAt:     testNow.Add(-time.Hour),
		UpdatedAt:     testNow.Add(-time.Hour),
	}
}

// === Tests ===

func TestReservationService_Book_Success(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
	deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)
	deps.cardRepo.On("GetByUserID", ctx, "user-1").Return(nil, card.ErrCardNotFound)
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)
	deps.tripRepo.On("AdjustSeats", ctx, deps.tx, "trip-1", -5).Return(5, nil)
	deps.resRepo.On("Create", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)
	deps.cache.On("Invalidate", ctx, "trip-1").Return(nil)
	deps.publisher.On("Publish", ctx, mock.MatchedBy(func(ev reservation.Event) bool {
		return ev.Type == reservation.EventBooked && ev.TicketNumbers == 5
	})).Return(nil)

	result, err := deps.service.Book(ctx, BookInput{TripID: "trip-1", UserID: "user-1", TicketNumbers: 5})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "trip-1", result.TripID)
	assert.Equal(t, "user-1", result.UserID)
	assert.InDelta(t, 50.0, result.SumPrice, 1e-9)
	assert.False(t, result.IsPaid)
	assert.Equal(t, testNow, result.CreatedAt)
	assert.Equal(t, 1, deps.locker.released)

	deps.txManager.AssertExpectations(t)
	deps.tx.AssertCalled(t, "Commit")
	deps.tripRepo.AssertExpectations(t)
	deps.resRepo.AssertExpectations(t)
	deps.cache.AssertExpectations(t)
	deps.publisher.AssertExpectations(t)
}

func TestReservationService_Book_UsesCardForPrice(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
	deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)
	deps.cardRepo.On("GetByUserID", ctx, "user-1").Return(&card.TrainCard{UserID: "user-1", Type: card.TypeFamily}, nil)
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)
	deps.tripRepo.On("AdjustSeats", ctx, deps.tx, "trip-1", -5).Return(5, nil)
	deps.resRepo.On("Create", ctx, deps.tx, mock.Anything).Return(nil)
	deps.cache.On("Invalidate", ctx, "trip-1").Return(nil)
	deps.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	result, err := deps.service.Book(ctx, BookInput{TripID: "trip-1", UserID: "user-1", TicketNumbers: 5, HasChild: true})

	require.NoError(t, err)
	assert.InDelta(t, 25.0, result.SumPrice, 1e-9)
	assert.True(t, result.HasChild)
}

func TestReservationService_Book_InvalidTicketNumbers(t *testing.T) {
	for _, n := range []int{0, -1} {
		deps := newTestDeps()

		result, err := deps.service.Book(context.Background(), BookInput{TripID: "trip-1", UserID: "user-1", TicketNumbers: n})

		require.Error(t, err)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, reservation.ErrInvalidTicketNumbers)
		assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		deps.locker.AssertNotCalled(t, "LockTrip", mock.Anything, mock.Anything)
		deps.txManager.AssertNotCalled(t, "Begin", mock.Anything)
	}
}

func TestReservationService_Book_InsufficientSeats(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
	deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)
	deps.cardRepo.On("GetByUserID", ctx, "user-1").Return(nil, card.ErrCardNotFound)
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tripRepo.On("AdjustSeats", ctx, deps.tx, "trip-1", -11).
		Return(0, trip.ErrInsufficientSeats)

	result, err := deps.service.Book(ctx, BookInput{TripID: "trip-1", UserID: "user-1", TicketNumbers: 11})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperr.ErrInsufficientInventory)
	deps.tx.AssertCalled(t, "Rollback")
	deps.tx.AssertNotCalled(t, "Commit")
	deps.resRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	assert.Equal(t, 1, deps.locker.released)
}

func TestReservationService_Book_LockFailed(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.locker.On("LockTrip", ctx, "trip-1").Return(redisinfra.ErrLockNotAcquired)

	result, err := deps.service.Book(ctx, BookInput{TripID: "trip-1", UserID: "user-1", TicketNumbers: 1})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrTripBusy)
	deps.tripRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestReservationService_Book_TripNotFound(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.locker.On("LockTrip", ctx, "missing").Return(nil)
	deps.tripRepo.On("GetByID", ctx, "missing").Return(nil, trip.ErrTripNotFound)

	_, err := deps.service.Book(ctx, BookInput{TripID: "missing", UserID: "user-1", TicketNumbers: 1})

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Equal(t, 1, deps.locker.released)
}

func TestReservationService_Book_PublishFailureIsIgnored(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
	deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)
	deps.cardRepo.On("GetByUserID", ctx, "user-1").Return(nil, card.ErrCardNotFound)
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)
	deps.tripRepo.On("AdjustSeats", ctx, deps.tx, "trip-1", -1).Return(9, nil)
	deps.resRepo.On("Create", ctx, deps.tx, mock.Anything).Return(nil)
	deps.cache.On("Invalidate", ctx, "trip-1").Return(errors.New("redis down"))
	deps.publisher.On("Publish", ctx, mock.Anything).Return(errors.New("broker down"))

	result, err := deps.service.Book(ctx, BookInput{TripID: "trip-1", UserID: "user-1", TicketNumbers: 1})

	require.NoError(t, err)
	assert.NotNil(t, result)
}

func TestReservationService_Book_TransactionErrors(t *testing.T) {
	t.Run("Begin失敗", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
		deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)
		deps.cardRepo.On("GetByUserID", ctx, "user-1").Return(nil, card.ErrCardNotFound)
		deps.txManager.On("Begin", ctx).Return(nil, errors.New("db down"))

		_, err := deps.service.Book(ctx, BookInput{TripID: "trip-1", UserID: "user-1", TicketNumbers: 1})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "トランザクション開始に失敗")
	})

	t.Run("コミット失敗", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
		deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)
		deps.cardRepo.On("GetByUserID", ctx, "user-1").Return(nil, card.ErrCardNotFound)
		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(errors.New("commit error"))
		deps.tripRepo.On("AdjustSeats", ctx, deps.tx, "trip-1", -1).Return(9, nil)
		deps.resRepo.On("Create", ctx, deps.tx, mock.Anything).Return(nil)

		_, err := deps.service.Book(ctx, BookInput{TripID: "trip-1", UserID: "user-1", TicketNumbers: 1})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "コミットに失敗")
		deps.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
	})
}

func TestReservationService_Edit_AdjustsByDifference(t *testing.T) {
	tests := []struct {
		name      string
		newCount  int
		wantDelta int
	}{
		{name: "枚数を増やす", newCount: 5, wantDelta: -3},
		{name: "枚数を減らす", newCount: 1, wantDelta: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps := newTestDeps()
			ctx := context.Background()
			current := unpaidReservation()

			deps.resRepo.On("GetByID", ctx, "res-1").Return(current, nil)
			deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
			deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
			deps.tx.On("Rollback").Return(nil)
			deps.tx.On("Commit").Return(nil)
			deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(unpaidReservation(), nil)
			deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)
			deps.cardRepo.On("GetByUserID", ctx, "user-1").Return(nil, card.ErrCardNotFound)
			deps.tripRepo.On("AdjustSeats", ctx, deps.tx, "trip-1", tt.wantDelta).Return(0, nil)
			deps.resRepo.On("Update", ctx, deps.tx, mock.AnythingOfType("*reservation.Reservation")).Return(nil)
			deps.cache.On("Invalidate", ctx, "trip-1").Return(nil)
			deps.publisher.On("Publish", ctx, mock.Anything).Return(nil)

			result, err := deps.service.Edit(ctx, "res-1", EditInput{TicketNumbers: tt.newCount})

			require.NoError(t, err)
			assert.Equal(t, tt.newCount, result.TicketNumbers)
			assert.InDelta(t, float64(tt.newCount)*10, result.SumPrice, 1e-9)
			deps.tripRepo.AssertNumberOfCalls(t, "AdjustSeats", 1)
			deps.tripRepo.AssertExpectations(t)
		})
	}
}

func TestReservationService_Edit_SameCountSkipsAdjustment(t *testing.T) {
	deps := newTestDeps()
	ctx := context.Background()

	deps.resRepo.On("GetByID", ctx, "res-1").Return(unpaidReservation(), nil)
	deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
	deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
	deps.tx.On("Rollback").Return(nil)
	deps.tx.On("Commit").Return(nil)
	deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(unpaidReservation(), nil)
	deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)
	deps.cardRepo.On("GetByUserID", ctx, "user-1").Return(&card.TrainCard{UserID: "user-1", Type: card.TypeFamily}, nil)
	deps.resRepo.On("Update", ctx, deps.tx, mock.Anything).Return(nil)
	deps.publisher.On("Publish", ctx, mock.Anything).Return(nil)

	result, err := deps.service.Edit(ctx, "res-1", EditInput{TicketNumbers: 2, HasChild: true})

	require.NoError(t, err)
	assert.InDelta(t, 10.0, result.SumPrice, 1e-9)
	deps.tripRepo.AssertNotCalled(t, "AdjustSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	deps.cache.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestReservationService_Edit_Errors(t *testing.T) {
	t.Run("支払い済みは変更不可", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		paid := unpaidReservation()
		paid.IsPaid = true

		deps.resRepo.On("GetByID", ctx, "res-1").Return(paid, nil)
		deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(paid, nil)

		_, err := deps.service.Edit(ctx, "res-1", EditInput{TicketNumbers: 1})

		assert.ErrorIs(t, err, reservation.ErrReservationAlreadyPaid)
		deps.tripRepo.AssertNotCalled(t, "AdjustSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("空席不足", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		deps.resRepo.On("GetByID", ctx, "res-1").Return(unpaidReservation(), nil)
		deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(unpaidReservation(), nil)
		deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)
		deps.cardRepo.On("GetByUserID", ctx, "user-1").Return(nil, card.ErrCardNotFound)
		deps.tripRepo.On("AdjustSeats", ctx, deps.tx, "trip-1", -11).Return(0, trip.ErrInsufficientSeats)

		_, err := deps.service.Edit(ctx, "res-1", EditInput{TicketNumbers: 13})

		assert.ErrorIs(t, err, apperr.ErrInsufficientInventory)
		deps.tx.AssertNotCalled(t, "Commit")
		deps.resRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("枚数0", func(t *testing.T) {
		deps := newTestDeps()

		_, err := deps.service.Edit(context.Background(), "res-1", EditInput{TicketNumbers: 0})

		assert.ErrorIs(t, err, reservation.ErrInvalidTicketNumbers)
		deps.resRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("予約が存在しない", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		deps.resRepo.On("GetByID", ctx, "missing").Return(nil, reservation.ErrReservationNotFound)

		_, err := deps.service.Edit(ctx, "missing", EditInput{TicketNumbers: 1})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})
}

func TestReservationService_Pay(t *testing.T) {
	for _, alreadyPaid := range []bool{false, true} {
		deps := newTestDeps()
		ctx := context.Background()
		res := unpaidReservation()
		res.IsPaid = alreadyPaid

		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(nil)
		deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(res, nil)
		deps.resRepo.On("Update", ctx, deps.tx, res).Return(nil)
		deps.publisher.On("Publish", ctx, mock.MatchedBy(func(ev reservation.Event) bool {
			return ev.Type == reservation.EventPaid && ev.IsPaid
		})).Return(nil)

		result, err := deps.service.Pay(ctx, "res-1")

		require.NoError(t, err)
		assert.True(t, result.IsPaid)
		deps.resRepo.AssertExpectations(t)
		deps.publisher.AssertExpectations(t)
	}
}

func TestReservationService_Cancel(t *testing.T) {
	t.Run("座席を戻して削除", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		deps.resRepo.On("GetByID", ctx, "res-1").Return(unpaidReservation(), nil)
		deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(nil)
		deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(unpaidReservation(), nil)
		deps.resRepo.On("Delete", ctx, deps.tx, "res-1").Return(nil)
		deps.tripRepo.On("AdjustSeats", ctx, deps.tx, "trip-1", 2).Return(12, nil)
		deps.cache.On("Invalidate", ctx, "trip-1").Return(nil)
		deps.publisher.On("Publish", ctx, mock.MatchedBy(func(ev reservation.Event) bool {
			return ev.Type == reservation.EventCancelled
		})).Return(nil)

		err := deps.service.Cancel(ctx, "res-1")

		require.NoError(t, err)
		deps.resRepo.AssertExpectations(t)
		deps.tripRepo.AssertExpectations(t)
		assert.Equal(t, 1, deps.locker.released)
	})

	t.Run("支払い済みはキャンセル不可", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		paid := unpaidReservation()
		paid.IsPaid = true

		deps.resRepo.On("GetByID", ctx, "res-1").Return(paid, nil)
		deps.locker.On("LockTrip", ctx, "trip-1").Return(nil)
		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(paid, nil)

		err := deps.service.Cancel(ctx, "res-1")

		assert.ErrorIs(t, err, reservation.ErrReservationAlreadyPaid)
		deps.resRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReservationService_SweepExpired(t *testing.T) {
	expired := unpaidReservation()
	expired.CreatedAt = testNow.Add(-8 * 24 * time.Hour)
	cutoff := testNow.Add(-reservation.DefaultExpireAfter)

	t.Run("座席は戻さない（デフォルト）", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()

		deps.resRepo.On("ListUnpaidCreatedBefore", ctx, cutoff).Return([]*reservation.Reservation{expired}, nil)
		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(nil)
		deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(expired, nil)
		deps.resRepo.On("Delete", ctx, deps.tx, "res-1").Return(nil)
		deps.publisher.On("Publish", ctx, mock.MatchedBy(func(ev reservation.Event) bool {
			return ev.Type == reservation.EventExpired
		})).Return(nil)

		count, err := deps.service.SweepExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		deps.tripRepo.AssertNotCalled(t, "AdjustSeats", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("設定により座席を戻す", func(t *testing.T) {
		deps := newTestDeps(WithExpiry(reservation.DefaultExpireAfter, true))
		ctx := context.Background()

		deps.resRepo.On("ListUnpaidCreatedBefore", ctx, cutoff).Return([]*reservation.Reservation{expired}, nil)
		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.tx.On("Commit").Return(nil)
		deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(expired, nil)
		deps.resRepo.On("Delete", ctx, deps.tx, "res-1").Return(nil)
		deps.tripRepo.On("AdjustSeats", ctx, deps.tx, "trip-1", 2).Return(12, nil)
		deps.cache.On("Invalidate", ctx, "trip-1").Return(nil)
		deps.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		count, err := deps.service.SweepExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
		deps.tripRepo.AssertExpectations(t)
	})

	t.Run("支払い済みになった予約はスキップ", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		paid := *expired
		paid.IsPaid = true

		deps.resRepo.On("ListUnpaidCreatedBefore", ctx, cutoff).Return([]*reservation.Reservation{expired}, nil)
		deps.txManager.On("Begin", ctx).Return(deps.tx, nil)
		deps.tx.On("Rollback").Return(nil)
		deps.resRepo.On("GetByIDForUpdate", ctx, deps.tx, "res-1").Return(&paid, nil)

		count, err := deps.service.SweepExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, 0, count)
		deps.resRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("一部の予約でエラー発生", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		other := *expired
		other.ID = "res-2"

		tx1 := new(MockTx)
		tx1.On("Rollback").Return(nil)
		tx2 := new(MockTx)
		tx2.On("Rollback").Return(nil)
		tx2.On("Commit").Return(nil)

		deps.resRepo.On("ListUnpaidCreatedBefore", ctx, cutoff).Return([]*reservation.Reservation{expired, &other}, nil)
		deps.txManager.On("Begin", ctx).Return(tx1, nil).Once()
		deps.txManager.On("Begin", ctx).Return(tx2, nil).Once()
		deps.resRepo.On("GetByIDForUpdate", ctx, tx1, "res-1").Return(nil, errors.New("db error"))
		deps.resRepo.On("GetByIDForUpdate", ctx, tx2, "res-2").Return(&other, nil)
		deps.resRepo.On("Delete", ctx, tx2, "res-2").Return(nil)
		deps.publisher.On("Publish", ctx, mock.Anything).Return(nil)

		count, err := deps.service.SweepExpired(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("一覧取得失敗", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		deps.resRepo.On("ListUnpaidCreatedBefore", ctx, cutoff).Return(nil, errors.New("db error"))

		count, err := deps.service.SweepExpired(ctx)

		require.Error(t, err)
		assert.Equal(t, 0, count)
	})
}

func TestReservationService_ListReservations(t *testing.T) {
	cutoff := testNow.Add(-reservation.DefaultExpireAfter)

	t.Run("一般ユーザーは自分の予約のみ", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		deps.resRepo.On("ListUnpaidCreatedBefore", ctx, cutoff).Return([]*reservation.Reservation{}, nil)
		deps.resRepo.On("ListByUserID", ctx, "user-1").Return([]*reservation.Reservation{unpaidReservation()}, nil)

		list, err := deps.service.ListReservations(ctx, Caller{UserID: "user-1"})

		require.NoError(t, err)
		assert.Len(t, list, 1)
		deps.resRepo.AssertNotCalled(t, "List", mock.Anything)
	})

	t.Run("管理者は全件", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		deps.resRepo.On("ListUnpaidCreatedBefore", ctx, cutoff).Return([]*reservation.Reservation{}, nil)
		deps.resRepo.On("List", ctx).Return([]*reservation.Reservation{unpaidReservation(), unpaidReservation()}, nil)

		list, err := deps.service.ListReservations(ctx, Caller{UserID: "admin", IsAdmin: true})

		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("掃除の失敗は一覧に影響しない", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		deps.resRepo.On("ListUnpaidCreatedBefore", ctx, cutoff).Return(nil, errors.New("db error"))
		deps.resRepo.On("ListByUserID", ctx, "user-1").Return([]*reservation.Reservation{}, nil)

		_, err := deps.service.ListReservations(ctx, Caller{UserID: "user-1"})

		require.NoError(t, err)
	})
}

func TestReservationService_TicketDetails(t *testing.T) {
	t.Run("未払いは発行不可", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		deps.resRepo.On("GetByID", ctx, "res-1").Return(unpaidReservation(), nil)

		_, _, err := deps.service.TicketDetails(ctx, "res-1")

		assert.ErrorIs(t, err, reservation.ErrReservationNotPaid)
	})

	t.Run("支払い済み", func(t *testing.T) {
		deps := newTestDeps()
		ctx := context.Background()
		paid := unpaidReservation()
		paid.IsPaid = true
		deps.resRepo.On("GetByID", ctx, "res-1").Return(paid, nil)
		deps.tripRepo.On("GetByID", ctx, "trip-1").Return(rushHourTrip(), nil)

		res, tr, err := deps.service.TicketDetails(ctx, "res-1")

		require.NoError(t, err)
		assert.Equal(t, "res-1", res.ID)
		assert.Equal(t, "trip-1", tr.ID)
	})
}
