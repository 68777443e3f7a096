package handler

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/api"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/user"
)

// newTestEcho はルーターと同じバリデーターとエラーハンドラーを持つ Echo を返す
func newTestEcho() *echo.Echo {
	e := echo.New()
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	return e
}

// asCaller は JWTAuth を通過した状態を再現する
func asCaller(c echo.Context, userID string, admin bool) {
	c.Set(middleware.ContextKeyUserID, userID)
	c.Set(middleware.ContextKeyIsAdmin, admin)
}

// MockTripService はTripServiceInterfaceのモック
type MockTripService struct {
	mock.Mock
}

func (m *MockTripService) CreateTrip(ctx context.Context, in application.TripInput) (*trip.Trip, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trip.Trip), args.Error(1)
}

func (m *MockTripService) GetTrip(ctx context.Context, id string) (*trip.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trip.Trip), args.Error(1)
}

func (m *MockTripService) ListTrips(ctx context.Context, caller application.Caller) ([]*trip.Trip, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*trip.Trip), args.Error(1)
}

func (m *MockTripService) FilterTrips(ctx context.Context, caller application.Caller, filterType, filterData string) ([]*trip.Trip, error) {
	args := m.Called(ctx, caller, filterType, filterData)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*trip.Trip), args.Error(1)
}

func (m *MockTripService) UpdateTrip(ctx context.Context, id string, in application.TripInput) (*trip.Trip, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trip.Trip), args.Error(1)
}

func (m *MockTripService) DeleteTrip(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTripService) AvailableSeats(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

// MockReservationService はReservationServiceInterfaceのモック
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) Book(ctx context.Context, input application.BookInput) (*reservation.Reservation, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) Edit(ctx context.Context, id string, input application.EditInput) (*reservation.Reservation, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) Pay(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) Cancel(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockReservationService) GetReservation(ctx context.Context, id string) (*reservation.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) ListReservations(ctx context.Context, caller application.Caller) ([]*reservation.Reservation, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*reservation.Reservation), args.Error(1)
}

func (m *MockReservationService) TicketDetails(ctx context.Context, id string) (*reservation.Reservation, *trip.Trip, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*reservation.Reservation), args.Get(1).(*trip.Trip), args.Error(2)
}

// MockCardService はCardServiceInterfaceのモック
type MockCardService struct {
	mock.Mock
}

func (m *MockCardService) GetCard(ctx context.Context, userID string) (*card.TrainCard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card.TrainCard), args.Error(1)
}

func (m *MockCardService) RegisterCard(ctx context.Context, userID, cardType string) (*card.TrainCard, error) {
	args := m.Called(ctx, userID, cardType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*card.TrainCard), args.Error(1)
}

func (m *MockCardService) RemoveCard(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// MockUserService はUserServiceInterfaceのモック
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) SignUp(ctx context.Context, input application.SignUpInput) (*user.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, username, password string) (*application.LoginResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.LoginResult), args.Error(1)
}

func (m *MockUserService) GetUser(ctx context.Context, id string) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context) ([]*user.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*user.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id string, input application.UpdateUserInput) (*user.User, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}
