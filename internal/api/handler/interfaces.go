package handler

import (
	"context"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/user"
)

// TripServiceInterface は運行便サービスのインターフェース
type TripServiceInterface interface {
	CreateTrip(ctx context.Context, in application.TripInput) (*trip.Trip, error)
	GetTrip(ctx context.Context, id string) (*trip.Trip, error)
	ListTrips(ctx context.Context, caller application.Caller) ([]*trip.Trip, error)
	FilterTrips(ctx context.Context, caller application.Caller, filterType, filterData string) ([]*trip.Trip, error)
	UpdateTrip(ctx context.Context, id string, in application.TripInput) (*trip.Trip, error)
	DeleteTrip(ctx context.Context, id string) error
	AvailableSeats(ctx context.Context, id string) (int, error)
}

// ReservationServiceInterface は予約サービスのインターフェース
type ReservationServiceInterface interface {
	Book(ctx context.Context, input application.BookInput) (*reservation.Reservation, error)
	Edit(ctx context.Context, id string, input application.EditInput) (*reservation.Reservation, error)
	Pay(ctx context.Context, id string) (*reservation.Reservation, error)
	Cancel(ctx context.Context, id string) error
	GetReservation(ctx context.Context, id string) (*reservation.Reservation, error)
	ListReservations(ctx context.Context, caller application.Caller) ([]*reservation.Reservation, error)
	TicketDetails(ctx context.Context, id string) (*reservation.Reservation, *trip.Trip, error)
}

// CardServiceInterface は鉄道カードサービスのインターフェース
type CardServiceInterface interface {
	GetCard(ctx context.Context, userID string) (*card.TrainCard, error)
	RegisterCard(ctx context.Context, userID, cardType string) (*card.TrainCard, error)
	RemoveCard(ctx context.Context, userID string) error
}

// UserServiceInterface はユーザーサービスのインターフェース
type UserServiceInterface interface {
	SignUp(ctx context.Context, input application.SignUpInput) (*user.User, error)
	Login(ctx context.Context, username, password string) (*application.LoginResult, error)
	GetUser(ctx context.Context, id string) (*user.User, error)
	ListUsers(ctx context.Context) ([]*user.User, error)
	UpdateUser(ctx context.Context, id string, input application.UpdateUserInput) (*user.User, error)
}
