// Package router は HTTP ルーティングを組み立てる
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/api"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/api/handler"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/api/middleware"
)

// Handlers は /api/v1 配下に登録するハンドラー群
type Handlers struct {
	Trip        *handler.TripHandler
	Reservation *handler.ReservationHandler
	Card        *handler.CardHandler
	User        *handler.UserHandler
	Health      *handler.HealthHandler
}

// New は共通ミドルウェアとルートを設定した Echo を返す
func New(h Handlers, tokens middleware.TokenParser, opts middleware.Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler

	middleware.SetupMiddleware(e, opts)
	Register(e, h, tokens)
	return e
}

// Register はルートを登録する
func Register(e *echo.Echo, h Handlers, tokens middleware.TokenParser) {
	e.GET("/health", h.Health.Check)

	v1 := e.Group("/api/v1")

	// 認証不要
	v1.POST("/users/signup", h.User.SignUp)
	v1.POST("/users/login", h.User.Login)

	authed := v1.Group("", middleware.JWTAuth(tokens))
	admin := authed.Group("", middleware.RequireAdmin())

	admin.GET("/users", h.User.List)
	admin.PUT("/users/:id", h.User.Update)

	authed.GET("/trips", h.Trip.List)
	authed.POST("/trips/filter", h.Trip.Filter)
	authed.GET("/trips/:id", h.Trip.GetByID)
	authed.GET("/trips/:id/seats", h.Trip.Seats)
	admin.POST("/trips", h.Trip.Create)
	admin.PUT("/trips/:id", h.Trip.Update)
	admin.DELETE("/trips/:id", h.Trip.Delete)

	authed.POST("/trips/:id/reservations", h.Reservation.Book)
	authed.GET("/reservations", h.Reservation.List)
	authed.GET("/reservations/:id", h.Reservation.GetByID)
	authed.PUT("/reservations/:id", h.Reservation.Edit)
	authed.POST("/reservations/:id/pay", h.Reservation.Pay)
	authed.DELETE("/reservations/:id", h.Reservation.Cancel)
	authed.GET("/reservations/:id/ticket", h.Reservation.Ticket)

	authed.GET("/cards", h.Card.Get)
	authed.POST("/cards", h.Card.Register)
	authed.DELETE("/cards", h.Card.Remove)
}
