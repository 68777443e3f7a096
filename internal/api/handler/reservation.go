package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/api"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/reservation"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/infrastructure/ticketpdf"
)

type ReservationHandler struct {
	service ReservationServiceInterface
	users   UserServiceInterface
}

func NewReservationHandler(s ReservationServiceInterface, users UserServiceInterface) *ReservationHandler {
	return &ReservationHandler{service: s, users: users}
}

type BookRequest struct {
	TicketNumbers int  `json:"ticket_numbers" example:"2"`
	HasChild      bool `json:"has_child" example:"false"`
}

type ReservationResponse struct {
	ID            string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TripID        string  `json:"trip_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	UserID        string  `json:"user_id" example:"550e8400-e29b-41d4-a716-446655440000"`
	TicketNumbers int     `json:"ticket_numbers" example:"2"`
	SumPrice      float64 `json:"sum_price" example:"36"`
	HasChild      bool    `json:"has_child"`
	IsPaid        bool    `json:"is_paid"`
	CreatedAt     string  `json:"created_at" example:"2025-03-01T10:00:00+09:00"`
	UpdatedAt     string  `json:"updated_at" example:"2025-03-01T10:00:00+09:00"`
}

func toReservationResponse(r *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID: r.ID, TripID: r.TripID, UserID: r.UserID,
		TicketNumbers: r.TicketNumbers, SumPrice: r.SumPrice,
		HasChild: r.HasChild, IsPaid: r.IsPaid,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
		UpdatedAt: r.UpdatedAt.Format(time.RFC3339),
	}
}

// authorize は予約を取得し、呼び出し元が操作できるかを確認する
func (h *ReservationHandler) authorize(c echo.Context, id string) (*reservation.Reservation, error) {
	r, err := h.service.GetReservation(c.Request().Context(), id)
	if err != nil {
		return nil, api.NewHTTPError(err)
	}
	if !middleware.CallerFrom(c).CanAccess(r.UserID) {
		return nil, api.NewHTTPError(application.ErrForbidden)
	}
	return r, nil
}

// Book godoc
// @Summary 予約を作成
// @Description 指定した運行便の座席を確保します。鉄道カードの割引が適用されます
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path string true "運行便ID"
// @Param request body BookRequest true "予約情報"
// @Success 201 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "空席不足"
// @Router /trips/{id}/reservations [post]
func (h *ReservationHandler) Book(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	r, err := h.service.Book(c.Request().Context(), application.BookInput{
		TripID:        c.Param("id"),
		UserID:        middleware.CallerFrom(c).UserID,
		TicketNumbers: req.TicketNumbers,
		HasChild:      req.HasChild,
	})
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toReservationResponse(r))
}

// List godoc
// @Summary 予約一覧を取得
// @Description 管理者は全件、一般ユーザーは自分の予約のみ返します
// @Tags reservations
// @Produce json
// @Success 200 {array} ReservationResponse
// @Router /reservations [get]
func (h *ReservationHandler) List(c echo.Context) error {
	reservations, err := h.service.ListReservations(c.Request().Context(), middleware.CallerFrom(c))
	if err != nil {
		return api.NewHTTPError(err)
	}
	resp := make([]ReservationResponse, len(reservations))
	for i, r := range reservations {
		resp[i] = toReservationResponse(r)
	}
	return c.JSON(http.StatusOK, resp)
}

// GetByID godoc
// @Summary 予約を取得
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetByID(c echo.Context) error {
	r, err := h.authorize(c, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Edit godoc
// @Summary 予約を変更
// @Description 枚数と子供連れの有無を変更し、差分の座席を返却または確保します
// @Tags reservations
// @Accept json
// @Produce json
// @Param id path string true "予約ID"
// @Param request body BookRequest true "変更内容"
// @Success 200 {object} ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "空席不足"
// @Router /reservations/{id} [put]
func (h *ReservationHandler) Edit(c echo.Context) error {
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	id := c.Param("id")
	if _, err := h.authorize(c, id); err != nil {
		return err
	}

	r, err := h.service.Edit(c.Request().Context(), id, application.EditInput{
		TicketNumbers: req.TicketNumbers,
		HasChild:      req.HasChild,
	})
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Pay godoc
// @Summary 予約を支払い済みにする
// @Tags reservations
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} ReservationResponse
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{id}/pay [post]
func (h *ReservationHandler) Pay(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.authorize(c, id); err != nil {
		return err
	}

	r, err := h.service.Pay(c.Request().Context(), id)
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toReservationResponse(r))
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Description 未払いの予約を削除し、座席を返却します
// @Tags reservations
// @Param id path string true "予約ID"
// @Success 204
// @Failure 400 {object} map[string]string "支払い済み"
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [delete]
func (h *ReservationHandler) Cancel(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.authorize(c, id); err != nil {
		return err
	}

	if err := h.service.Cancel(c.Request().Context(), id); err != nil {
		return api.NewHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Ticket godoc
// @Summary 乗車券PDFを取得
// @Description 支払い済みの予約のみ発行できます
// @Tags reservations
// @Produce application/pdf
// @Param id path string true "予約ID"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]string "未払い"
// @Failure 404 {object} map[string]string
// @Router /reservations/{id}/ticket [get]
func (h *ReservationHandler) Ticket(c echo.Context) error {
	id := c.Param("id")
	if _, err := h.authorize(c, id); err != nil {
		return err
	}

	ctx := c.Request().Context()
	r, t, err := h.service.TicketDetails(ctx, id)
	if err != nil {
		return api.NewHTTPError(err)
	}
	passenger, err := h.users.GetUser(ctx, r.UserID)
	if err != nil {
		return api.NewHTTPError(err)
	}

	pdf, err := ticketpdf.RenderBytes(ticketpdf.Ticket{Reservation: r, Trip: t, Passenger: passenger})
	if err != nil {
		return api.NewHTTPError(fmt.Errorf("乗車券の生成に失敗: %w", err))
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="ticket-%s.pdf"`, r.ID))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
