package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/api"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/trip"
)

type TripHandler struct {
	tripService TripServiceInterface
}

func NewTripHandler(tripService TripServiceInterface) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// TripRequest は作成・更新の共通リクエスト。日時の形式と値の検証はドメイン側で行う
type TripRequest struct {
	DepartureCity  string  `json:"departure_city" example:"Paris"`
	ArrivalCity    string  `json:"arrival_city" example:"Lyon"`
	DepartureAt    string  `json:"departure_at" example:"2025-03-25T08:00"`
	ArrivalAt      string  `json:"arrival_at" example:"2025-03-25T10:00"`
	TwoWay         bool    `json:"two_way" example:"false"`
	AvailableSeats int     `json:"available_seats" example:"120"`
	BasePrice      float64 `json:"base_price" example:"25.5"`
}

func (r TripRequest) toInput() application.TripInput {
	return application.TripInput{
		DepartureCity:  r.DepartureCity,
		ArrivalCity:    r.ArrivalCity,
		DepartureAt:    r.DepartureAt,
		ArrivalAt:      r.ArrivalAt,
		TwoWay:         r.TwoWay,
		AvailableSeats: r.AvailableSeats,
		BasePrice:      r.BasePrice,
	}
}

type FilterTripsRequest struct {
	FilterType string `json:"filter_type" example:"dep_city"`
	FilterData string `json:"filter_data" example:"Paris"`
}

type TripResponse struct {
	ID             string  `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	DepartureCity  string  `json:"departure_city" example:"Paris"`
	ArrivalCity    string  `json:"arrival_city" example:"Lyon"`
	DepartureAt    string  `json:"departure_at" example:"2025-03-25T08:00"`
	ArrivalAt      string  `json:"arrival_at" example:"2025-03-25T10:00"`
	TwoWay         bool    `json:"two_way"`
	AvailableSeats int     `json:"available_seats" example:"120"`
	BasePrice      float64 `json:"base_price" example:"25.5"`
	CreatedAt      string  `json:"created_at" example:"2025-03-01T10:00:00+09:00"`
	UpdatedAt      string  `json:"updated_at" example:"2025-03-01T10:00:00+09:00"`
}

type SeatsResponse struct {
	TripID         string `json:"trip_id"`
	AvailableSeats int    `json:"available_seats"`
}

func toTripResponse(t *trip.Trip) *TripResponse {
	return &TripResponse{
		ID:             t.ID,
		DepartureCity:  t.DepartureCity,
		ArrivalCity:    t.ArrivalCity,
		DepartureAt:    t.DepartureAt.Format(trip.DateTimeLayout),
		ArrivalAt:      t.ArrivalAt.Format(trip.DateTimeLayout),
		TwoWay:         t.TwoWay,
		AvailableSeats: t.AvailableSeats,
		BasePrice:      t.BasePrice,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      t.UpdatedAt.Format(time.RFC3339),
	}
}

func toTripResponses(trips []*trip.Trip) []*TripResponse {
	resp := make([]*TripResponse, len(trips))
	for i, t := range trips {
		resp[i] = toTripResponse(t)
	}
	return resp
}

// Create godoc
// @Summary 運行便を登録
// @Description 新しい運行便を登録します（管理者のみ）
// @Tags trips
// @Accept json
// @Produce json
// @Param request body TripRequest true "運行便情報"
// @Success 201 {object} TripResponse
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /trips [post]
func (h *TripHandler) Create(c echo.Context) error {
	var req TripRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	t, err := h.tripService.CreateTrip(c.Request().Context(), req.toInput())
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusCreated, toTripResponse(t))
}

// List godoc
// @Summary 運行便一覧を取得
// @Description 一般ユーザーには出発前の便のみ返します
// @Tags trips
// @Produce json
// @Success 200 {array} TripResponse
// @Router /trips [get]
func (h *TripHandler) List(c echo.Context) error {
	trips, err := h.tripService.ListTrips(c.Request().Context(), middleware.CallerFrom(c))
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTripResponses(trips))
}

// Filter godoc
// @Summary 運行便を絞り込む
// @Tags trips
// @Accept json
// @Produce json
// @Param request body FilterTripsRequest true "絞り込み条件"
// @Success 200 {array} TripResponse
// @Failure 400 {object} map[string]string
// @Router /trips/filter [post]
func (h *TripHandler) Filter(c echo.Context) error {
	var req FilterTripsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	trips, err := h.tripService.FilterTrips(c.Request().Context(), middleware.CallerFrom(c), req.FilterType, req.FilterData)
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTripResponses(trips))
}

// GetByID godoc
// @Summary 運行便を取得
// @Tags trips
// @Produce json
// @Param id path string true "運行便ID"
// @Success 200 {object} TripResponse
// @Failure 404 {object} map[string]string
// @Router /trips/{id} [get]
func (h *TripHandler) GetByID(c echo.Context) error {
	t, err := h.tripService.GetTrip(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTripResponse(t))
}

// Update godoc
// @Summary 運行便を更新
// @Description 全項目を置き換えます（管理者のみ）
// @Tags trips
// @Accept json
// @Produce json
// @Param id path string true "運行便ID"
// @Param request body TripRequest true "運行便情報"
// @Success 200 {object} TripResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /trips/{id} [put]
func (h *TripHandler) Update(c echo.Context) error {
	var req TripRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}

	t, err := h.tripService.UpdateTrip(c.Request().Context(), c.Param("id"), req.toInput())
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toTripResponse(t))
}

// Delete godoc
// @Summary 運行便を削除
// @Description 予約が残っている便は削除できません（管理者のみ）
// @Tags trips
// @Param id path string true "運行便ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /trips/{id} [delete]
func (h *TripHandler) Delete(c echo.Context) error {
	if err := h.tripService.DeleteTrip(c.Request().Context(), c.Param("id")); err != nil {
		return api.NewHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Seats godoc
// @Summary 空席数を取得
// @Tags trips
// @Produce json
// @Param id path string true "運行便ID"
// @Success 200 {object} SeatsResponse
// @Failure 404 {object} map[string]string
// @Router /trips/{id}/seats [get]
func (h *TripHandler) Seats(c echo.Context) error {
	id := c.Param("id")
	n, err := h.tripService.AvailableSeats(c.Request().Context(), id)
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, SeatsResponse{TripID: id, AvailableSeats: n})
}
