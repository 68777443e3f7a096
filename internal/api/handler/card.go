package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/api"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/card"
)

type CardHandler struct {
	cardService CardServiceInterface
}

func NewCardHandler(cardService CardServiceInterface) *CardHandler {
	return &CardHandler{cardService: cardService}
}

type RegisterCardRequest struct {
	CardType string `json:"card_type" validate:"required,card_type" example:"family"`
}

type CardResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	CardType  string `json:"card_type" example:"family"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toCardResponse(tc *card.TrainCard) CardResponse {
	return CardResponse{
		ID:        tc.ID,
		UserID:    tc.UserID,
		CardType:  string(tc.Type),
		CreatedAt: tc.CreatedAt.Format(time.RFC3339),
		UpdatedAt: tc.UpdatedAt.Format(time.RFC3339),
	}
}

// Get godoc
// @Summary 自分の鉄道カードを取得
// @Tags cards
// @Produce json
// @Success 200 {object} CardResponse
// @Failure 404 {object} map[string]string
// @Router /cards [get]
func (h *CardHandler) Get(c echo.Context) error {
	tc, err := h.cardService.GetCard(c.Request().Context(), middleware.CallerFrom(c).UserID)
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toCardResponse(tc))
}

// Register godoc
// @Summary 鉄道カードを登録
// @Description 登録済みの場合は種別を変更します
// @Tags cards
// @Accept json
// @Produce json
// @Param request body RegisterCardRequest true "カード種別（aged / family）"
// @Success 200 {object} CardResponse
// @Failure 400 {object} map[string]string
// @Router /cards [post]
func (h *CardHandler) Register(c echo.Context) error {
	var req RegisterCardRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	tc, err := h.cardService.RegisterCard(c.Request().Context(), middleware.CallerFrom(c).UserID, req.CardType)
	if err != nil {
		return api.NewHTTPError(err)
	}
	return c.JSON(http.StatusOK, toCardResponse(tc))
}

// Remove godoc
// @Summary 鉄道カードを削除
// @Tags cards
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /cards [delete]
func (h *CardHandler) Remove(c echo.Context) error {
	if err := h.cardService.RemoveCard(c.Request().Context(), middleware.CallerFrom(c).UserID); err != nil {
		return api.NewHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
