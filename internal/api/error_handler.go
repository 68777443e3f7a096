package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/domain/apperr"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// StatusCode はエラー種別に対応する HTTP ステータスを返す
func StatusCode(err error) int {
	switch apperr.Kind(err) {
	case apperr.ErrInvalidInput:
		return http.StatusBadRequest
	case apperr.ErrInsufficientInventory:
		return http.StatusConflict
	case apperr.ErrNotFound:
		return http.StatusNotFound
	case apperr.ErrUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// NewHTTPError はドメインエラーを HTTPError に変換する。5xx では内部の詳細を返さない
func NewHTTPError(err error) *echo.HTTPError {
	code := StatusCode(err)
	if code >= http.StatusInternalServerError {
		return echo.NewHTTPError(code, "内部サーバーエラー").SetInternal(err)
	}
	return echo.NewHTTPError(code, err.Error()).SetInternal(err)
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = NewHTTPError(err)
	}

	code := he.Code
	message, ok := he.Message.(string)
	if !ok {
		message = http.StatusText(code)
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
