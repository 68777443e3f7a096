package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/application"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/auth"
)

const (
	ContextKeyUserID  = "user_id"
	ContextKeyIsAdmin = "is_admin"
)

// TokenParser はアクセストークンを検証する
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// JWTAuth は Authorization: Bearer のトークンを検証し、呼び出し元を echo.Context に設定する
func JWTAuth(parser TokenParser) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(raw) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
			}

			claims, err := parser.Parse(strings.TrimSpace(raw))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "アクセストークンが不正です").SetInternal(err)
			}

			c.Set(ContextKeyUserID, claims.Subject)
			c.Set(ContextKeyIsAdmin, claims.Admin)
			return next(c)
		}
	}
}

// RequireAdmin は管理者以外のリクエストを 403 で拒否する。JWTAuth の後に置く
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, ok := callerFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "認証が必要です")
			}
			if !caller.IsAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "管理者権限が必要です")
			}
			return next(c)
		}
	}
}

// CallerFrom は JWTAuth が設定した呼び出し元を返す
func CallerFrom(c echo.Context) application.Caller {
	caller, _ := callerFrom(c)
	return caller
}

func callerFrom(c echo.Context) (application.Caller, bool) {
	userID, ok := c.Get(ContextKeyUserID).(string)
	if !ok || userID == "" {
		return application.Caller{}, false
	}
	isAdmin, _ := c.Get(ContextKeyIsAdmin).(bool)
	return application.Caller{UserID: userID, IsAdmin: isAdmin}, true
}
