package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
)

// 正常時は Debug に落とすパス
var quietPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// RequestLogger はアクセスログを出力する
// エラーはここでエラーハンドラーに渡し、確定したステータスで記録する
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req, res := c.Request(), c.Response()
			fields := []zap.Field{
				zap.String("request_id", res.Header().Get(echo.HeaderXRequestID)),
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.String("route", c.Path()),
				zap.Int("status", res.Status),
				zap.Int64("size", res.Size),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote_ip", c.RealIP()),
			}
			// :id は運行便・予約・ユーザーのいずれか
			if id := c.Param("id"); id != "" {
				fields = append(fields, zap.String("resource_id", id))
			}
			if caller, ok := callerFrom(c); ok {
				fields = append(fields, zap.String("user_id", caller.UserID), zap.Bool("admin", caller.IsAdmin))
			}
			if err != nil {
				fields = append(fields, zap.Error(err))
			}

			logger.Get().Log(accessLevel(c.Path(), res.Status), "request", fields...)
			return nil
		}
	}
}

func accessLevel(route string, status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	}
	if _, quiet := quietPaths[route]; quiet {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// RequestIDMiddleware は X-Request-ID を引き継ぐか UUID で採番する
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.NewString()
				c.Request().Header.Set(echo.HeaderXRequestID, id)
			}
			c.Response().Header().Set(echo.HeaderXRequestID, id)
			return next(c)
		}
	}
}
