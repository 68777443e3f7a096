package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/api"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/metrics"
)

// スクレイプ自体は計測しない
var unmeasuredPaths = map[string]struct{}{
	"/metrics": {},
}

// PrometheusMiddleware はHTTPメトリクスを収集するミドルウェア
// ラベルのパスはルート定義（/api/v1/trips/:id など）を使う
func PrometheusMiddleware(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()
			if _, skip := unmeasuredPaths[path]; skip {
				return next(c)
			}
			if path == "" {
				path = "unmatched"
			}

			start := time.Now()
			err := next(c)

			m.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(statusOf(c, err))).Inc()
			m.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// statusOf はエラーハンドラーが書き込む前のステータスを推定する
func statusOf(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return api.StatusCode(err)
}
