package middleware

import (
	"crypto/subtle"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-train-ticket-reservation/internal/config"
	"github.com/sanosuguru/go-train-ticket-reservation/internal/pkg/logger"
)

const metricsRealm = "train-ticket-metrics"

// MetricsBasicAuth は /metrics を Basic 認証で保護する
// METRICS_USER と METRICS_PASSWORD のどちらかが空なら素通しする
func MetricsBasicAuth(cfg config.MetricsConfig) echo.MiddlewareFunc {
	if !cfg.IsEnabled() {
		logger.Warn("/metrics は認証なしで公開されます")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	user, pass := []byte(cfg.User), []byte(cfg.Password)
	return middleware.BasicAuthWithConfig(middleware.BasicAuthConfig{
		Realm: metricsRealm,
		Validator: func(username, password string, c echo.Context) (bool, error) {
			// 両方を必ず比較して応答時間を揃える
			userOK := subtle.ConstantTimeCompare([]byte(username), user) == 1
			passOK := subtle.ConstantTimeCompare([]byte(password), pass) == 1
			if !(userOK && passOK) {
				logger.Warn("メトリクス認証に失敗", zap.String("remote_ip", c.RealIP()))
				return false, nil
			}
			return true, nil
		},
	})
}
