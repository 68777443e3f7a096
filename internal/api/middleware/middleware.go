package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Options は共通ミドルウェアの設定
type Options struct {
	// 許可するオリジン。空なら全て許可
	AllowOrigins []string
	// リクエストボディの上限（例: "1M"）。空なら制限しない
	BodyLimit string
}

// SetupMiddleware は共通ミドルウェアを設定する
// 順序: リクエストID → ログ → リカバリー → CORS → ボディ制限
func SetupMiddleware(e *echo.Echo, opts Options) {
	e.Use(RequestIDMiddleware())
	e.Use(RequestLogger())
	e.Use(middleware.Recover())

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{echo.GET, echo.HEAD, echo.PUT, echo.POST, echo.DELETE},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		// 乗車券PDFのファイル名をブラウザから読めるようにする
		ExposeHeaders: []string{echo.HeaderContentDisposition, echo.HeaderXRequestID},
	}))

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}
}
