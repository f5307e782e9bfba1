package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

// Common is the middleware chain every route runs behind. CORS is only added
// when allowedOrigins is set; credentials are allowed so auth cookies travel.
func Common(logger *slog.Logger, allowedOrigins []string, csrfHeader string) []echo.MiddlewareFunc {
	mws := []echo.MiddlewareFunc{
		echomw.Recover(),
		echomw.RequestID(),
		loggingmw.RequestLogger(logger),
		echomw.Secure(),
		echomw.BodyLimit("2M"),
	}
	if len(allowedOrigins) > 0 {
		mws = append(mws, echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins:     allowedOrigins,
			AllowCredentials: true,
			AllowHeaders:     []string{echo.HeaderContentType, csrfHeader},
		}))
	}
	return mws
}
