package loggingmw

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mccullochjewellers/storefront/internal/logging"
	authmw "github.com/mccullochjewellers/storefront/internal/middleware/auth"
)

// RequestLogger writes one line per completed request and plants a
// request-scoped logger in the context for handlers to pick up via
// logging.FromContext.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"remote_ip", c.RealIP(),
			)
			if rid := req.Header.Get(echo.HeaderXRequestID); rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}

			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}
			status := c.Response().Status

			attrs := []any{
				"status", status,
				"duration_ms", time.Since(start).Milliseconds(),
				"bytes", c.Response().Size,
			}
			if q := req.URL.RawQuery; q != "" {
				attrs = append(attrs, "query", q)
			}
			// Set by the auth middleware on protected routes.
			if userID, ok := c.Get(authmw.ContextUserID).(uint); ok {
				attrs = append(attrs, "user_id", userID)
			}
			if ua := req.UserAgent(); ua != "" {
				attrs = append(attrs, "user_agent", ua)
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			}

			switch {
			case err != nil || status >= 500:
				l.Error("request completed", attrs...)
			case status >= 400:
				l.Warn("request completed", attrs...)
			default:
				l.Info("request completed", attrs...)
			}
			return nil
		}
	}
}
