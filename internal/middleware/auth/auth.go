// Package auth validates the bearer access token on protected routes and
// attaches the caller's identity to the request context. Validation is
// signature + expiry only: no database hit per request, so an access token
// issued before a deactivation rides out its remaining lifetime.
package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/mccullochjewellers/storefront/internal/models"
	"github.com/mccullochjewellers/storefront/internal/tokens"
)

const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

func RequireAuth(jwtSecret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			claims, err := tokens.AccessClaimsFromToken(raw, jwtSecret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}
			userID, err := claims.UserID()
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(ContextUserID, userID)
			c.Set(ContextEmail, claims.Email)
			return next(c)
		}
	}
}

// AdminOnly must run after RequireAuth. The role lives on the user row, not
// in the token, so a demotion takes effect on the next admin request.
func AdminOnly(db *gorm.DB) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, ok := c.Get(ContextUserID).(uint)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}

			var user models.User
			if err := db.First(&user, userID).Error; err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
			}
			if user.Role != "admin" {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}

func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get(ContextUserID).(uint)
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return id, nil
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
