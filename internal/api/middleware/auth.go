package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/inventory-app/inventory-system/internal/core/domain"
)

// ContextKeyUserID is the echo context key holding the authenticated user id.
const ContextKeyUserID = "user_id"

// TokenVerifier returns the subject of a valid session token.
type TokenVerifier interface {
	VerifyToken(token string) (string, error)
}

// Auth rejects requests without a valid bearer token and stores the token
// subject under ContextKeyUserID.
//
// A missing or malformed Authorization header yields 401; a token that fails
// verification yields 403.
func Auth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "No token provided").SetInternal(domain.ErrMissingToken)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Malformed authorization header").SetInternal(domain.ErrMissingToken)
			}

			subject, err := verifier.VerifyToken(strings.TrimSpace(parts[1]))
			if err != nil {
				return echo.NewHTTPError(http.StatusForbidden, "Invalid token").SetInternal(err)
			}

			c.Set(ContextKeyUserID, subject)
			return next(c)
		}
	}
}

// UserID returns the authenticated user id, or "" outside the Auth middleware.
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextKeyUserID).(string)
	return id
}
