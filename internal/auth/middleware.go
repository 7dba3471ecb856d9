package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hyy110/SoulMate/internal/apperror"
)

// Context keys for storing the authenticated user in Echo context. Other
// packages use these keys (via the exported getter functions below) to
// access the current user's information.
const (
	contextKeyUser   = "auth_user"
	contextKeyUserID = "auth_user_id"
)

// RequireAuth returns middleware that validates the bearer access token
// and injects the authenticated user into the request context. Requests
// without a valid access token get a 401.
func RequireAuth(service AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := bearerToken(c)
			if token == "" {
				return apperror.NewUnauthorized("authentication required")
			}

			user, err := service.ResolveAccessToken(c.Request().Context(), token)
			if err != nil {
				return err
			}

			// Store the user in context for downstream handlers.
			c.Set(contextKeyUser, user)
			c.Set(contextKeyUserID, user.ID)

			return next(c)
		}
	}
}

// bearerToken extracts the token from the Authorization header. Returns
// empty string if the header is missing or not a Bearer scheme.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// --- Exported getters for other packages ---

// CurrentUser retrieves the authenticated user from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func CurrentUser(c echo.Context) *User {
	user, ok := c.Get(contextKeyUser).(*User)
	if !ok {
		return nil
	}
	return user
}

// CurrentUserID retrieves the authenticated user's ID from the Echo
// context. Returns empty string if the request is not authenticated.
func CurrentUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}
