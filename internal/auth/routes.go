package auth

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/hyy110/SoulMate/internal/middleware"
)

// RegisterRoutes sets up all auth routes on the given /api group. The
// register/login/refresh endpoints are public; the /me endpoints require
// a bearer access token.
//
// POST endpoints are rate-limited to slow down brute-force and credential
// stuffing attacks: 10 attempts per IP per minute for login, 5 for register.
func RegisterRoutes(api *echo.Group, h *Handler, rdb *redis.Client) {
	g := api.Group("/auth")

	// Public routes -- no token required.
	g.POST("/register", h.Register, middleware.RateLimit(rdb, 5, time.Minute))
	g.POST("/login", h.Login, middleware.RateLimit(rdb, 10, time.Minute))
	g.POST("/refresh", h.Refresh)

	// Authenticated routes.
	me := g.Group("/me", RequireAuth(h.service))
	me.GET("", h.Me)
	me.PUT("", h.UpdateMe)
	me.PUT("/password", h.ChangePassword)
}
