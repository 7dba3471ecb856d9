package character

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all character routes on the given authenticated
// /api group. Every endpoint requires a bearer access token; visibility
// of private characters is enforced in the service.
func RegisterRoutes(authed *echo.Group, h *Handler) {
	g := authed.Group("/characters")

	g.POST("", h.Create)
	g.GET("", h.ListPublic)
	g.GET("/mine", h.ListMine)
	g.GET("/:id", h.Get)
}
