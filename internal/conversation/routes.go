package conversation

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all conversation routes on the given
// authenticated /api group.
func RegisterRoutes(authed *echo.Group, h *Handler) {
	g := authed.Group("/conversations")

	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)

	g.GET("/:id/messages", h.ListMessages)
	g.POST("/:id/messages", h.SendMessage)
	g.DELETE("/:id/messages/:messageID", h.DeleteMessage)
	g.POST("/:id/clear", h.ClearMessages)
}
