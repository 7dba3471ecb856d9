package character

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hyy110/SoulMate/internal/apperror"
	"github.com/hyy110/SoulMate/internal/auth"
)

// Handler handles HTTP requests for characters. Handlers are thin: bind,
// call the service, render.
type Handler struct {
	service CharacterService
}

// NewHandler creates a new character handler.
func NewHandler(service CharacterService) *Handler {
	return &Handler{service: service}
}

// Create creates a new character (POST /api/characters).
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	ch, err := h.service.Create(c.Request().Context(), auth.CurrentUserID(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, ch)
}

// Get returns one character (GET /api/characters/:id).
func (h *Handler) Get(c echo.Context) error {
	ch, err := h.service.GetByID(c.Request().Context(), c.Param("id"), auth.CurrentUserID(c))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ch)
}

// ListPublic returns all public characters (GET /api/characters).
func (h *Handler) ListPublic(c echo.Context) error {
	characters, err := h.service.ListPublic(c.Request().Context())
	if err != nil {
		return err
	}
	if characters == nil {
		characters = []Character{}
	}

	return c.JSON(http.StatusOK, characters)
}

// ListMine returns the caller's characters (GET /api/characters/mine).
func (h *Handler) ListMine(c echo.Context) error {
	characters, err := h.service.ListMine(c.Request().Context(), auth.CurrentUserID(c))
	if err != nil {
		return err
	}
	if characters == nil {
		characters = []Character{}
	}

	return c.JSON(http.StatusOK, characters)
}
