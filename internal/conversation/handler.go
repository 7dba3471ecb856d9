package conversation

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hyy110/SoulMate/internal/apperror"
	"github.com/hyy110/SoulMate/internal/auth"
)

// maxMessageLength bounds a single chat message.
const maxMessageLength = 5000

// Handler handles HTTP requests for conversations and their messages.
type Handler struct {
	service ConversationService
}

// NewHandler creates a new conversation handler.
func NewHandler(service ConversationService) *Handler {
	return &Handler{service: service}
}

// Create starts a conversation (POST /api/conversations).
func (h *Handler) Create(c echo.Context) error {
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	conv, err := h.service.Create(c.Request().Context(), auth.CurrentUserID(c), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, conv)
}

// List returns the caller's conversations (GET /api/conversations).
func (h *Handler) List(c echo.Context) error {
	conversations, err := h.service.List(c.Request().Context(), auth.CurrentUserID(c))
	if err != nil {
		return err
	}
	if conversations == nil {
		conversations = []Conversation{}
	}

	return c.JSON(http.StatusOK, conversations)
}

// Get returns one conversation (GET /api/conversations/:id).
func (h *Handler) Get(c echo.Context) error {
	conv, err := h.service.Get(c.Request().Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, conv)
}

// Update renames a conversation (PUT /api/conversations/:id).
func (h *Handler) Update(c echo.Context) error {
	var patch ConversationPatch
	if err := c.Bind(&patch); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	conv, err := h.service.Update(c.Request().Context(), auth.CurrentUserID(c), c.Param("id"), patch)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, conv)
}

// Delete removes a conversation (DELETE /api/conversations/:id).
func (h *Handler) Delete(c echo.Context) error {
	err := h.service.Delete(c.Request().Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// SendMessage appends a user message and the character's reply
// (POST /api/conversations/:id/messages). Both messages are persisted,
// but the response body is the reply alone; the client already has the
// text it sent.
func (h *Handler) SendMessage(c echo.Context) error {
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Content == "" {
		return apperror.NewValidation("content is required")
	}
	if len(req.Content) > maxMessageLength {
		return apperror.NewValidation("content must be at most 5000 characters")
	}

	msgs, err := h.service.SendMessage(c.Request().Context(), auth.CurrentUserID(c), c.Param("id"), req.Content)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, msgs[len(msgs)-1])
}

// ListMessages returns one page of a conversation's history
// (GET /api/conversations/:id/messages?limit=&before=).
func (h *Handler) ListMessages(c echo.Context) error {
	limit := DefaultPageSize
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxPageSize {
			return apperror.NewValidation("limit must be an integer between 1 and 100")
		}
		limit = n
	}

	page, err := h.service.ListMessages(
		c.Request().Context(),
		auth.CurrentUserID(c),
		c.Param("id"),
		c.QueryParam("before"),
		limit,
	)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

// DeleteMessage removes one message
// (DELETE /api/conversations/:id/messages/:messageID).
func (h *Handler) DeleteMessage(c echo.Context) error {
	err := h.service.DeleteMessage(
		c.Request().Context(),
		auth.CurrentUserID(c),
		c.Param("id"),
		c.Param("messageID"),
	)
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// ClearMessages wipes a conversation's history
// (POST /api/conversations/:id/clear).
func (h *Handler) ClearMessages(c echo.Context) error {
	deleted, err := h.service.ClearMessages(c.Request().Context(), auth.CurrentUserID(c), c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, ClearResponse{Deleted: deleted})
}
