package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hyy110/SoulMate/internal/apperror"
)

// Handler handles HTTP requests for authentication. Handlers are thin:
// they bind the request, call the service, and render the response. No
// business logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Register creates a new account (POST /api/auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if msg := validateRegisterRequest(&req); msg != "" {
		return apperror.NewValidation(msg)
	}

	user, tokens, err := h.service.Register(c.Request().Context(), RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, AuthResponse{User: user, Tokens: tokens})
}

// Login authenticates a user (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Username == "" || req.Password == "" {
		return apperror.NewValidation("username and password are required")
	}

	user, tokens, err := h.service.Login(c.Request().Context(), LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, AuthResponse{User: user, Tokens: tokens})
}

// Refresh exchanges a refresh token for a new pair (POST /api/auth/refresh).
func (h *Handler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.RefreshToken == "" {
		return apperror.NewValidation("refresh_token is required")
	}

	tokens, err := h.service.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tokens)
}

// Me returns the authenticated user (GET /api/auth/me).
func (h *Handler) Me(c echo.Context) error {
	user := CurrentUser(c)
	if user == nil {
		return apperror.NewUnauthorized("authentication required")
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMe applies a partial profile update (PUT /api/auth/me).
func (h *Handler) UpdateMe(c echo.Context) error {
	var patch UserPatch
	if err := c.Bind(&patch); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), CurrentUserID(c), patch)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, user)
}

// ChangePassword sets a new password (PUT /api/auth/me/password).
func (h *Handler) ChangePassword(c echo.Context) error {
	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if msg := validateNewPassword(req.NewPassword); msg != "" {
		return apperror.NewValidation(msg)
	}

	err := h.service.ChangePassword(c.Request().Context(),
		CurrentUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "password changed"})
}

// --- Validation helpers ---

// validateRegisterRequest performs basic server-side validation on the
// registration payload. Returns an error message or empty string.
func validateRegisterRequest(req *RegisterRequest) string {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return "username is required"
	}
	if len(username) < 3 {
		return "username must be at least 3 characters"
	}
	if len(username) > 50 {
		return "username must be at most 50 characters"
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return "email is required"
	}
	if !strings.Contains(email, "@") {
		return "email is not valid"
	}
	return validateNewPassword(req.Password)
}

// validateNewPassword checks password length bounds shared by register
// and change-password.
func validateNewPassword(password string) string {
	if password == "" {
		return "password is required"
	}
	if len(password) < 6 {
		return "password must be at least 6 characters"
	}
	if len(password) > 128 {
		return "password must be at most 128 characters"
	}
	return ""
}
