// Package auth handles user accounts, password security, and the dual-token
// (access + refresh) JWT scheme for SoulMate. It provides registration,
// login, token refresh, and the RequireAuth middleware that turns a bearer
// token into an authenticated user for downstream handlers.
package auth

import (
	"time"
)

// User represents a registered SoulMate user. This is the domain model used
// throughout the application. Database scanning and JSON marshaling use this
// struct directly.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Never expose in JSON responses.
	Nickname     *string   `json:"nickname"`
	AvatarURL    *string   `json:"avatar_url"`
	Bio          *string   `json:"bio"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TokenPair is the pair of tokens handed out at register, login, and
// refresh time. TokenType is always "bearer".
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// --- Request DTOs (bound from HTTP requests) ---

// RegisterRequest holds the data submitted to POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// LoginRequest holds the data submitted to POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest holds the refresh token submitted to POST /api/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest holds the data submitted to PUT /api/auth/me/password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// AuthResponse is the register/login response body: the user plus tokens.
type AuthResponse struct {
	User   *User     `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// --- Service Input DTOs (passed from handler to service) ---

// RegisterInput is the validated input for creating a new user.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Nickname string
}

// LoginInput is the validated input for authenticating a user.
type LoginInput struct {
	Username string
	Password string
}

// --- Profile patching ---

// UserPatch is an explicit partial update for profile fields. A nil field
// means "leave unchanged". Bound directly from PUT /api/auth/me.
type UserPatch struct {
	Nickname  *string `json:"nickname"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
}

// applyPatch merges a patch into a copy of the user and returns it. Pure:
// the input user is not modified, and only non-nil patch fields are applied.
func applyPatch(u User, p UserPatch) User {
	if p.Nickname != nil {
		u.Nickname = p.Nickname
	}
	if p.Bio != nil {
		u.Bio = p.Bio
	}
	if p.AvatarURL != nil {
		u.AvatarURL = p.AvatarURL
	}
	return u
}
