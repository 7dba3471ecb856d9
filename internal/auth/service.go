package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyy110/SoulMate/internal/apperror"
)

// AuthService defines the business logic contract for authentication.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*User, TokenPair, error)
	Login(ctx context.Context, input LoginInput) (*User, TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (TokenPair, error)
	ResolveAccessToken(ctx context.Context, token string) (*User, error)
	UpdateProfile(ctx context.Context, userID string, patch UserPatch) (*User, error)
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// authService implements AuthService with bcrypt hashing and stateless JWTs.
type authService struct {
	repo   UserRepository
	tokens *TokenIssuer
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, tokens *TokenIssuer) AuthService {
	return &authService{
		repo:   repo,
		tokens: tokens,
	}
}

// Register creates a new user account. It validates uniqueness of username
// and email, hashes the password with bcrypt, persists the user, and
// issues a token pair so the client is logged in immediately.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, TokenPair, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Check uniqueness before doing expensive hashing.
	taken, err := s.repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("checking username: %w", err))
	}
	if taken {
		return nil, TokenPair{}, apperror.NewBadRequest("username already taken")
	}

	taken, err = s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if taken {
		return nil, TokenPair{}, apperror.NewBadRequest("email already registered")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(err)
	}

	// Nickname defaults to the username when not provided.
	nickname := strings.TrimSpace(input.Nickname)
	if nickname == "" {
		nickname = username
	}

	now := time.Now().UTC()
	user := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Nickname:     &nickname,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("issuing tokens: %w", err))
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, pair, nil
}

// Login authenticates a user by username and password and issues a fresh
// token pair. The failure message never reveals whether the username
// exists.
func (s *authService) Login(ctx context.Context, input LoginInput) (*User, TokenPair, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return nil, TokenPair{}, apperror.NewUnauthorized("invalid username or password")
		}
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return nil, TokenPair{}, apperror.NewUnauthorized("invalid username or password")
	}

	if !user.IsActive {
		return nil, TokenPair{}, apperror.NewForbidden("account is deactivated")
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return nil, TokenPair{}, apperror.NewInternal(fmt.Errorf("issuing tokens: %w", err))
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)

	return user, pair, nil
}

// Refresh exchanges a valid refresh token for a brand-new token pair.
// The token must validate as kind=refresh -- an access token presented
// here is rejected with WrongKind, not silently accepted.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	userID, err := s.tokens.Validate(refreshToken, TokenKindRefresh)
	if err != nil {
		return TokenPair{}, unauthorizedFromTokenErr(err)
	}

	pair, err := s.tokens.IssuePair(userID)
	if err != nil {
		return TokenPair{}, apperror.NewInternal(fmt.Errorf("issuing tokens: %w", err))
	}

	return pair, nil
}

// ResolveAccessToken turns a bearer access token into the authenticated
// user. A syntactically valid token whose user record no longer exists
// fails with 401: tokens are stateless and are not invalidated on account
// deletion, so the lookup is the only place this can be caught.
func (s *authService) ResolveAccessToken(ctx context.Context, token string) (*User, error) {
	userID, err := s.tokens.Validate(token, TokenKindAccess)
	if err != nil {
		return nil, unauthorizedFromTokenErr(err)
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) && appErr.Code == 404 {
			return nil, apperror.NewUnauthorized("user not found")
		}
		return nil, apperror.NewInternal(fmt.Errorf("loading user: %w", err))
	}

	// Deactivation takes effect here, on the next request, even though
	// the token itself is still cryptographically valid.
	if !user.IsActive {
		return nil, apperror.NewUnauthorized("account is deactivated")
	}

	return user, nil
}

// UpdateProfile applies a partial profile update and returns the updated
// user. Only non-nil patch fields are touched.
func (s *authService) UpdateProfile(ctx context.Context, userID string, patch UserPatch) (*User, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated := applyPatch(*user, patch)
	if err := s.repo.UpdateProfile(ctx, &updated); err != nil {
		if _, ok := err.(*apperror.AppError); ok {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating profile: %w", err))
	}

	return &updated, nil
}

// ChangePassword verifies the old password and stores a bcrypt hash of the
// new one. Outstanding tokens remain valid until their natural expiry --
// an accepted consequence of the stateless token design.
func (s *authService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if !verifyPassword(oldPassword, user.PasswordHash) {
		return apperror.NewBadRequest("old password is incorrect")
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return apperror.NewInternal(err)
	}

	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		if _, ok := err.(*apperror.AppError); ok {
			return err
		}
		return apperror.NewInternal(fmt.Errorf("updating password: %w", err))
	}

	slog.Info("password changed", slog.String("user_id", userID))

	return nil
}

// unauthorizedFromTokenErr maps the token package's sentinel errors to 401
// responses with messages that say what went wrong without leaking claims.
func unauthorizedFromTokenErr(err error) *apperror.AppError {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return apperror.NewUnauthorized("token expired")
	case errors.Is(err, ErrWrongKind):
		return apperror.NewUnauthorized("invalid token type")
	case errors.Is(err, ErrMalformedClaims):
		return apperror.NewUnauthorized("invalid token payload")
	default:
		return apperror.NewUnauthorized("invalid or expired token")
	}
}
