package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hyy110/SoulMate/internal/apperror"
	"github.com/hyy110/SoulMate/internal/config"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn         func(ctx context.Context, user *User) error
	findByIDFn       func(ctx context.Context, id string) (*User, error)
	findByUsernameFn func(ctx context.Context, username string) (*User, error)
	usernameExistsFn func(ctx context.Context, username string) (bool, error)
	emailExistsFn    func(ctx context.Context, email string) (bool, error)
	updateProfileFn  func(ctx context.Context, user *User) error
	updatePasswordFn func(ctx context.Context, userID, passwordHash string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*User, error) {
	if m.findByUsernameFn != nil {
		return m.findByUsernameFn(ctx, username)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	if m.usernameExistsFn != nil {
		return m.usernameExistsFn(ctx, username)
	}
	return false, nil
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, user *User) error {
	if m.updateProfileFn != nil {
		return m.updateProfileFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, passwordHash)
	}
	return nil
}

// --- Test Helpers ---

// testIssuer is shared by service tests that need to validate issued tokens.
func testServiceIssuer() *TokenIssuer {
	return NewTokenIssuer(config.JWTConfig{
		SecretKey:  "service-test-secret-key-32-bytes!",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
}

// newTestAuthService creates an authService with a mock repo and a real
// token issuer.
func newTestAuthService(repo *mockUserRepo) *authService {
	return &authService{
		repo:   repo,
		tokens: testServiceIssuer(),
	}
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			if user.Username != "alice" {
				t.Errorf("expected username alice, got %s", user.Username)
			}
			if user.Email != "alice@example.com" {
				t.Errorf("expected email alice@example.com, got %s", user.Email)
			}
			if user.PasswordHash == "" {
				t.Error("expected password hash to be set")
			}
			if user.PasswordHash == "secret123" {
				t.Error("password stored as plaintext")
			}
			if !user.IsActive {
				t.Error("expected new user to be active")
			}
			return nil
		},
	}

	svc := newTestAuthService(repo)
	user, tokens, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.ID == "" {
		t.Error("expected user ID to be generated")
	}

	// The issued pair must resolve back to the new user.
	got, err := svc.tokens.Validate(tokens.AccessToken, TokenKindAccess)
	if err != nil || got != user.ID {
		t.Errorf("access token: got (%s, %v), want %s", got, err, user.ID)
	}
	got, err = svc.tokens.Validate(tokens.RefreshToken, TokenKindRefresh)
	if err != nil || got != user.ID {
		t.Errorf("refresh token: got (%s, %v), want %s", got, err, user.ID)
	}
}

func TestRegister_NicknameDefaultsToUsername(t *testing.T) {
	var captured *User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			captured = user
			return nil
		},
	}

	svc := newTestAuthService(repo)
	_, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if captured.Nickname == nil || *captured.Nickname != "alice" {
		t.Errorf("expected nickname to default to username, got %v", captured.Nickname)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := &mockUserRepo{
		usernameExistsFn: func(ctx context.Context, username string) (bool, error) {
			return true, nil
		},
	}

	svc := newTestAuthService(repo)
	_, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "taken",
		Email:    "new@example.com",
		Password: "secret123",
	})
	assertAppError(t, err, 400)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}

	svc := newTestAuthService(repo)
	_, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "taken@example.com",
		Password: "secret123",
	})
	assertAppError(t, err, 400)
}

func TestRegister_CreateError(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			return errors.New("db write error")
		},
	}

	svc := newTestAuthService(repo)
	_, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	assertAppError(t, err, 500)
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	hash, err := hashPassword("secret123")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	repo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*User, error) {
			return &User{ID: "user-123", Username: "alice", PasswordHash: hash, IsActive: true}, nil
		},
	}

	svc := newTestAuthService(repo)
	user, tokens, err := svc.Login(context.Background(), LoginInput{
		Username: "alice",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-123" {
		t.Errorf("expected user-123, got %s", user.ID)
	}
	if got, err := svc.tokens.Validate(tokens.AccessToken, TokenKindAccess); err != nil || got != "user-123" {
		t.Errorf("access token: got (%s, %v)", got, err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := &mockUserRepo{}

	svc := newTestAuthService(repo)
	_, _, err := svc.Login(context.Background(), LoginInput{
		Username: "ghost",
		Password: "whatever",
	})
	assertAppError(t, err, 401)
}

func TestLogin_WrongPassword(t *testing.T) {
	hash, _ := hashPassword("secret123")
	repo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*User, error) {
			return &User{ID: "user-123", Username: "alice", PasswordHash: hash, IsActive: true}, nil
		},
	}

	svc := newTestAuthService(repo)
	_, _, err := svc.Login(context.Background(), LoginInput{
		Username: "alice",
		Password: "secret124",
	})
	assertAppError(t, err, 401)
}

func TestLogin_DeactivatedAccount(t *testing.T) {
	hash, _ := hashPassword("secret123")
	repo := &mockUserRepo{
		findByUsernameFn: func(ctx context.Context, username string) (*User, error) {
			return &User{ID: "user-123", Username: "alice", PasswordHash: hash, IsActive: false}, nil
		},
	}

	svc := newTestAuthService(repo)
	_, _, err := svc.Login(context.Background(), LoginInput{
		Username: "alice",
		Password: "secret123",
	})
	assertAppError(t, err, 403)
}

// --- Refresh Tests ---

func TestRefresh_Success(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{})

	refresh, err := svc.tokens.IssueRefresh("user-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	pair, err := svc.Refresh(context.Background(), refresh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, err := svc.tokens.Validate(pair.AccessToken, TokenKindAccess); err != nil || got != "user-123" {
		t.Errorf("new access token: got (%s, %v)", got, err)
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{})

	// An access token must not be replayable as a refresh token.
	access, err := svc.tokens.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = svc.Refresh(context.Background(), access)
	assertAppError(t, err, 401)
}

func TestRefresh_GarbageToken(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{})

	_, err := svc.Refresh(context.Background(), "not-a-token")
	assertAppError(t, err, 401)
}

// --- ResolveAccessToken Tests ---

func TestResolveAccessToken_Success(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			if id != "user-123" {
				t.Errorf("expected lookup of user-123, got %s", id)
			}
			return &User{ID: id, Username: "alice", IsActive: true}, nil
		},
	}
	svc := newTestAuthService(repo)

	token, err := svc.tokens.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	user, err := svc.ResolveAccessToken(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("expected alice, got %s", user.Username)
	}
}

func TestResolveAccessToken_DeletedUser(t *testing.T) {
	// The token is still valid but the account is gone. Stateless tokens
	// are not revoked on deletion, so this is caught only at lookup time.
	svc := newTestAuthService(&mockUserRepo{})

	token, err := svc.tokens.IssueAccess("deleted-user")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = svc.ResolveAccessToken(context.Background(), token)
	assertAppError(t, err, 401)
}

func TestResolveAccessToken_DeactivatedUser(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, Username: "alice", IsActive: false}, nil
		},
	}
	svc := newTestAuthService(repo)

	token, err := svc.tokens.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = svc.ResolveAccessToken(context.Background(), token)
	assertAppError(t, err, 401)
}

func TestResolveAccessToken_RejectsRefreshToken(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			t.Error("user lookup must not happen for a wrong-kind token")
			return &User{ID: id}, nil
		},
	}
	svc := newTestAuthService(repo)

	refresh, err := svc.tokens.IssueRefresh("user-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	_, err = svc.ResolveAccessToken(context.Background(), refresh)
	assertAppError(t, err, 401)
}

// --- Profile Patch Tests ---

func TestUpdateProfile_PartialPatch(t *testing.T) {
	nickname := "old-nick"
	bio := "old bio"
	var captured *User

	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, Username: "alice", Nickname: &nickname, Bio: &bio}, nil
		},
		updateProfileFn: func(ctx context.Context, user *User) error {
			captured = user
			return nil
		},
	}
	svc := newTestAuthService(repo)

	newNick := "new-nick"
	user, err := svc.UpdateProfile(context.Background(), "user-123", UserPatch{
		Nickname: &newNick,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if captured.Nickname == nil || *captured.Nickname != "new-nick" {
		t.Errorf("expected nickname new-nick, got %v", captured.Nickname)
	}
	// Unspecified fields stay untouched.
	if captured.Bio == nil || *captured.Bio != "old bio" {
		t.Errorf("expected bio unchanged, got %v", captured.Bio)
	}
	if user.Nickname == nil || *user.Nickname != "new-nick" {
		t.Errorf("expected returned user to carry the patch, got %v", user.Nickname)
	}
}

func TestApplyPatch_Pure(t *testing.T) {
	nickname := "original"
	original := User{ID: "user-123", Nickname: &nickname}

	newNick := "patched"
	patched := applyPatch(original, UserPatch{Nickname: &newNick})

	if *original.Nickname != "original" {
		t.Error("applyPatch mutated its input")
	}
	if *patched.Nickname != "patched" {
		t.Errorf("expected patched nickname, got %s", *patched.Nickname)
	}
}

// --- Change Password Tests ---

func TestChangePassword_Success(t *testing.T) {
	hash, _ := hashPassword("old-secret")
	var newHash string

	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, PasswordHash: hash}, nil
		},
		updatePasswordFn: func(ctx context.Context, userID, passwordHash string) error {
			newHash = passwordHash
			return nil
		},
	}
	svc := newTestAuthService(repo)

	if err := svc.ChangePassword(context.Background(), "user-123", "old-secret", "new-secret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newHash == "" {
		t.Fatal("expected password hash to be updated")
	}
	if !verifyPassword("new-secret", newHash) {
		t.Error("expected new password to verify against updated hash")
	}
}

func TestChangePassword_WrongOldPassword(t *testing.T) {
	hash, _ := hashPassword("old-secret")
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, PasswordHash: hash}, nil
		},
	}
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), "user-123", "wrong-old", "new-secret")
	assertAppError(t, err, 400)
}

// --- Password Hashing Tests ---

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := hashPassword("secret123")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash == "" {
		t.Fatal("expected non-empty hash")
	}

	// Correct password should verify.
	if !verifyPassword("secret123", hash) {
		t.Error("expected correct password to verify")
	}

	// A near-miss should not.
	if verifyPassword("secret124", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	hash2, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash1 == hash2 {
		t.Error("expected different salts to produce different hashes")
	}
	if !verifyPassword("same-password", hash1) || !verifyPassword("same-password", hash2) {
		t.Error("expected both hashes to verify the same password")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	if verifyPassword("password", "") {
		t.Error("expected empty hash to fail verification")
	}
	if verifyPassword("password", "not-a-bcrypt-hash") {
		t.Error("expected malformed hash to fail verification")
	}
}
