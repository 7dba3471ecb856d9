package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hyy110/SoulMate/internal/config"
)

// newTestIssuer creates a TokenIssuer with the given TTLs and a fixed
// test secret.
func newTestIssuer(accessTTL, refreshTTL time.Duration) *TokenIssuer {
	return NewTokenIssuer(config.JWTConfig{
		SecretKey:  "test-secret-key-for-token-tests!",
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := newTestIssuer(30*time.Minute, 7*24*time.Hour)
	const userID = "user-123"

	tests := []struct {
		name  string
		issue func(string) (string, error)
		kind  TokenKind
	}{
		{"access", issuer.IssueAccess, TokenKindAccess},
		{"refresh", issuer.IssueRefresh, TokenKindRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.issue(userID)
			if err != nil {
				t.Fatalf("issue failed: %v", err)
			}

			got, err := issuer.Validate(token, tt.kind)
			if err != nil {
				t.Fatalf("validate failed: %v", err)
			}
			if got != userID {
				t.Errorf("expected subject %s, got %s", userID, got)
			}
		})
	}
}

func TestValidate_WrongKind(t *testing.T) {
	issuer := newTestIssuer(30*time.Minute, 7*24*time.Hour)

	access, err := issuer.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := issuer.Validate(access, TokenKindRefresh); !errors.Is(err, ErrWrongKind) {
		t.Errorf("access token as refresh: expected ErrWrongKind, got %v", err)
	}

	refresh, err := issuer.IssueRefresh("user-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := issuer.Validate(refresh, TokenKindAccess); !errors.Is(err, ErrWrongKind) {
		t.Errorf("refresh token as access: expected ErrWrongKind, got %v", err)
	}
}

func TestValidate_Expired(t *testing.T) {
	// Negative TTL issues tokens that are already past their expiry.
	issuer := newTestIssuer(-1*time.Minute, -1*time.Minute)

	token, err := issuer.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := issuer.Validate(token, TokenKindAccess); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer := newTestIssuer(30*time.Minute, 7*24*time.Hour)
	other := NewTokenIssuer(config.JWTConfig{
		SecretKey:  "a-completely-different-secret-key",
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})

	token, err := issuer.IssueAccess("user-123")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := other.Validate(token, TokenKindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestValidate_Garbage(t *testing.T) {
	issuer := newTestIssuer(30*time.Minute, 7*24*time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{"empty string", ""},
		{"not a jwt", "definitely-not-a-jwt"},
		{"truncated", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := issuer.Validate(tt.token, TokenKindAccess); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestValidate_MissingSubject(t *testing.T) {
	issuer := newTestIssuer(30*time.Minute, 7*24*time.Hour)

	// An otherwise valid token with an empty sub claim.
	token, err := issuer.IssueAccess("")
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	if _, err := issuer.Validate(token, TokenKindAccess); !errors.Is(err, ErrMalformedClaims) {
		t.Errorf("expected ErrMalformedClaims, got %v", err)
	}
}

func TestValidate_RejectsUnexpectedSigningMethod(t *testing.T) {
	issuer := newTestIssuer(30*time.Minute, 7*24*time.Hour)

	// Sign with HS512 using the right secret. Validate only accepts HS256.
	claims := Claims{
		Kind: TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).
		SignedString([]byte("test-secret-key-for-token-tests!"))
	if err != nil {
		t.Fatalf("signing test token: %v", err)
	}

	if _, err := issuer.Validate(token, TokenKindAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for HS512 token, got %v", err)
	}
}

func TestIssuePair(t *testing.T) {
	issuer := newTestIssuer(30*time.Minute, 7*24*time.Hour)

	pair, err := issuer.IssuePair("user-123")
	if err != nil {
		t.Fatalf("IssuePair failed: %v", err)
	}

	if pair.TokenType != "bearer" {
		t.Errorf("expected token_type bearer, got %s", pair.TokenType)
	}

	if got, err := issuer.Validate(pair.AccessToken, TokenKindAccess); err != nil || got != "user-123" {
		t.Errorf("access token: got (%s, %v)", got, err)
	}
	if got, err := issuer.Validate(pair.RefreshToken, TokenKindRefresh); err != nil || got != "user-123" {
		t.Errorf("refresh token: got (%s, %v)", got, err)
	}
}
