package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hyy110/SoulMate/internal/config"
)

// TokenKind discriminates access tokens from refresh tokens. A leaked
// refresh token must never be accepted where an access token is expected
// (and vice versa), so the kind is checked on every Validate call.
type TokenKind string

const (
	// TokenKindAccess marks short-lived tokens sent on every API request.
	TokenKindAccess TokenKind = "access"

	// TokenKindRefresh marks long-lived tokens exchanged for new pairs.
	TokenKindRefresh TokenKind = "refresh"
)

// Validation failure modes. The service layer maps all of these to 401,
// but keeps them distinct so responses and logs can say what went wrong.
var (
	// ErrInvalidToken means the token could not be parsed or its
	// signature did not verify.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired means the token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongKind means the token's type claim did not match the
	// expected kind.
	ErrWrongKind = errors.New("wrong token kind")

	// ErrMalformedClaims means the subject claim is missing.
	ErrMalformedClaims = errors.New("malformed token claims")
)

// Claims is the JWT claim set carried by both token kinds: the standard
// sub/exp/iat claims plus the kind discriminator under the "type" key.
type Claims struct {
	Kind TokenKind `json:"type"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and validates signed, typed, expiring JWTs. Tokens
// are stateless: there is no server-side revocation list, lifecycle is
// pure creation-by-signing and implicit expiry. Constructed once at
// startup from config and shared.
type TokenIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenIssuer creates a token issuer from the JWT config.
func NewTokenIssuer(cfg config.JWTConfig) *TokenIssuer {
	return &TokenIssuer{
		secret:     []byte(cfg.SecretKey),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// IssueAccess creates a signed access token for the given user ID.
func (t *TokenIssuer) IssueAccess(userID string) (string, error) {
	return t.sign(userID, TokenKindAccess, t.accessTTL)
}

// IssueRefresh creates a signed refresh token for the given user ID.
func (t *TokenIssuer) IssueRefresh(userID string) (string, error) {
	return t.sign(userID, TokenKindRefresh, t.refreshTTL)
}

// IssuePair creates an access + refresh token pair. Used at register,
// login, and refresh time.
func (t *TokenIssuer) IssuePair(userID string) (TokenPair, error) {
	access, err := t.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := t.IssueRefresh(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// sign builds and signs an HS256 token with sub, exp, iat, and type claims.
func (t *TokenIssuer) sign(userID string, kind TokenKind, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", kind, err)
	}
	return token, nil
}

// Validate parses and verifies a token and returns the user ID from the
// sub claim. Fails with ErrInvalidToken on a bad signature or garbage
// input, ErrTokenExpired past the exp claim, ErrWrongKind when the type
// claim doesn't match expected, and ErrMalformedClaims when sub is
// missing. Expiry is evaluated against the wall clock at call time.
func (t *TokenIssuer) Validate(tokenString string, expected TokenKind) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{},
		func(token *jwt.Token) (any, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return "", ErrInvalidToken
	}
	if claims.Kind != expected {
		return "", ErrWrongKind
	}
	if claims.Subject == "" {
		return "", ErrMalformedClaims
	}

	return claims.Subject, nil
}
