package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mleroux/taskforge/internal/config"
)

// Token verification failure reasons. Both map to 401 at the HTTP boundary;
// the distinction exists for diagnostics and logging.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims is the signed claim set carried by both token classes:
// the subject user id plus the registered issued-at/expiry claims.
type Claims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed access and refresh tokens.
//
// The two token classes are signed with two distinct secrets so that a
// compromise of one secret never allows forging the other class. Access
// tokens are verified statelessly; refresh tokens must additionally exist
// un-rotated in the token store to be accepted (the store lookup in the
// session service is authoritative for liveness).
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

// NewTokenService creates a token service from the auth configuration.
func NewTokenService(cfg config.AuthConfig) *TokenService {
	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
	}
}

// AccessTTL returns the configured access-token lifetime.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL returns the configured refresh-token lifetime.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// IssueAccessToken signs a short-lived access token for the given user.
func (s *TokenService) IssueAccessToken(userID string) (string, error) {
	return sign(userID, s.accessSecret, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the given user.
func (s *TokenService) IssueRefreshToken(userID string) (string, error) {
	return sign(userID, s.refreshSecret, s.refreshTTL)
}

// VerifyAccessToken validates the signature and expiry of an access token
// and returns its claims. Fails with ErrTokenExpired or ErrTokenInvalid.
func (s *TokenService) VerifyAccessToken(token string) (*Claims, error) {
	return verify(token, s.accessSecret)
}

// VerifyRefreshToken validates the signature and expiry of a refresh token.
// Liveness (the token still being stored, un-rotated) is checked separately
// by the session service.
func (s *TokenService) VerifyRefreshToken(token string) (*Claims, error) {
	return verify(token, s.refreshSecret)
}

// sign builds and signs an HS256 token with the subject id and TTL. Each
// token carries a random jti, so two tokens issued for the same user in the
// same second still differ; rotation relies on every issued value being
// unique.
func sign(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// verify parses a token, checks its HMAC signature and expiry, and returns
// the claims.
func verify(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		// Reject tokens signed with a different algorithm family.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// NewResetToken generates a random password-reset token. The plaintext is
// emailed to the user; only its SHA-256 hash is stored, so a database leak
// never exposes usable reset tokens.
func NewResetToken() (plaintext, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating reset token: %w", err)
	}
	plaintext = hex.EncodeToString(b)
	return plaintext, HashResetToken(plaintext), nil
}

// HashResetToken returns the hex-encoded SHA-256 of a reset token.
func HashResetToken(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}
