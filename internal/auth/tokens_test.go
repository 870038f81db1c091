package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mleroux/taskforge/internal/config"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		AccessSecret:  "test-access-secret-0123456789abcdef",
		RefreshSecret: "test-refresh-secret-0123456789abcdef",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func TestAccessToken_RoundTrip(t *testing.T) {
	svc := NewTokenService(testAuthConfig())

	token, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	svc := NewTokenService(testAuthConfig())

	token, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := svc.VerifyRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestIssueRefreshToken_UniquePerIssue(t *testing.T) {
	svc := NewTokenService(testAuthConfig())

	// Back-to-back issuance lands in the same second; the jti claim must
	// still make every token distinct or rotation would replace a stored
	// token with an identical value.
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		token, err := svc.IssueRefreshToken("user-1")
		require.NoError(t, err)
		assert.False(t, seen[token], "duplicate refresh token issued")
		seen[token] = true
	}
}

func TestTokenClasses_NotInterchangeable(t *testing.T) {
	svc := NewTokenService(testAuthConfig())

	access, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)
	refresh, err := svc.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = svc.VerifyRefreshToken(access)
	assert.Error(t, err, "access token must not pass refresh verification")

	_, err = svc.VerifyAccessToken(refresh)
	assert.Error(t, err, "refresh token must not pass access verification")
}

func TestVerifyAccessToken_Expired(t *testing.T) {
	cfg := testAuthConfig()
	cfg.AccessTTL = -time.Minute
	svc := NewTokenService(cfg)

	token, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyAccessToken_WrongSecret(t *testing.T) {
	svc := NewTokenService(testAuthConfig())
	other := NewTokenService(config.AuthConfig{
		AccessSecret:  "a-completely-different-secret-value",
		RefreshSecret: "another-completely-different-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	})

	token, err := svc.IssueAccessToken("user-1")
	require.NoError(t, err)

	_, err = other.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestVerifyAccessToken_Garbage(t *testing.T) {
	svc := NewTokenService(testAuthConfig())

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := svc.VerifyAccessToken(token)
		assert.Error(t, err, "token %q must be rejected", token)
	}
}

func TestNewResetToken(t *testing.T) {
	plaintext, hash, err := NewResetToken()
	require.NoError(t, err)

	assert.Len(t, plaintext, 64, "32 random bytes hex-encoded")
	assert.Equal(t, hash, HashResetToken(plaintext))

	// Hash must not equal the plaintext: only the hash is stored.
	assert.NotEqual(t, plaintext, hash)

	other, _, err := NewResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, plaintext, other)
}
