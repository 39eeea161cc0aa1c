package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-ai-trip-planner/config"
	"github.com/FACorreiaa/go-ai-trip-planner/internal/types"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey: "test-secret",
		Issuer:    "go-ai-trip-planner",
		Audience:  "trip-planner-api",
		TTL:       time.Hour,
	}
}

func setupTokenServiceTest(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(testJWTConfig())
	require.NoError(t, err)
	return s
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewTokenService(config.JWTConfig{})
	assert.ErrorIs(t, err, ErrMissingSecret)
}

func TestTokenService_IssueAndParse(t *testing.T) {
	s := setupTokenServiceTest(t)
	identity := types.Identity{UserID: "g-1", Email: "alice@example.com", Name: "Alice", Provider: "google"}

	token, err := s.IssueToken("s1", identity)
	require.NoError(t, err)

	claims, err := s.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.SessionID)
	_, err = uuid.Parse(claims.ID)
	assert.NoError(t, err, "token id is a uuid")

	got := claims.Identity()
	assert.Equal(t, "g-1", got.UserID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "google", got.Provider)
}

func TestTokenService_ParseRejects(t *testing.T) {
	s := setupTokenServiceTest(t)
	identity := types.Identity{Email: "alice@example.com"}

	t.Run("Expired", func(t *testing.T) {
		issuer := setupTokenServiceTest(t)
		issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, err := issuer.IssueToken("s1", identity)
		require.NoError(t, err)

		_, err = s.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		cfg := testJWTConfig()
		cfg.SecretKey = "other"
		other, err := NewTokenService(cfg)
		require.NoError(t, err)
		token, err := other.IssueToken("s1", identity)
		require.NoError(t, err)

		_, err = s.ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		cfg := testJWTConfig()
		cfg.Issuer = "someone-else"
		other, err := NewTokenService(cfg)
		require.NoError(t, err)
		token, err := other.IssueToken("s1", identity)
		require.NoError(t, err)

		_, err = s.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongAudience", func(t *testing.T) {
		cfg := testJWTConfig()
		cfg.Audience = "another-api"
		other, err := NewTokenService(cfg)
		require.NoError(t, err)
		token, err := other.IssueToken("s1", identity)
		require.NoError(t, err)

		_, err = s.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("MissingSession", func(t *testing.T) {
		token, err := s.IssueToken("", identity)
		require.NoError(t, err)

		_, err = s.ParseToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := s.ParseToken("not-a-token")
		assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
	})
}
