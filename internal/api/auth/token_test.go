package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/sidara-archive/config"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		SecretKey:      "test-secret",
		Issuer:         "sidara-archive",
		Audience:       "sidara-archive-web",
		AccessTokenTTL: time.Hour,
	}
}

func TestTokenManager_IssueVerify(t *testing.T) {
	tm := NewTokenManager(testJWTConfig())
	identity := types.Identity{ID: uuid.New(), Username: "budi", Role: types.RoleUser}

	token, err := tm.Issue(identity)
	require.NoError(t, err)

	got, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, identity, got)
}

func TestTokenManager_Verify_Rejects(t *testing.T) {
	identity := types.Identity{ID: uuid.New(), Username: "budi", Role: types.RoleAdmin}
	issuedAt := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("expired", func(t *testing.T) {
		tm := NewTokenManager(testJWTConfig())
		tm.now = func() time.Time { return issuedAt }
		token, err := tm.Issue(identity)
		require.NoError(t, err)

		_, err = tm.Verify(token)
		require.NoError(t, err, "valid before expiry")

		tm.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
		_, err = tm.Verify(token)
		assert.True(t, errors.Is(err, types.ErrUnauthenticated))
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := testJWTConfig()
		other.SecretKey = "another-secret"
		token, err := NewTokenManager(other).Issue(identity)
		require.NoError(t, err)

		_, err = NewTokenManager(testJWTConfig()).Verify(token)
		assert.True(t, errors.Is(err, types.ErrUnauthenticated))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := testJWTConfig()
		other.Issuer = "someone-else"
		token, err := NewTokenManager(other).Issue(identity)
		require.NoError(t, err)

		_, err = NewTokenManager(testJWTConfig()).Verify(token)
		assert.True(t, errors.Is(err, types.ErrUnauthenticated))
	})

	t.Run("wrong audience", func(t *testing.T) {
		other := testJWTConfig()
		other.Audience = "mobile"
		token, err := NewTokenManager(other).Issue(identity)
		require.NoError(t, err)

		_, err = NewTokenManager(testJWTConfig()).Verify(token)
		assert.True(t, errors.Is(err, types.ErrUnauthenticated))
	})

	t.Run("other hmac algorithm", func(t *testing.T) {
		cfg := testJWTConfig()
		claims := types.Claims{
			UserID: identity.ID.String(),
			Role:   identity.Role,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    cfg.Issuer,
				Audience:  jwt.ClaimStrings{cfg.Audience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(cfg.SecretKey))
		require.NoError(t, err)

		_, err = NewTokenManager(cfg).Verify(token)
		assert.True(t, errors.Is(err, types.ErrUnauthenticated))
	})

	t.Run("unsigned", func(t *testing.T) {
		cfg := testJWTConfig()
		claims := jwt.MapClaims{
			"uid": identity.ID.String(),
			"rol": "admin",
			"iss": cfg.Issuer,
			"aud": cfg.Audience,
			"exp": time.Now().Add(time.Hour).Unix(),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = NewTokenManager(cfg).Verify(token)
		assert.True(t, errors.Is(err, types.ErrUnauthenticated))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := NewTokenManager(testJWTConfig()).Verify("not-a-token")
		assert.True(t, errors.Is(err, types.ErrUnauthenticated))
	})
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("password123")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", hash)

	assert.NoError(t, h.Compare(hash, "password123"))
	assert.ErrorIs(t, h.Compare(hash, "wrong"), types.ErrInvalidCredentials)
	assert.ErrorIs(t, h.Compare("", "password123"), types.ErrInvalidCredentials)
}
