package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/sidara-archive/config"
	"github.com/FACorreiaa/sidara-archive/internal/api"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

// TokenManager issues and verifies the HS256 session tokens.
// Sessions are not stored: a token stays valid until it expires.
type TokenManager struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) *TokenManager {
	return &TokenManager{
		secret:   []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		ttl:      cfg.AccessTokenTTL,
		now:      time.Now,
	}
}

// Issue signs a token for identity that expires after the configured TTL.
func (m *TokenManager) Issue(identity types.Identity) (string, error) {
	now := m.now()
	claims := types.Claims{
		UserID:   identity.ID.String(),
		Username: identity.Username,
		Role:     identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, algorithm, expiry, issuer and audience and returns
// the identity embedded in the token. Every failure wraps types.ErrUnauthenticated.
func (m *TokenManager) Verify(tokenString string) (types.Identity, error) {
	claims := &types.Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return types.Identity{}, fmt.Errorf("%w: %v", types.ErrUnauthenticated, err)
	}

	if !api.VerifyAudience(claims.Audience, m.audience) {
		return types.Identity{}, fmt.Errorf("%w: token audience mismatch", types.ErrUnauthenticated)
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return types.Identity{}, fmt.Errorf("%w: malformed user id claim", types.ErrUnauthenticated)
	}
	if !claims.Role.Valid() {
		return types.Identity{}, fmt.Errorf("%w: unknown role %q", types.ErrUnauthenticated, claims.Role)
	}

	return types.Identity{ID: id, Username: claims.Username, Role: claims.Role}, nil
}
