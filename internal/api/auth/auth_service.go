package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/sidara-archive/app/observability/metrics"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService authenticates callers and verifies their session tokens.
type AuthService interface {
	Login(ctx context.Context, username, password string) (*types.LoginResponse, error)
	Verify(ctx context.Context, token string) (types.Identity, error)
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	hasher PasswordHasher
	tokens *TokenManager
	now    func() time.Time
}

func NewAuthService(repo AuthRepo, hasher PasswordHasher, tokens *TokenManager, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// Login verifies the credentials of an active account and issues a session token.
// Unknown usernames, inactive accounts and wrong passwords all fail with
// types.ErrInvalidCredentials.
func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (*types.LoginResponse, error) {
	ctx, span := otel.Tracer("AuthService").Start(ctx, "Login", trace.WithAttributes(
		attribute.String("user.username", username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Login"), slog.String("username", username))
	l.DebugContext(ctx, "Attempting login")

	resp, err := s.login(ctx, username, password)
	result := "success"
	if err != nil {
		result = "failure"
		span.RecordError(err)
		span.SetStatus(codes.Error, "Login failed")
		if errors.Is(err, types.ErrInvalidCredentials) {
			l.WarnContext(ctx, "Login rejected")
		} else {
			l.ErrorContext(ctx, "Login failed", slog.Any("error", err))
		}
	}
	metrics.Get().LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	if err != nil {
		return nil, err
	}

	l.InfoContext(ctx, "User logged in", slog.String("userID", resp.User.ID.String()))
	span.SetStatus(codes.Ok, "User logged in")
	return resp, nil
}

func (s *AuthServiceImpl) login(ctx context.Context, username, password string) (*types.LoginResponse, error) {
	if err := (types.LoginRequest{Username: username, Password: password}).Validate(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, types.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	if user.Status != types.UserStatusActive {
		return nil, types.ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		return nil, err
	}

	// A stale last_login must not block a valid login.
	if err := s.repo.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		s.logger.WarnContext(ctx, "Failed to update last login",
			slog.String("userID", user.ID.String()), slog.Any("error", err))
	}

	return &types.LoginResponse{Token: token, User: user.Public()}, nil
}

// Verify resolves a bearer token to the caller identity. Account status is
// not re-checked: a deactivated user keeps access until the token expires.
func (s *AuthServiceImpl) Verify(ctx context.Context, token string) (types.Identity, error) {
	identity, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.DebugContext(ctx, "Token rejected", slog.Any("error", err))
		return types.Identity{}, err
	}
	return identity, nil
}

// RequireRole returns types.ErrForbidden unless identity holds role.
func RequireRole(identity types.Identity, role types.Role) error {
	if identity.Role != role {
		return fmt.Errorf("%w: requires role %s", types.ErrForbidden, role)
	}
	return nil
}
