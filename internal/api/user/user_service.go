package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/sidara-archive/internal/api/auth"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

// Ensure implementation satisfies the interface
var _ UserService = (*UserServiceImpl)(nil)

// UserService defines account administration and self-service profile operations.
type UserService interface {
	// Administration
	ListUsers(ctx context.Context) ([]types.User, error)
	CreateUser(ctx context.Context, params types.CreateUserParams) (uuid.UUID, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) error
	DeleteUser(ctx context.Context, caller types.Identity, userID uuid.UUID) error

	// Profile
	GetProfile(ctx context.Context, identity types.Identity) (*types.User, error)
	UpdateProfile(ctx context.Context, identity types.Identity, params types.UpdateProfileParams) error

	// EnsureAdmin creates the admin account unless its username exists already.
	EnsureAdmin(ctx context.Context, params types.CreateUserParams) (bool, error)
}

// UserServiceImpl provides the implementation for UserService.
type UserServiceImpl struct {
	logger *slog.Logger
	repo   UserRepo
	hasher auth.PasswordHasher
}

// NewUserService creates a new user service instance.
func NewUserService(repo UserRepo, hasher auth.PasswordHasher, logger *slog.Logger) *UserServiceImpl {
	return &UserServiceImpl{
		logger: logger,
		repo:   repo,
		hasher: hasher,
	}
}

// ListUsers returns all accounts newest first; hashes never leave the server.
func (s *UserServiceImpl) ListUsers(ctx context.Context) ([]types.User, error) {
	l := s.logger.With(slog.String("method", "ListUsers"))
	l.DebugContext(ctx, "Fetching users")

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to fetch users", slog.Any("error", err))
		return nil, fmt.Errorf("error fetching users: %w", err)
	}
	return users, nil
}

// CreateUser registers an active account.
func (s *UserServiceImpl) CreateUser(ctx context.Context, params types.CreateUserParams) (uuid.UUID, error) {
	ctx, span := otel.Tracer("UserService").Start(ctx, "CreateUser", trace.WithAttributes(
		attribute.String("user.username", params.Username),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "CreateUser"), slog.String("username", params.Username))

	params.Normalize()
	if err := params.Validate(); err != nil {
		return uuid.Nil, err
	}

	taken, err := s.repo.UsernameTaken(ctx, params.Username, uuid.Nil)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check username", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to check username")
		return uuid.Nil, fmt.Errorf("error creating user: %w", err)
	}
	if taken {
		l.WarnContext(ctx, "Username already exists")
		return uuid.Nil, types.ErrConflict
	}

	hash, err := s.hasher.Hash(params.Password)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to hash password")
		return uuid.Nil, err
	}

	// The unique index still guards against a concurrent create of the same username.
	id, err := s.repo.CreateUser(ctx, params, hash)
	if err != nil {
		if errors.Is(err, types.ErrConflict) {
			return uuid.Nil, err
		}
		l.ErrorContext(ctx, "Failed to create user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create user")
		return uuid.Nil, fmt.Errorf("error creating user: %w", err)
	}

	l.InfoContext(ctx, "User created", slog.String("userID", id.String()))
	span.SetStatus(codes.Ok, "User created")
	return id, nil
}

// UpdateUser overwrites username, name, email, role and status. The password is untouched.
func (s *UserServiceImpl) UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) error {
	l := s.logger.With(slog.String("method", "UpdateUser"), slog.String("userID", userID.String()))

	params.Normalize()
	if err := params.Validate(); err != nil {
		return err
	}

	taken, err := s.repo.UsernameTaken(ctx, params.Username, userID)
	if err != nil {
		l.ErrorContext(ctx, "Failed to check username", slog.Any("error", err))
		return fmt.Errorf("error updating user: %w", err)
	}
	if taken {
		return types.ErrConflict
	}

	if err := s.repo.UpdateUser(ctx, userID, params); err != nil {
		if !errors.Is(err, types.ErrConflict) && !errors.Is(err, types.ErrNotFound) {
			l.ErrorContext(ctx, "Failed to update user", slog.Any("error", err))
		}
		return fmt.Errorf("error updating user: %w", err)
	}

	l.InfoContext(ctx, "User updated")
	return nil
}

// DeleteUser removes an account. Callers cannot delete themselves; the
// deleted user's archives stay in place.
func (s *UserServiceImpl) DeleteUser(ctx context.Context, caller types.Identity, userID uuid.UUID) error {
	l := s.logger.With(slog.String("method", "DeleteUser"), slog.String("userID", userID.String()))

	if caller.ID == userID {
		return fmt.Errorf("%w: cannot delete your own account", types.ErrInvalidOperation)
	}

	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			l.ErrorContext(ctx, "Failed to delete user", slog.Any("error", err))
		}
		return fmt.Errorf("error deleting user: %w", err)
	}

	l.InfoContext(ctx, "User deleted", slog.String("by", caller.ID.String()))
	return nil
}

func (s *UserServiceImpl) GetProfile(ctx context.Context, identity types.Identity) (*types.User, error) {
	user, err := s.repo.GetUserByID(ctx, identity.ID)
	if err != nil {
		if !errors.Is(err, types.ErrNotFound) {
			s.logger.ErrorContext(ctx, "Failed to fetch profile",
				slog.String("userID", identity.ID.String()), slog.Any("error", err))
		}
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile changes the caller's name and email. A new password is only
// stored when the current one verifies.
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, identity types.Identity, params types.UpdateProfileParams) error {
	ctx, span := otel.Tracer("UserService").Start(ctx, "UpdateProfile", trace.WithAttributes(
		attribute.String("user.id", identity.ID.String()),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "UpdateProfile"), slog.String("userID", identity.ID.String()))

	params.Normalize()
	if err := params.Validate(); err != nil {
		return err
	}

	var newHash *string
	if params.NewPassword != "" {
		if params.CurrentPassword == "" {
			return types.ErrInvalidCredentials
		}
		user, err := s.repo.GetUserByID(ctx, identity.ID)
		if err != nil {
			return fmt.Errorf("error updating user profile: %w", err)
		}
		if err := s.hasher.Compare(user.PasswordHash, params.CurrentPassword); err != nil {
			l.WarnContext(ctx, "Current password mismatch")
			return err
		}
		hash, err := s.hasher.Hash(params.NewPassword)
		if err != nil {
			return err
		}
		newHash = &hash
	}

	if err := s.repo.UpdateProfile(ctx, identity.ID, params.Name, params.Email, newHash); err != nil {
		l.ErrorContext(ctx, "Failed to update user profile", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update user profile")
		return fmt.Errorf("error updating user profile: %w", err)
	}

	l.InfoContext(ctx, "User profile updated", slog.Bool("password_changed", newHash != nil))
	span.SetStatus(codes.Ok, "User profile updated")
	return nil
}

// EnsureAdmin reports whether it created the account.
func (s *UserServiceImpl) EnsureAdmin(ctx context.Context, params types.CreateUserParams) (bool, error) {
	params.Role = types.RoleAdmin
	_, err := s.CreateUser(ctx, params)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, types.ErrConflict):
		s.logger.DebugContext(ctx, "Admin account already present", slog.String("username", params.Username))
		return false, nil
	default:
		return false, err
	}
}
