package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	database "github.com/FACorreiaa/sidara-archive/app/db"
	"github.com/FACorreiaa/sidara-archive/internal/types"
)

var _ UserRepo = (*PostgresUserRepo)(nil)

// UserRepo defines the contract for user account persistence.
type UserRepo interface {
	// ListUsers returns every account, newest first.
	ListUsers(ctx context.Context) ([]types.User, error)
	// GetUserByID returns types.ErrNotFound if the user doesn't exist.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error)
	// UsernameTaken reports whether username belongs to an account other than excludeID.
	UsernameTaken(ctx context.Context, username string, excludeID uuid.UUID) (bool, error)
	// CreateUser stores an active account. A duplicate username yields types.ErrConflict.
	CreateUser(ctx context.Context, params types.CreateUserParams, passwordHash string) (uuid.UUID, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) error
	DeleteUser(ctx context.Context, userID uuid.UUID) error
	// UpdateProfile changes name and email, and the password hash when non-nil.
	UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string, passwordHash *string) error
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool database.DB
}

func NewPostgresUserRepo(pgpool database.DB, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const selectUsers = `
	SELECT id, username, name, email, password_hash, role, status, created_at, last_login
	FROM users`

func (r *PostgresUserRepo) ListUsers(ctx context.Context) ([]types.User, error) {
	rows, err := r.pgpool.Query(ctx, selectUsers+`
	ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	users := []types.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	user, err := scanUser(r.pgpool.QueryRow(ctx, selectUsers+`
	WHERE id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (r *PostgresUserRepo) UsernameTaken(ctx context.Context, username string, excludeID uuid.UUID) (bool, error) {
	var taken bool
	err := r.pgpool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id <> $2)`,
		username, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("error checking username: %w", err)
	}
	return taken, nil
}

func (r *PostgresUserRepo) CreateUser(ctx context.Context, params types.CreateUserParams, passwordHash string) (uuid.UUID, error) {
	query := `
		INSERT INTO users (username, name, email, password_hash, role, status)
		VALUES ($1, $2, $3, $4, $5, 'active')
		RETURNING id`
	var id uuid.UUID
	err := r.pgpool.QueryRow(ctx, query,
		params.Username, params.Name, params.Email, passwordHash, params.Role,
	).Scan(&id)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uuid.Nil, types.ErrConflict
		}
		return uuid.Nil, fmt.Errorf("error inserting user: %w", err)
	}
	return id, nil
}

func (r *PostgresUserRepo) UpdateUser(ctx context.Context, userID uuid.UUID, params types.UpdateUserParams) error {
	query := `
		UPDATE users
		SET username = $1, name = $2, email = $3, role = $4, status = $5
		WHERE id = $6`
	tag, err := r.pgpool.Exec(ctx, query,
		params.Username, params.Name, params.Email, params.Role, params.Status, userID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return types.ErrConflict
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	tag, err := r.pgpool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func (r *PostgresUserRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, name, email string, passwordHash *string) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = COALESCE($3::text, password_hash)
		WHERE id = $4`
	tag, err := r.pgpool.Exec(ctx, query, name, email, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("error updating profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return types.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*types.User, error) {
	var user types.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return &user, nil
}
