package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

func (s UserStatus) Valid() bool {
	return s == UserStatusActive || s == UserStatusInactive
}

// User is a row of the users table. PasswordHash never leaves the server.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Identity is the authenticated caller as carried by a session token.
type Identity struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     Role      `json:"role"`
}

// PublicUser is the login projection of a user.
type PublicUser struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Role     Role      `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Username: u.Username, Role: u.Role}
}

// CreateUserParams is the admin "create user" input.
type CreateUserParams struct {
	Username string `json:"username" example:"operator1"`
	Name     string `json:"name" example:"Budi Santoso"`
	Email    string `json:"email" example:"budi@example.com"`
	Password string `json:"password" example:"s3cret-pass"`
	Role     Role   `json:"role" example:"user"`
}

func (p *CreateUserParams) Normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
}

func (p CreateUserParams) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"username", p.Username},
		{"name", p.Name},
		{"email", p.Email},
		{"password", p.Password},
		{"role", string(p.Role)},
	} {
		if err := requireField(f.name, f.value); err != nil {
			return err
		}
	}
	if !p.Role.Valid() {
		return NewValidationError("role", "must be admin or user")
	}
	return nil
}

// UpdateUserParams overwrites every listed field; the password is not touched.
type UpdateUserParams struct {
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Role     Role       `json:"role"`
	Status   UserStatus `json:"status"`
}

func (p *UpdateUserParams) Normalize() {
	p.Username = strings.TrimSpace(p.Username)
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
}

func (p UpdateUserParams) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"username", p.Username},
		{"name", p.Name},
		{"email", p.Email},
		{"role", string(p.Role)},
		{"status", string(p.Status)},
	} {
		if err := requireField(f.name, f.value); err != nil {
			return err
		}
	}
	if !p.Role.Valid() {
		return NewValidationError("role", "must be admin or user")
	}
	if !p.Status.Valid() {
		return NewValidationError("status", "must be active or inactive")
	}
	return nil
}

// UpdateProfileParams is the self-service profile update.
// NewPassword is optional; when set, CurrentPassword must verify.
type UpdateProfileParams struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
}

func (p *UpdateProfileParams) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
}

func (p UpdateProfileParams) Validate() error {
	if err := requireField("name", p.Name); err != nil {
		return err
	}
	return requireField("email", p.Email)
}
