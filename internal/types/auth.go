package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Username string `json:"username" example:"admin"`
	Password string `json:"password" example:"password123"`
}

func (r LoginRequest) Validate() error {
	if err := requireField("username", r.Username); err != nil {
		return err
	}
	return requireField("password", r.Password)
}

// LoginResponse carries the bearer token and the public user projection.
type LoginResponse struct {
	Token string     `json:"token" example:"eyJhbGciOiJI..."`
	User  PublicUser `json:"user"`
}

// Claims are the custom claims of the session token.
type Claims struct {
	UserID   string `json:"uid"`
	Username string `json:"usr"`
	Role     Role   `json:"rol"`
	jwt.RegisteredClaims
}
