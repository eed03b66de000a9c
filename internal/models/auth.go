package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access token payload. Tokens are issued by importctl
// token or by the school's identity provider sharing the signing secret.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor identifies the caller in logs and audit rows.
func (c *JWTClaims) Actor() string {
	if c == nil {
		return ""
	}
	if c.Email != "" {
		return c.Email
	}
	return c.UserID
}
