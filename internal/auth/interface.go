package auth

import "github.com/golang-jwt/jwt/v5"

// Claims is the subset of bearer token claims the server relies on.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserID returns the token subject
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	// VerifyToken returns the claims of a valid token, or domain.ErrUnauthorized
	VerifyToken(tokenString string) (*Claims, error)

	Close() error
}
