// Package utils holds token helpers shared by the auth middleware and its
// callers.  Tokens are issued by the account service; NewAccessToken
// backs cmd/token and the HTTP tests.
package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// NewAccessToken signs an HS256 JWT whose subject is the user id and
// whose "role" claim carries the role name.
func NewAccessToken(secret string, userID uuid.UUID, role string, ttl time.Duration) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, roleClaims{RegisteredClaims: claims, Role: role})
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

type roleClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}
