package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenLifetime = 7 * 24 * time.Hour

// Identity is the verified caller, established once per request by the
// middleware and immutable afterwards.
type Identity struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

type claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

var errInvalidToken = errors.New("invalid token")

// GenerateToken signs a 7-day HS256 token carrying the user's id and email.
func GenerateToken(secret []byte, userID, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	})
	return token.SignedString(secret)
}

// VerifyToken checks signature and expiry and returns the embedded
// identity. Any failure is terminal for the request, no retries.
func VerifyToken(secret []byte, tokenStr string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, errInvalidToken
	}
	if c.UserID == "" || c.Email == "" {
		return Identity{}, errInvalidToken
	}
	return Identity{UserID: c.UserID, Email: c.Email}, nil
}
