package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated principal attached to a connection or request.
type Identity struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// TokenVerifier validates a bearer token against the identity provider.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Identity, error)
}

// JWTVerifier verifies HS256 tokens issued by the identity provider.
type JWTVerifier struct {
	key []byte
}

// NewJWTVerifier constructs a JWTVerifier with the provider's signing key.
func NewJWTVerifier(key []byte) *JWTVerifier {
	return &JWTVerifier{key: key}
}

// Verify parses and validates the token and extracts the identity claims.
// The subject claim is required; username and name fall back to the subject
// when the provider omits them.
func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (Identity, error) {
	if tokenString == "" {
		return Identity{}, ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	identity := Identity{UserID: sub, Username: sub, DisplayName: sub}
	if username, ok := claims["username"].(string); ok && username != "" {
		identity.Username = username
		identity.DisplayName = username
	}
	if name, ok := claims["name"].(string); ok && name != "" {
		identity.DisplayName = name
	}

	return identity, nil
}
