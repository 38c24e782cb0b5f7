package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("test-signing-key")

func signToken(t *testing.T, key []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestVerifyValidToken(t *testing.T) {
	v := NewJWTVerifier(testKey)

	token := signToken(t, testKey, jwt.MapClaims{
		"sub":      "user_2abc",
		"username": "alice",
		"name":     "Alice Smith",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	identity, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", identity.UserID)
	assert.Equal(t, "alice", identity.Username)
	assert.Equal(t, "Alice Smith", identity.DisplayName)
}

func TestVerifyClaimFallbacks(t *testing.T) {
	v := NewJWTVerifier(testKey)

	t.Run("missing name falls back to username", func(t *testing.T) {
		token := signToken(t, testKey, jwt.MapClaims{
			"sub":      "user_2abc",
			"username": "alice",
		})
		identity, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "alice", identity.DisplayName)
	})

	t.Run("missing username falls back to subject", func(t *testing.T) {
		token := signToken(t, testKey, jwt.MapClaims{"sub": "user_2abc"})
		identity, err := v.Verify(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "user_2abc", identity.Username)
		assert.Equal(t, "user_2abc", identity.DisplayName)
	})
}

func TestVerifyRejectsInvalidTokens(t *testing.T) {
	v := NewJWTVerifier(testKey)

	tests := []struct {
		name  string
		token string
	}{
		{"empty token", ""},
		{"garbage token", "not-a-jwt"},
		{"wrong key", signToken(t, []byte("other-key"), jwt.MapClaims{"sub": "user_2abc"})},
		{"missing subject", signToken(t, testKey, jwt.MapClaims{"username": "alice"})},
		{"expired", signToken(t, testKey, jwt.MapClaims{
			"sub": "user_2abc",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tc.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
