package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", base64.StdEncoding.EncodeToString([]byte("secret")))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8086", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []byte("secret"), cfg.SigningKey)
	assert.Equal(t, 5*time.Second, cfg.TypingWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", base64.StdEncoding.EncodeToString([]byte("secret")))
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("TYPING_WINDOW", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 2*time.Second, cfg.TypingWindow)
}

func TestLoadMissingSigningKey(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadBadSigningKey(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", "%%%not-base64%%%")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadBadTypingWindow(t *testing.T) {
	t.Setenv("AUTH_SIGNING_KEY", base64.StdEncoding.EncodeToString([]byte("secret")))
	t.Setenv("TYPING_WINDOW", "not-a-duration")

	_, err := Load()
	require.Error(t, err)
}
