package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("BIND", "")
	t.Setenv("DEV", "")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.False(t, cfg.Dev)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := Load([]string{"-bind", "127.0.0.1", "-port", "9000", "-dev"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.True(t, cfg.Dev)
}

func TestLoadEnvFallback(t *testing.T) {
	t.Setenv("PORT", "9100")
	t.Setenv("DEV", "1")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.True(t, cfg.Dev)
}

func TestLoadRejectsBadPort(t *testing.T) {
	_, err := Load([]string{"-port", "70000"})
	assert.Error(t, err)

	t.Setenv("PORT", "nope")
	_, err = Load(nil)
	assert.Error(t, err)
}
