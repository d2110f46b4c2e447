package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "wg0", cfg.Interface)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "token", cfg.AuthMode)
	assert.Equal(t, "file", cfg.RegistryBackend)
	assert.Equal(t, 3*time.Second, cfg.CommandTimeout)
	assert.True(t, cfg.PersistKeys)
	assert.Equal(t, 25, cfg.Keepalive)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("WG_INTERFACE", "wg7")
	t.Setenv("WG_SUBNET", "10.66.0.1/16")
	t.Setenv("WG_COMMAND_TIMEOUT", "750ms")
	t.Setenv("PERSIST_PRIVATE_KEYS", "false")
	t.Setenv("PEER_KEEPALIVE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "wg7", cfg.Interface)
	assert.Equal(t, "10.66.0.1/16", cfg.Subnet)
	assert.Equal(t, 750*time.Millisecond, cfg.CommandTimeout)
	assert.False(t, cfg.PersistKeys)
	assert.Equal(t, 0, cfg.Keepalive)
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("AUTH_MODE", "basic")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("AUTH_MODE", "token")
	t.Setenv("REGISTRY_BACKEND", "etcd")
	_, err = Load()
	require.Error(t, err)

	t.Setenv("REGISTRY_BACKEND", "file")
	t.Setenv("WG_COMMAND_TIMEOUT", "fast")
	_, err = Load()
	require.Error(t, err)
}
