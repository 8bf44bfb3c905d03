package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCarConfigAppliesTestingProfile(t *testing.T) {
	t.Setenv("ENV", "testing")

	cfg, err := InitCarConfig()
	require.NoError(t, err)
	assert.Equal(t, "WARN", cfg.LogLevel)
	assert.Less(t, cfg.IdleTimeout.Milliseconds(), int64(50))
}

func TestInitCarConfigRejectsEmptyDispatcherAddr(t *testing.T) {
	t.Setenv("DISPATCHER_ADDR", "")

	_, err := InitCarConfig()
	require.Error(t, err)
}

func TestSocketPath(t *testing.T) {
	assert.Equal(t, "/tmp/elevator-car-A.sock", SocketPath("/tmp", "A"))
}

func TestInitDispatcherConfigDefaultsToLocalhost3000(t *testing.T) {
	for _, key := range []string{"ENV", "DISPATCHER_LISTEN_ADDR"} {
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := InitDispatcherConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3000", cfg.ListenAddr)
}
