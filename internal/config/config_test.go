package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCredentials(t *testing.T) {
	t.Helper()
	t.Setenv("SPOTIFY_CLIENT_ID", "id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setCredentials(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 5, cfg.Engine.TopN)
	assert.Equal(t, float64(5), cfg.Engine.BPMTolerance)
	assert.Equal(t, "crossfade.db", cfg.Storage.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "id", cfg.Spotify.ClientID)
	assert.Equal(t, "secret", cfg.Spotify.ClientSecret)
}

func TestLoadEnvOverrides(t *testing.T) {
	setCredentials(t)
	t.Setenv("CROSSFADE_SERVER_PORT", "9090")
	t.Setenv("CROSSFADE_ENGINE_BPM_TOLERANCE", "3")
	t.Setenv("CROSSFADE_ENGINE_TOP_N", "8")
	t.Setenv("CROSSFADE_LOGGING_LEVEL", "debug")
	t.Setenv("CROSSFADE_STORAGE_PATH", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, float64(3), cfg.Engine.BPMTolerance)
	assert.Equal(t, 8, cfg.Engine.TopN)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Empty(t, cfg.Storage.Path, "empty path disables the archive")
}

func TestLoadNamespacedCredentialsWin(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "bare-id")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "bare-secret")
	t.Setenv("CROSSFADE_SPOTIFY_CLIENT_ID", "namespaced-id")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "namespaced-id", cfg.Spotify.ClientID)
	assert.Equal(t, "bare-secret", cfg.Spotify.ClientSecret)
}

func TestLoadRequiresCredentials(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SPOTIFY_CLIENT_ID")
}

func TestEnvTransform(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "CROSSFADE_SERVER_PORT", want: "server.port"},
		{in: "CROSSFADE_ENGINE_BPM_TOLERANCE", want: "engine.bpm_tolerance"},
		{in: "CROSSFADE_SPOTIFY_CLIENT_ID", want: "spotify.client_id"},
		{in: "CROSSFADE_LOGGING_PRETTY", want: "logging.pretty"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, envTransform(tc.in), "input %q", tc.in)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Spotify.ClientID = "id"
		cfg.Spotify.ClientSecret = "secret"
		return cfg
	}

	t.Run("accepts defaults with credentials", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects invalid port", func(t *testing.T) {
		cfg := valid()
		cfg.Server.Port = -1
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects non-positive top n", func(t *testing.T) {
		cfg := valid()
		cfg.Engine.TopN = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects negative tolerance", func(t *testing.T) {
		cfg := valid()
		cfg.Engine.BPMTolerance = -1
		assert.Error(t, cfg.Validate())
	})
}
