package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultAIDelay, cfg.AIDelay)
	assert.Equal(t, DefaultTokenTTL, cfg.TokenTTL)
	assert.Equal(t, "localhost:5000", cfg.Addr())
	assert.False(t, cfg.AuthEnabled())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
host: 0.0.0.0
port: 9090
aiDelay: 250ms
databasePath: /tmp/games.db
jwtSecret: s3cret
allowedOrigins:
  - https://example.com
ngrok:
  enabled: true
  domain: play.example.com
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.AIDelay)
	assert.Equal(t, "/tmp/games.db", cfg.DatabasePath)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, []string{"https://example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Ngrok.Enabled)
	assert.Equal(t, "play.example.com", cfg.Ngrok.Domain)
	assert.Equal(t, DefaultTokenTTL, cfg.TokenTTL, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "port: 9090\njwtSecret: from-file\n")
	t.Setenv("PORT", "7070")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test,https://b.test")
	t.Setenv("AI_DELAY", "1s")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.AllowedOrigins)
	assert.Equal(t, time.Second, cfg.AIDelay)
}

func TestLoad_NgrokTokenFallback(t *testing.T) {
	t.Setenv("NGROK_AUTH_TOKEN", "tok")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.Ngrok.AuthToken)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    func(t *testing.T) string
		env     map[string]string
		wantErr error
	}{
		{
			name:    "missing file",
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.yaml") },
			wantErr: ErrConfigNotFound,
		},
		{
			name:    "malformed yaml",
			path:    func(t *testing.T) string { return writeConfig(t, "port: [1, 2") },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "port out of range",
			path:    func(t *testing.T) string { return writeConfig(t, "port: 70000") },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "negative delay",
			path:    func(t *testing.T) string { return "" },
			env:     map[string]string{"AI_DELAY": "-1s"},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(tt.path(t))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("bad env value", func(t *testing.T) {
		t.Setenv("PORT", "not-a-number")
		_, err := Load("")
		assert.Error(t, err)
	})
}

func TestLoadFile(t *testing.T) {
	t.Run("ignores environment", func(t *testing.T) {
		t.Setenv("PORT", "7070")
		cfg, err := LoadFile(writeConfig(t, "port: 9090\n"))
		require.NoError(t, err)
		assert.Equal(t, 9090, cfg.Port)
	})

	t.Run("empty file keeps defaults", func(t *testing.T) {
		cfg, err := LoadFile(writeConfig(t, ""))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := LoadFile(writeConfig(t, "prot: 9090\n"))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}
