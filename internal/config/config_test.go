package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			} else {
				os.Unsetenv(k)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	unsetEnv(t, EnvServerURL, EnvEngineURL, EnvDB)

	tests := []struct {
		name     string
		content  string
		validate func(*testing.T, *Config, string)
		wantErr  bool
	}{
		{
			name: "NewFile_Defaults",
			validate: func(t *testing.T, cfg *Config, path string) {
				assert.Equal(t, BackendServer, cfg.Store.Backend)
				assert.Equal(t, 240, cfg.Editor.ViewportHeight)
				assert.Equal(t, Duration(30*time.Second), cfg.Server.Timeout)

				content, err := os.ReadFile(path)
				require.NoError(t, err)
				assert.Contains(t, string(content), "# storytrack configuration")
				assert.Contains(t, string(content), "timeout: 30s")
			},
		},
		{
			name:    "ExistingFile_Override",
			content: "store:\n  backend: local\ndb:\n  path: /tmp/x.sqlite\nserver:\n  timeout: 5s\neditor:\n  viewport_height: 400\n",
			validate: func(t *testing.T, cfg *Config, _ string) {
				assert.Equal(t, BackendLocal, cfg.Store.Backend)
				assert.Equal(t, "/tmp/x.sqlite", cfg.DB.Path)
				assert.Equal(t, Duration(5*time.Second), cfg.Server.Timeout)
				assert.Equal(t, 400, cfg.Editor.ViewportHeight)
				assert.Equal(t, 50.0, cfg.Editor.PixelsPerSecond, "unset keys keep defaults")
			},
		},
		{
			name:    "InvalidBackend",
			content: "store:\n  backend: ftp\n",
			wantErr: true,
		},
		{
			name:    "BadDuration",
			content: "server:\n  timeout: soon\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", "config.yaml")
			if tt.content != "" {
				require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
				require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))
			}
			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, cfg, path)
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvServerURL, "http://voice.local:9000")
	t.Setenv(EnvEngineURL, "ws://engine.local/ws")
	t.Setenv(EnvDB, "/data/stories.sqlite")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://voice.local:9000", cfg.Server.URL)
	assert.Equal(t, "ws://engine.local/ws", cfg.Engine.URL)
	assert.Equal(t, "/data/stories.sqlite", cfg.DB.Path)
	assert.Equal(t, BackendLocal, cfg.Store.Backend, "STORYTRACK_DB selects the local store")
}

func TestLoadEnvFile(t *testing.T) {
	unsetEnv(t, EnvEngineURL)
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte(EnvEngineURL+"=ws://from-dotenv/ws\n"), 0o644))

	LoadEnv(envPath, filepath.Join(t.TempDir(), "missing.env"))

	cfg := DefaultConfig()
	ApplyEnv(cfg)
	assert.Equal(t, "ws://from-dotenv/ws", cfg.Engine.URL)
}
