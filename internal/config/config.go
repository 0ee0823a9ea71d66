// Package config loads storytrack settings from YAML, .env files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Backends for the story store.
const (
	BackendServer = "server"
	BackendLocal  = "local"
)

// Environment overrides.
const (
	EnvServerURL = "STORYTRACK_SERVER_URL"
	EnvEngineURL = "STORYTRACK_ENGINE_URL"
	EnvDB        = "STORYTRACK_DB"
)

// Config holds the application configuration.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	DB     DBConfig     `yaml:"db"`
	Editor EditorConfig `yaml:"editor"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig selects where stories live.
type StoreConfig struct {
	Backend string `yaml:"backend"` // "server", "local"
}

// ServerConfig holds the voice server connection.
type ServerConfig struct {
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout"`
}

// EngineConfig holds the playback engine connection. An empty URL runs the
// built-in clock.
type EngineConfig struct {
	URL string `yaml:"url"`
}

// DBConfig holds the local store location.
type DBConfig struct {
	Path string `yaml:"path"`
}

// EditorConfig holds initial editor layout.
type EditorConfig struct {
	ViewportHeight  int     `yaml:"viewport_height"`
	PixelsPerSecond float64 `yaml:"pixels_per_second"`
}

// LogConfig holds log file settings.
type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// Duration is a time.Duration written as "30s" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Dir returns the configuration directory.
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "storytrack")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Store: StoreConfig{Backend: BackendServer},
		Server: ServerConfig{
			URL:     "http://127.0.0.1:17493",
			Timeout: Duration(30 * time.Second),
		},
		DB: DBConfig{
			Path: filepath.Join(home, ".local", "share", "storytrack", "stories.sqlite"),
		},
		Editor: EditorConfig{
			ViewportHeight:  240,
			PixelsPerSecond: 50,
		},
		Log: LogConfig{
			Path:  filepath.Join(Dir(), "storytrack.log"),
			Level: "INFO",
		},
	}
}

// Load reads the configuration at path, creating it with defaults if it does
// not exist. Environment overrides are applied after the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := Save(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to save config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	ApplyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; existing variables win.
func LoadEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env", filepath.Join(Dir(), ".env")}
	}
	for _, p := range paths {
		_ = godotenv.Load(p)
	}
}

// ApplyEnv overrides file values with STORYTRACK_* variables.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvServerURL); v != "" {
		cfg.Server.URL = v
	}
	if v := os.Getenv(EnvEngineURL); v != "" {
		cfg.Engine.URL = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		cfg.DB.Path = v
		cfg.Store.Backend = BackendLocal
	}
}

// Validate checks values that cannot be clamped.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendServer:
		if c.Server.URL == "" {
			return fmt.Errorf("server.url is required for the %q backend", BackendServer)
		}
	case BackendLocal:
		if c.DB.Path == "" {
			return fmt.Errorf("db.path is required for the %q backend", BackendLocal)
		}
	default:
		return fmt.Errorf("invalid store.backend %q: must be %q or %q", c.Store.Backend, BackendServer, BackendLocal)
	}
	return nil
}

// Save writes the configuration to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# storytrack configuration
# store.backend: server (voice server API) or local (SQLite at db.path)
# engine.url: websocket of the playback engine; empty uses the built-in clock

`)
	data = append(header, data...)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
