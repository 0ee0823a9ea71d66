// Package commands wires the storytrack CLI.
package commands

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jwulff/storytrack/internal/config"
	"github.com/jwulff/storytrack/internal/db"
	"github.com/jwulff/storytrack/internal/logging"
	"github.com/jwulff/storytrack/internal/server"
	"github.com/jwulff/storytrack/internal/story"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	serverURL  string
	dbPath     string
	logLevel   string
}

// New returns the root command. Run without a subcommand it opens the
// editor.
func New() *cobra.Command {
	ro := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "storytrack",
		Short:         "Arrange voice generations on a story timeline.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&ro.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	cmd.PersistentFlags().StringVar(&ro.serverURL, "server", "", "voice server URL; selects the server backend")
	cmd.PersistentFlags().StringVar(&ro.dbPath, "db", "", "local story database; selects the local backend")
	cmd.PersistentFlags().StringVar(&ro.logLevel, "log-level", "", "log level (DEBUG, INFO, WARN, ERROR)")

	addUI(cmd, ro)
	addStories(cmd, ro)
	addShow(cmd, ro)
	addExport(cmd, ro)
	addNew(cmd, ro)
	addImport(cmd, ro)
	addMCP(cmd, ro)
	return cmd
}

// load reads configuration and applies flag overrides. Flags win over the
// environment, which wins over the file.
func (ro *rootOptions) load() (*config.Config, error) {
	config.LoadEnv()
	path := ro.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(ro.serverURL); v != "" {
		cfg.Server.URL = v
		cfg.Store.Backend = config.BackendServer
	}
	if v := strings.TrimSpace(ro.dbPath); v != "" {
		cfg.DB.Path = v
		cfg.Store.Backend = config.BackendLocal
	}
	if ro.logLevel != "" {
		cfg.Log.Level = ro.logLevel
	}
	return cfg, cfg.Validate()
}

// openStore returns the configured story store and a func releasing it.
func openStore(cfg *config.Config) (story.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendLocal:
		s, err := db.Open(cfg.DB.Path)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using local story store", "path", cfg.DB.Path)
		return s, func() { s.Close() }, nil
	default:
		slog.Info("Using voice server", "url", cfg.Server.URL)
		return server.New(cfg.Server.URL, time.Duration(cfg.Server.Timeout)), func() {}, nil
	}
}

// openLocal opens the local database regardless of the configured backend.
func openLocal(cfg *config.Config) (*db.Store, error) {
	path := cfg.DB.Path
	if path == "" {
		path = db.DefaultDBPath()
	}
	return db.Open(path)
}

// withLogging starts file logging for the duration of a command.
func withLogging(cfg *config.Config) func() {
	cleanup, err := logging.Init(cfg.Log.Path, cfg.Log.Level)
	if err != nil {
		fmt.Printf("warning: logging disabled: %v\n", err)
		return func() {}
	}
	return cleanup
}
