package commands

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jwulff/storytrack/internal/app"
	"github.com/jwulff/storytrack/internal/layout"
	"github.com/jwulff/storytrack/internal/playback"
)

func addUI(topLevel *cobra.Command, ro *rootOptions) {
	var (
		storyID   string
		engineURL string
		exportDir string
	)

	run := func(cmd *cobra.Command, args []string) error {
		cfg, err := ro.load()
		if err != nil {
			return err
		}
		defer withLogging(cfg)()

		store, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		if engineURL == "" {
			engineURL = cfg.Engine.URL
		}
		m := app.New(app.Options{
			Store: store,
			Shared: app.Shared{
				Height:   layout.NewHeight(cfg.Editor.ViewportHeight),
				Playback: playback.NewState(),
			},
			EngineURL:       engineURL,
			StoryID:         storyID,
			PixelsPerSecond: cfg.Editor.PixelsPerSecond,
			ExportDir:       exportDir,
		})

		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
		final, err := p.Run()
		if err != nil {
			return fmt.Errorf("run editor: %w", err)
		}
		if fm, ok := final.(app.Model); ok {
			fm.Close()
		}
		return nil
	}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "open the story editor",
		Args:  cobra.NoArgs,
		RunE:  run,
	}
	for _, c := range []*cobra.Command{topLevel, cmd} {
		c.Flags().StringVar(&storyID, "story", "", "story to open first")
		c.Flags().StringVar(&engineURL, "engine", "", "playback engine websocket URL")
		c.Flags().StringVar(&exportDir, "export-dir", ".", "directory for exported audio")
	}
	topLevel.RunE = run
	topLevel.AddCommand(cmd)
}
