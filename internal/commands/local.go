package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jwulff/storytrack/internal/mixdown"
	"github.com/jwulff/storytrack/internal/story"
)

func addNew(topLevel *cobra.Command, ro *rootOptions) {
	var description string

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "create an empty story in the local database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			store, err := openLocal(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()
			st, err := store.CreateStory(ctx, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(color.Output, "%s %s %s\n", color.GreenString("Created"), st.Name, color.New(color.Faint).Sprint(st.ID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "story description")
	topLevel.AddCommand(cmd)
}

func addImport(topLevel *cobra.Command, ro *rootOptions) {
	var (
		id      string
		profile string
		text    string
		storyID string
	)

	cmd := &cobra.Command{
		Use:   "import <audio-file>",
		Short: "register a WAV or MP3 generation in the local database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			seconds, err := mixdown.Duration(path)
			if err != nil {
				return err
			}

			store, err := openLocal(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()
			g, err := store.ImportGeneration(ctx, story.Generation{
				ID:          id,
				ProfileName: profile,
				Text:        text,
				Duration:    seconds,
			}, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(color.Output, "%s %s (%.1fs)\n", color.GreenString("Imported"), g.ID, g.Duration)

			if storyID == "" {
				return nil
			}
			st, err := store.AddItem(ctx, storyID, g.ID)
			if err != nil {
				return fmt.Errorf("failed to add generation: %w", err)
			}
			it, _ := st.Find(g.ID)
			fmt.Fprintf(color.Output, "%s to %s at %.1fs\n", color.GreenString("Added"), st.Name, float64(it.StartTimeMs)/1000)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "generation id (default: random)")
	cmd.Flags().StringVar(&profile, "profile", "", "voice profile name")
	cmd.Flags().StringVar(&text, "text", "", "spoken text")
	cmd.Flags().StringVar(&storyID, "story", "", "append the generation to this story")
	topLevel.AddCommand(cmd)
}
