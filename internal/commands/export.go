package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func addExport(topLevel *cobra.Command, ro *rootOptions) {
	var output string

	cmd := &cobra.Command{
		Use:   "export <story-id>",
		Short: "mix a story down to a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()
			data, err := store.ExportAudio(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to export story: %w", err)
			}
			path := output
			if path == "" {
				path = args[0] + ".wav"
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(color.Output, "%s %s (%d KB)\n", color.GreenString("Exported"), path, len(data)/1024)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <story-id>.wav)")
	topLevel.AddCommand(cmd)
}
