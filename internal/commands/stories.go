package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/jwulff/storytrack/internal/story"
	"github.com/jwulff/storytrack/internal/timeline"
)

const cliTimeout = 30 * time.Second

func addStories(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "stories",
		Short: "list stories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()
			sums, err := store.ListStories(ctx)
			if err != nil {
				return err
			}
			printStories(color.Output, sums)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func addShow(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:   "show <story-id>",
		Short: "print a story's timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ro.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()
			st, err := store.GetStory(ctx, args[0])
			if err != nil {
				return err
			}
			printStory(color.Output, st)
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

func printStories(w io.Writer, sums []story.Summary) {
	if len(sums) == 0 {
		fmt.Fprintln(w, "No stories.")
		return
	}
	bold := color.New(color.Bold)
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Name"), bold.Sprint("Items"))
	for _, s := range sums {
		tbl.AddRow(s.ID, s.Name, s.ItemCount)
	}
	fmt.Fprintln(w, tbl)
}

func printStory(w io.Writer, st story.Story) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	fmt.Fprintf(w, "%s  %s\n", bold.Sprint(st.Name), dim.Sprintf("%s · %s total", st.ID,
		timeline.FormatTime(float64(timeline.TotalDuration(st.Items)))))
	if st.Description != "" {
		fmt.Fprintln(w, st.Description)
	}
	fmt.Fprintln(w)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 50
	tbl.Wrap = true
	tbl.AddRow(bold.Sprint("Start"), bold.Sprint("End"), bold.Sprint("Track"), bold.Sprint("Generation"), bold.Sprint("Profile"), bold.Sprint("Text"))
	for _, it := range story.Sorted(st.Items) {
		tbl.AddRow(
			timeline.FormatTime(float64(it.StartTimeMs)),
			timeline.FormatTime(it.EndMs()),
			fmt.Sprintf("%+d", it.Track),
			it.GenerationID,
			it.ProfileName,
			it.Text,
		)
	}
	fmt.Fprintln(w, tbl)
}
