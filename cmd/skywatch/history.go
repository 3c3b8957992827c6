package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/filter"
)

var historyOpts struct {
	match []string
	since time.Duration
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List files generated by past analyses",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	f := historyCmd.Flags()
	f.StringSliceVar(&historyOpts.match, "match", nil, "only files whose name contains one of these keywords")
	f.DurationVar(&historyOpts.since, "since", 0, "only files created within this duration, e.g. 72h")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	a := setupApp(logger)
	defer a.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()
	entries, err := a.client.History(ctx)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	var since time.Time
	if historyOpts.since > 0 {
		since = time.Now().Add(-historyOpts.since)
	}
	entries = filter.Apply(filter.NewKeywordSinceFilter(historyOpts.match, since), entries)
	renderHistory(cmd.OutOrStdout(), entries)
	return nil
}
