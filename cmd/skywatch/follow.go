package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/model"
)

var followOpts struct {
	kind   string
	output string
	notify bool
}

var followCmd = &cobra.Command{
	Use:   "follow <job-id>",
	Short: "Attach to a running job and follow it to completion",
	Args:  cobra.ExactArgs(1),
	RunE:  runFollow,
}

func init() {
	f := followCmd.Flags()
	f.StringVar(&followOpts.kind, "kind", string(model.KindAnalysis), "job kind: analysis or prediction")
	f.StringVarP(&followOpts.output, "output", "o", outputTable, "result format: table or json")
	f.BoolVar(&followOpts.notify, "notify", false, "send a notification when the job finishes")
	rootCmd.AddCommand(followCmd)
}

func parseKind(s string) (model.JobKind, error) {
	kind := model.JobKind(s)
	if !kind.Valid() {
		return "", fmt.Errorf("unknown job kind %q (want %s or %s)", s, model.KindAnalysis, model.KindPrediction)
	}
	return kind, nil
}

func runFollow(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	kind, err := parseKind(followOpts.kind)
	if err != nil {
		return err
	}
	if err := validOutput(followOpts.output); err != nil {
		return err
	}

	a := setupApp(logger)
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return a.followAndReport(ctx, cmd.OutOrStdout(), kind, args[0], jobOptions{
		output: followOpts.output,
		notify: followOpts.notify,
	})
}
