package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resultsOpts struct {
	kind   string
	output string
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the last stored result",
	Args:  cobra.NoArgs,
	RunE:  runResults,
}

func init() {
	f := resultsCmd.Flags()
	f.StringVar(&resultsOpts.kind, "kind", "analysis", "job kind: analysis or prediction")
	f.StringVarP(&resultsOpts.output, "output", "o", outputTable, "result format: table or json")
	rootCmd.AddCommand(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	kind, err := parseKind(resultsOpts.kind)
	if err != nil {
		return err
	}
	if err := validOutput(resultsOpts.output); err != nil {
		return err
	}

	a := setupApp(logger)
	defer a.close()

	res, ok, err := a.session.LastResult(kind)
	if err != nil {
		return fmt.Errorf("read last %s: %w", kind, err)
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintf(out, "No stored %s result yet.\n", kind)
		return nil
	}
	fmt.Fprintf(out, "Job %s, saved %s\n\n", res.JobID, res.SavedAt.Local().Format("2006-01-02 15:04"))
	return renderResult(out, kind, res.Result, resultsOpts.output, a.client.FileURL)
}
