package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/poller"
)

var analyzeOpts struct {
	start    string
	end      string
	ai       bool
	detach   bool
	output   string
	download string
	notify   bool
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a weather analysis and follow it to completion",
	Long:  "Starts a weather analysis for a date range (default: the last 30 days), polls its progress and renders the result.",
	Args:  cobra.NoArgs,
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeOpts.start, "start", "", "start date YYYY-MM-DD")
	f.StringVar(&analyzeOpts.end, "end", "", "end date YYYY-MM-DD")
	f.BoolVar(&analyzeOpts.ai, "ai", true, "include the AI risk assessment")
	f.BoolVar(&analyzeOpts.detach, "detach", false, "print the job id and exit without polling")
	f.StringVarP(&analyzeOpts.output, "output", "o", outputTable, "result format: table or json")
	f.StringVar(&analyzeOpts.download, "download", "", "download generated files into this directory")
	f.BoolVar(&analyzeOpts.notify, "notify", false, "send a notification when the job finishes")
	rootCmd.AddCommand(analyzeCmd)
}

// resolveRange applies the defaults for missing dates: the range ends today
// and spans 30 days.
func resolveRange(start, end string, now time.Time) (model.DateRange, error) {
	def := model.DefaultAnalysisRange(now)
	if start == "" {
		start = def.StartString()
	}
	if end == "" {
		end = def.EndString()
	}
	return model.ParseDateRange(start, end)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	if err := validOutput(analyzeOpts.output); err != nil {
		return err
	}
	r, err := resolveRange(analyzeOpts.start, analyzeOpts.end, time.Now())
	if err != nil {
		return err
	}

	a := setupApp(logger)
	defer a.close()

	req := model.AnalysisRequest{StartDate: r.StartString(), EndDate: r.EndString(), IncludeAI: analyzeOpts.ai}
	return a.runJob(cmd, model.KindAnalysis, func(ctx context.Context) (string, error) {
		return a.client.StartAnalysis(ctx, req)
	}, jobOptions{
		detach:   analyzeOpts.detach,
		output:   analyzeOpts.output,
		download: analyzeOpts.download,
		notify:   analyzeOpts.notify,
	})
}

type jobOptions struct {
	detach   bool
	output   string
	download string
	notify   bool
}

// runJob starts a job (when start is non-nil) and follows it until a terminal
// state or SIGINT. A failed job exits 1; an interrupted one exits 0.
func (a *app) runJob(cmd *cobra.Command, kind model.JobKind, start func(ctx context.Context) (string, error), opts jobOptions) error {
	out := cmd.OutOrStdout()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, a.cfg.Backend.Timeout)
	id, err := start(startCtx)
	cancel()
	if err != nil {
		a.logger.Error("failed to start job", "kind", kind, "error", err)
		a.close()
		os.Exit(1)
	}
	a.logger.Info("job started", "kind", kind, "job_id", id)

	if opts.detach {
		fmt.Fprintln(out, id)
		return nil
	}
	return a.followAndReport(ctx, out, kind, id, opts)
}

func (a *app) followAndReport(ctx context.Context, out io.Writer, kind model.JobKind, id string, opts jobOptions) error {
	run, err := a.follow(ctx, kind, id, out)
	if err != nil {
		return err
	}
	a.finishJob(run, opts.notify)
	printOutcome(out, run)

	switch run.state {
	case poller.StateCompleted:
		if err := renderResult(out, kind, run.result, opts.output, a.client.FileURL); err != nil {
			return err
		}
		if opts.download != "" && kind == model.KindAnalysis {
			// ctx may be cancelled by now; downloads get their own.
			dctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := a.downloadFiles(dctx, out, run.result, opts.download); err != nil {
				return err
			}
		}
		return nil
	case poller.StateFailed:
		a.close()
		os.Exit(1)
	}
	return nil
}

// downloadFiles saves every generated file of an analysis result into dir.
func (a *app) downloadFiles(ctx context.Context, out io.Writer, raw json.RawMessage, dir string) error {
	var res model.AnalysisResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return fmt.Errorf("decode analysis result: %w", err)
	}
	files := res.Summary.Files()
	if res.OutputFile != "" {
		files = append(files, res.OutputFile)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}
	for _, f := range files {
		dst := filepath.Join(dir, filepath.Base(f))
		n, err := a.downloadFile(ctx, f, dst)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "downloaded %s (%d bytes)\n", dst, n)
	}
	return nil
}

func (a *app) downloadFile(ctx context.Context, src, dst string) (int64, error) {
	fh, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}
	n, err := a.client.DownloadFile(ctx, src, fh)
	if cerr := fh.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return 0, err
	}
	return n, nil
}
