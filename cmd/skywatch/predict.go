package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/skywatch/internal/model"
)

var predictOpts struct {
	timeframe string
	start     string
	end       string
	query     string
	detach    bool
	output    string
	notify    bool
}

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Run a personalized prediction for the saved profile",
	Long: "Starts a personalized prediction using the saved profile and follows it to completion.\n" +
		"The timeframe defaults to the profile's preference; --start/--end select a custom range.",
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	f := predictCmd.Flags()
	f.StringVar(&predictOpts.timeframe, "timeframe", "", "3days, 7days, 14days, 30days or custom (default: profile preference or 7days)")
	f.StringVar(&predictOpts.start, "start", "", "start date YYYY-MM-DD (custom timeframe)")
	f.StringVar(&predictOpts.end, "end", "", "end date YYYY-MM-DD (custom timeframe)")
	f.StringVarP(&predictOpts.query, "query", "q", "", "optional question for the prediction")
	f.BoolVar(&predictOpts.detach, "detach", false, "print the job id and exit without polling")
	f.StringVarP(&predictOpts.output, "output", "o", outputTable, "result format: table or json")
	f.BoolVar(&predictOpts.notify, "notify", false, "send a notification when the job finishes")
	rootCmd.AddCommand(predictCmd)
}

var errNoProfile = errors.New("no profile saved; create one with `skywatch profile set` or `skywatch onboard`")

// predictionRequest builds the request body from the profile and the
// timeframe flags. Explicit dates imply the custom timeframe.
func predictionRequest(p model.UserProfile, timeframe, start, end, query string, now time.Time) (model.PredictionRequest, error) {
	if timeframe == "" {
		timeframe = p.PredictionPreferences.DefaultTimeframe
	}
	if start != "" || end != "" {
		timeframe = model.TimeframeCustom
	}
	if timeframe == "" {
		timeframe = model.Timeframe7Days
	}

	var (
		r   model.DateRange
		err error
	)
	if timeframe == model.TimeframeCustom {
		if start == "" || end == "" {
			return model.PredictionRequest{}, errors.New("custom timeframe needs both --start and --end")
		}
		r, err = model.ParseDateRange(start, end)
	} else {
		r, err = model.TimeframeRange(timeframe, now)
	}
	if err != nil {
		return model.PredictionRequest{}, err
	}

	return model.PredictionRequest{
		StartDate:   r.StartString(),
		EndDate:     r.EndString(),
		Timeframe:   timeframe,
		CustomQuery: query,
		UserProfile: p,
	}, nil
}

func runPredict(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)
	if err := validOutput(predictOpts.output); err != nil {
		return err
	}

	a := setupApp(logger)
	defer a.close()

	sess := a.readSession()
	if sess.Profile == nil {
		logger.Error("cannot run prediction", "error", errNoProfile)
		a.close()
		os.Exit(1)
	}
	req, err := predictionRequest(*sess.Profile, predictOpts.timeframe, predictOpts.start, predictOpts.end, predictOpts.query, time.Now())
	if err != nil {
		return fmt.Errorf("prediction request: %w", err)
	}

	return a.runJob(cmd, model.KindPrediction, func(ctx context.Context) (string, error) {
		return a.client.StartPrediction(ctx, req)
	}, jobOptions{
		detach: predictOpts.detach,
		output: predictOpts.output,
		notify: predictOpts.notify,
	})
}
