package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/poller"
)

// jobRun is the terminal state of one followed job.
type jobRun struct {
	job     model.Job
	state   poller.State
	result  json.RawMessage
	errMsg  string
	elapsed time.Duration
}

func (a *app) newPoller(kind model.JobKind) *poller.JobPoller[json.RawMessage] {
	p := poller.NewJobPoller[json.RawMessage](
		kind,
		a.client.ProgressFetcher(kind),
		a.cfg.Polling.Interval,
		a.cfg.Polling.MaxDuration,
		a.logger,
	)
	p.SetMetrics(a.metrics)
	return p
}

// follow polls job id until it reaches a terminal state or ctx is cancelled,
// printing one line per progress update to out.
func (a *app) follow(ctx context.Context, kind model.JobKind, id string, out io.Writer) (jobRun, error) {
	run := jobRun{job: model.Job{ID: id, Kind: kind, Status: model.StatusPending, StartedAt: time.Now()}}
	lastLine := ""

	h, err := a.newPoller(kind).Start(ctx, id, poller.Callbacks[json.RawMessage]{
		OnUpdate: func(progress int, message string) {
			run.job.Status = model.StatusRunning
			run.job.Progress = progress
			run.job.Message = message
			line := fmt.Sprintf("[%3d%%] %s", progress, message)
			if line != lastLine {
				fmt.Fprintln(out, line)
				lastLine = line
			}
		},
		OnComplete: func(result json.RawMessage) {
			run.job.Status = model.StatusCompleted
			run.job.Progress = 100
			run.result = result
		},
		OnError: func(message string) {
			run.job.Status = model.StatusError
			run.errMsg = message
		},
	})
	if err != nil {
		return run, err
	}

	run.state = h.Wait()
	run.elapsed = time.Since(run.job.StartedAt)
	return run, nil
}

// finishJob stores a completed result and sends the notification when the
// user asked for one. It returns the outcome that was (or would be) sent.
func (a *app) finishJob(run jobRun, notify bool) model.JobOutcome {
	outcome := model.JobOutcome{Job: run.job, Err: run.errMsg, Elapsed: run.elapsed}

	switch run.state {
	case poller.StateCompleted:
		outcome.Headline = headline(run.job.Kind, run.result)
		if err := a.session.SaveLastResult(run.job.Kind, run.job.ID, run.result); err != nil {
			a.logger.Warn("could not store result", "kind", run.job.Kind, "job_id", run.job.ID, "error", err)
		}
	case poller.StateFailed:
	default:
		return outcome
	}

	if notify || a.profileWantsNotifications() {
		if err := a.notifier.Notify(outcome); err != nil {
			a.logger.Warn("notification failed", "job_id", run.job.ID, "error", err)
		}
	}
	return outcome
}

func (a *app) profileWantsNotifications() bool {
	sess, err := a.session.Read()
	if err != nil {
		a.logger.Warn("failed to read session", "error", err)
		return false
	}
	return sess.Profile != nil && sess.Profile.Notifications
}

// headline is the one-line summary of a completed job used in notifications.
func headline(kind model.JobKind, raw json.RawMessage) string {
	switch kind {
	case model.KindAnalysis:
		var res model.AnalysisResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return "analysis completed"
		}
		return summaryHeadline(res.Summary)
	case model.KindPrediction:
		var res model.PredictionResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return "prediction completed"
		}
		s := fmt.Sprintf("prediction %s → %s", res.Period.StartDate, res.Period.EndDate)
		if res.UserProfile.Name != "" {
			s += " for " + res.UserProfile.Name
		}
		return s
	}
	return string(kind) + " completed"
}

func summaryHeadline(s model.Summary) string {
	var parts []string
	if len(s.Dates) == 2 {
		parts = append(parts, s.Dates[0]+" → "+s.Dates[1])
	}
	if s.TempMean != nil {
		parts = append(parts, fmt.Sprintf("temp %.1f °C", *s.TempMean))
	}
	if s.PrecipMean != nil {
		parts = append(parts, fmt.Sprintf("precip %.2f mm/day", *s.PrecipMean))
	}
	if s.WindMean != nil {
		parts = append(parts, fmt.Sprintf("wind %.1f m/s", *s.WindMean))
	}
	if len(parts) == 0 {
		return "analysis completed"
	}
	return strings.Join(parts, ", ")
}
