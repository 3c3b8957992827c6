package notifier

import (
	"log/slog"
	"time"

	"github.com/amishk599/skywatch/internal/model"
)

// Ensure LogNotifier implements model.Notifier.
var _ model.Notifier = (*LogNotifier)(nil)

// LogNotifier writes job outcomes to the given logger as structured messages.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier returns a notifier that logs each outcome via slog.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the outcome with kind, job id, status and elapsed time.
// Returns nil (stdout logging does not fail).
func (n *LogNotifier) Notify(o model.JobOutcome) error {
	args := []any{
		"kind", o.Job.Kind,
		"job_id", o.Job.ID,
		"status", o.Job.Status,
		"elapsed", o.Elapsed.Round(time.Millisecond).String(),
	}
	if o.Headline != "" {
		args = append(args, "summary", o.Headline)
	}
	if o.Succeeded() {
		n.logger.Info("job finished", args...)
	} else {
		n.logger.Warn("job failed", append(args, "error", o.Err)...)
	}
	return nil
}
