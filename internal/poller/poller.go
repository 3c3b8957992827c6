package poller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/observability"
)

// DefaultInterval is the fixed gap between status queries.
const DefaultInterval = 2 * time.Second

// Callbacks receive the observable transitions of a polled job. Any of them may be nil.
type Callbacks[R any] struct {
	// OnUpdate is called after each successful query that reports a non-terminal status.
	OnUpdate func(progress int, message string)
	// OnComplete is called exactly once when the job completes.
	OnComplete func(result R)
	// OnError is called exactly once when the backend reports an error or the
	// maximum polling duration elapses ("timeout"). A completed status whose
	// result cannot be decoded is skipped like a failed query.
	OnError func(message string)
}

// JobPoller repeatedly queries a job's status until it reaches a terminal state.
// R is the shape the completed job's result is decoded into.
//
// Status queries run in a single goroutine per handle, so at most one is in
// flight at a time and responses are applied in the order they were requested.
// A tick that fires while a query is still running is coalesced with the next one.
// The first query is issued one interval after Start.
type JobPoller[R any] struct {
	kind        model.JobKind
	fetcher     model.ProgressFetcher
	interval    time.Duration
	maxDuration time.Duration // zero means poll until terminal or cancelled
	clock       clockwork.Clock
	metrics     *observability.Metrics
	logger      *slog.Logger
}

// NewJobPoller creates a poller for one kind of job. A non-positive interval
// falls back to DefaultInterval.
func NewJobPoller[R any](
	kind model.JobKind,
	fetcher model.ProgressFetcher,
	interval time.Duration,
	maxDuration time.Duration,
	logger *slog.Logger,
) *JobPoller[R] {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &JobPoller[R]{
		kind:        kind,
		fetcher:     fetcher,
		interval:    interval,
		maxDuration: maxDuration,
		clock:       clockwork.NewRealClock(),
		logger:      logger,
	}
}

// SetClock replaces the time source, for tests.
func (p *JobPoller[R]) SetClock(c clockwork.Clock) {
	p.clock = c
}

// SetMetrics enables metric recording.
func (p *JobPoller[R]) SetMetrics(m *observability.Metrics) {
	p.metrics = m
}

// Start begins polling jobID and returns immediately. Cancelling ctx has the
// same effect as calling Cancel on the returned handle.
func (p *JobPoller[R]) Start(ctx context.Context, jobID string, cb Callbacks[R]) (*Handle, error) {
	if jobID == "" {
		return nil, errors.New("start polling: job id is required")
	}
	if p.fetcher == nil {
		return nil, fmt.Errorf("start polling %s: no progress fetcher", jobID)
	}

	loopCtx, cancel := context.WithCancel(ctx)
	h := newHandle(jobID, cancel)

	// Timers are created before returning so the schedule is anchored at Start.
	ticker := p.clock.NewTicker(p.interval)
	var deadline clockwork.Timer
	if p.maxDuration > 0 {
		deadline = p.clock.NewTimer(p.maxDuration)
	}

	p.metrics.PollStarted(string(p.kind))
	p.logger.Info("polling job",
		"kind", p.kind,
		"job_id", jobID,
		"interval", p.interval.String(),
	)

	go p.run(loopCtx, h, cb, ticker, deadline)
	return h, nil
}

func (p *JobPoller[R]) run(ctx context.Context, h *Handle, cb Callbacks[R], ticker clockwork.Ticker, deadline clockwork.Timer) {
	started := p.clock.Now()
	defer func() {
		ticker.Stop()
		if deadline != nil {
			deadline.Stop()
		}
		h.cancel()
		p.metrics.PollStopped(string(p.kind), h.State().String(), p.clock.Since(started))
		close(h.done)
	}()

	var timeout <-chan time.Time
	if deadline != nil {
		timeout = deadline.Chan()
	}

	for {
		select {
		case <-ctx.Done():
			h.transition(StateCancelled)
			p.logger.Info("stopped polling job", "kind", p.kind, "job_id", h.jobID, "state", h.State())
			return

		case <-timeout:
			var onError func()
			if cb.OnError != nil {
				onError = func() { cb.OnError("timeout") }
			}
			h.emit(StateFailed, func() {
				p.metrics.ObserveTick(string(p.kind), observability.OutcomeTimeout)
				p.logger.Warn("job polling timed out",
					"kind", p.kind,
					"job_id", h.jobID,
					"max_duration", p.maxDuration.String(),
				)
			}, onError)
			return

		case <-ticker.Chan():
			if p.poll(ctx, h, cb) {
				return
			}
		}
	}
}

// poll runs one status query and dispatches its outcome. It returns true when
// polling must stop.
func (p *JobPoller[R]) poll(ctx context.Context, h *Handle, cb Callbacks[R]) bool {
	if !h.polling() {
		return true
	}

	prog, err := p.fetcher.FetchProgress(ctx, h.jobID)
	if ctx.Err() != nil {
		// Cancelled while the query was in flight; whatever came back is dropped.
		h.transition(StateCancelled)
		return true
	}
	if err != nil {
		p.metrics.ObserveTick(string(p.kind), observability.OutcomeTransient)
		p.logger.Warn("progress query failed, retrying next tick",
			"kind", p.kind,
			"job_id", h.jobID,
			"error", err,
		)
		return false
	}

	switch prog.Status {
	case model.StatusCompleted:
		result, err := decodeResult[R](prog.Result)
		if err != nil {
			// The backend can report completed before the result is attached.
			p.metrics.ObserveTick(string(p.kind), observability.OutcomeTransient)
			p.logger.Warn("completed job has no usable result yet, retrying next tick",
				"kind", p.kind,
				"job_id", h.jobID,
				"error", err,
			)
			return false
		}
		var onComplete func()
		if cb.OnComplete != nil {
			onComplete = func() { cb.OnComplete(result) }
		}
		h.emit(StateCompleted, func() {
			p.metrics.ObserveTick(string(p.kind), observability.OutcomeCompleted)
			p.logger.Info("job completed", "kind", p.kind, "job_id", h.jobID)
		}, onComplete)
		return true

	case model.StatusError:
		msg := prog.Message
		if msg == "" {
			msg = "analysis failed"
		}
		p.fail(h, cb, msg)
		return true

	default:
		var onUpdate func()
		if cb.OnUpdate != nil {
			onUpdate = func() { cb.OnUpdate(prog.Progress, prog.Message) }
		}
		h.emit(StatePolling, func() {
			p.metrics.ObserveTick(string(p.kind), observability.OutcomeUpdate)
			p.logger.Debug("job progress",
				"kind", p.kind,
				"job_id", h.jobID,
				"status", prog.Status,
				"progress", prog.Progress,
			)
		}, onUpdate)
		return !h.polling()
	}
}

func (p *JobPoller[R]) fail(h *Handle, cb Callbacks[R], msg string) {
	var onError func()
	if cb.OnError != nil {
		onError = func() { cb.OnError(msg) }
	}
	h.emit(StateFailed, func() {
		p.metrics.ObserveTick(string(p.kind), observability.OutcomeFailed)
		p.logger.Info("job failed", "kind", p.kind, "job_id", h.jobID, "message", msg)
	}, onError)
}

func decodeResult[R any](raw json.RawMessage) (R, error) {
	var result R
	if len(raw) == 0 || string(raw) == "null" {
		return result, errors.New("missing result payload")
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, err
	}
	return result, nil
}
