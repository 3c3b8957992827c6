package model

import (
	"context"
	"encoding/json"
	"time"
)

// JobStatus is the backend-reported state of an asynchronous job.
// Only StatusCompleted and StatusError are terminal; every other value
// (pending, started, fetching_data, running, ...) means the job is still running.
type JobStatus string

const (
	StatusPending      JobStatus = "pending"
	StatusStarted      JobStatus = "started"
	StatusFetchingData JobStatus = "fetching_data"
	StatusRunning      JobStatus = "running"
	StatusCompleted    JobStatus = "completed"
	StatusError        JobStatus = "error"
)

// Terminal reports whether polling must stop at this status.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// JobKind selects the endpoints and result shape of a job.
type JobKind string

const (
	KindAnalysis   JobKind = "analysis"
	KindPrediction JobKind = "prediction"
)

// Valid reports whether k is a known job kind.
func (k JobKind) Valid() bool {
	return k == KindAnalysis || k == KindPrediction
}

// Progress is one decoded status-query response.
type Progress struct {
	Status   JobStatus
	Progress int             // 0-100
	Message  string          // human-readable status text
	Result   json.RawMessage // set only when Status == StatusCompleted
}

// Job is the client-side view of a backend-tracked unit of work.
// The client never mutates backend state; this is display bookkeeping only.
type Job struct {
	ID        string
	Kind      JobKind
	Status    JobStatus
	Progress  int
	Message   string
	StartedAt time.Time
}

// ProgressFetcher queries the backend for the current state of a job.
type ProgressFetcher interface {
	FetchProgress(ctx context.Context, jobID string) (Progress, error)
}

// ProgressFetcherFunc adapts a plain function to ProgressFetcher.
type ProgressFetcherFunc func(ctx context.Context, jobID string) (Progress, error)

func (f ProgressFetcherFunc) FetchProgress(ctx context.Context, jobID string) (Progress, error) {
	return f(ctx, jobID)
}

// JobOutcome describes how a job ended, for notifications.
type JobOutcome struct {
	Job      Job
	Err      string        // empty when the job completed
	Headline string        // one-line result summary
	Elapsed  time.Duration // time from start to terminal state
}

// Succeeded reports whether the job completed without error.
func (o JobOutcome) Succeeded() bool { return o.Err == "" }

// Notifier sends notifications when a job reaches a terminal state.
type Notifier interface {
	Notify(outcome JobOutcome) error
}

// HistoryFilter decides whether a history entry should be shown.
type HistoryFilter interface {
	Match(entry HistoryEntry) bool
}
