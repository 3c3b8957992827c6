package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/skywatch/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleOutcome(errMsg string) model.JobOutcome {
	status := model.StatusCompleted
	if errMsg != "" {
		status = model.StatusError
	}
	return model.JobOutcome{
		Job: model.Job{
			ID:     "abc123",
			Kind:   model.KindAnalysis,
			Status: status,
		},
		Err:      errMsg,
		Headline: "Temp 21.5 °C, precip 1.2 mm/day",
		Elapsed:  95 * time.Second,
	}
}

func TestSlackNotifier_Completed(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(sampleOutcome("")); err != nil {
		t.Fatalf("Notify() = %v, want nil", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if got := payload.Blocks[0].Text.Text; got != "✅ Analysis completed" {
		t.Errorf("header text = %q", got)
	}
	if got := payload.Blocks[1].Fields[0].Text; got != "*Job:*\n`abc123`" {
		t.Errorf("job field = %q", got)
	}
	if got := payload.Blocks[1].Fields[1].Text; got != "*Elapsed:*\n1m35s" {
		t.Errorf("elapsed field = %q", got)
	}
	if got := payload.Blocks[2].Text.Text; got != "Temp 21.5 °C, precip 1.2 mm/day" {
		t.Errorf("detail = %q", got)
	}
	if payload.Blocks[len(payload.Blocks)-1].Type != "divider" {
		t.Error("last block should be a divider")
	}
}

func TestSlackNotifier_FailedShowsError(t *testing.T) {
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(sampleOutcome("Analysis failed")); err != nil {
		t.Fatalf("Notify() = %v", err)
	}

	var payload slackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got := payload.Blocks[0].Text.Text; got != "❌ Analysis failed" {
		t.Errorf("header text = %q", got)
	}
	if got := payload.Blocks[2].Text.Text; got != "*Error:* Analysis failed" {
		t.Errorf("detail = %q", got)
	}
}

func TestSlackNotifier_SlackReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(sampleOutcome("")); err == nil {
		t.Error("expected error on 500, got nil")
	}
}

func TestSlackNotifier_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := calls.Add(1)
		if c == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
		} else {
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	n := NewSlackNotifier(srv.URL, srv.Client(), discardLogger())
	if err := n.Notify(sampleOutcome("")); err != nil {
		t.Fatalf("expected nil after retry, got %v", err)
	}
	if c := calls.Load(); c != 2 {
		t.Errorf("expected 2 HTTP calls (initial + retry), got %d", c)
	}
}

func TestSendTestMessage(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := SendTestMessage(NewSlackNotifier(srv.URL, srv.Client(), discardLogger())); err != nil {
		t.Fatalf("SendTestMessage() = %v", err)
	}
	if c := calls.Load(); c != 1 {
		t.Errorf("expected 1 HTTP call, got %d", c)
	}
}
