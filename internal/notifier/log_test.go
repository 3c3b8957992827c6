package notifier

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogNotifier_Completed(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(sampleOutcome("")); err != nil {
		t.Errorf("Notify() = %v, want nil", err)
	}
	out := buf.String()
	if !strings.Contains(out, "job finished") || !strings.Contains(out, "job_id=abc123") {
		t.Errorf("unexpected log output: %s", out)
	}
}

func TestLogNotifier_Failed(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(slog.New(slog.NewTextHandler(&buf, nil)))

	if err := n.Notify(sampleOutcome("timeout")); err != nil {
		t.Errorf("Notify() = %v, want nil", err)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "error=timeout") {
		t.Errorf("unexpected log output: %s", out)
	}
}
