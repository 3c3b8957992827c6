package model

import (
	"testing"
	"time"
)

func TestTimeframeRange_StartsTomorrow(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

	tests := []struct {
		timeframe string
		wantStart string
		wantEnd   string
	}{
		{Timeframe3Days, "2026-03-11", "2026-03-13"},
		{Timeframe7Days, "2026-03-11", "2026-03-17"},
		{Timeframe14Days, "2026-03-11", "2026-03-24"},
		{Timeframe30Days, "2026-03-11", "2026-04-09"},
	}
	for _, tt := range tests {
		t.Run(tt.timeframe, func(t *testing.T) {
			r, err := TimeframeRange(tt.timeframe, now)
			if err != nil {
				t.Fatalf("TimeframeRange: %v", err)
			}
			if r.StartString() != tt.wantStart || r.EndString() != tt.wantEnd {
				t.Errorf("range = %s..%s, want %s..%s", r.StartString(), r.EndString(), tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTimeframeRange_CustomHasNoPreset(t *testing.T) {
	if _, err := TimeframeRange(TimeframeCustom, time.Now()); err == nil {
		t.Fatal("expected error for custom timeframe")
	}
}

func TestDefaultAnalysisRange(t *testing.T) {
	now := time.Date(2026, 3, 31, 23, 59, 0, 0, time.UTC)
	r := DefaultAnalysisRange(now)
	if r.StartString() != "2026-03-01" || r.EndString() != "2026-03-31" {
		t.Errorf("range = %s..%s, want 2026-03-01..2026-03-31", r.StartString(), r.EndString())
	}
}

func TestParseDateRange(t *testing.T) {
	if _, err := ParseDateRange("2026-01-01", "2026-01-31"); err != nil {
		t.Errorf("valid range: %v", err)
	}
	if _, err := ParseDateRange("2026-02-01", "2026-01-31"); err == nil {
		t.Error("expected error when start is after end")
	}
	if _, err := ParseDateRange("01/02/2026", "2026-01-31"); err == nil {
		t.Error("expected error for bad start format")
	}
}

func TestUnknownOptions(t *testing.T) {
	got := UnknownOptions([]string{"running", "skydiving", "hiking"}, Activities)
	if len(got) != 1 || got[0] != "skydiving" {
		t.Errorf("UnknownOptions = %v, want [skydiving]", got)
	}
}

func TestJobStatusTerminal(t *testing.T) {
	for _, s := range []JobStatus{StatusPending, StatusStarted, StatusFetchingData, StatusRunning, "starting", ""} {
		if s.Terminal() {
			t.Errorf("%q.Terminal() = true, want false", s)
		}
	}
	if !StatusCompleted.Terminal() || !StatusError.Terminal() {
		t.Error("completed and error must be terminal")
	}
}
