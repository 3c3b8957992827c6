package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/skywatch/internal/backend"
	"github.com/amishk599/skywatch/internal/config"
	"github.com/amishk599/skywatch/internal/fakebackend"
	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/notifier"
	"github.com/amishk599/skywatch/internal/session"
	"github.com/amishk599/skywatch/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestApp wires an app against an in-process fake backend with an
// in-memory session and a fast poll interval.
func newTestApp(t *testing.T, opts fakebackend.Options) *app {
	t.Helper()
	srv := httptest.NewServer(fakebackend.New(opts, discardLogger()))
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Backend.BaseURL = srv.URL + "/api"
	cfg.Polling.Interval = 5 * time.Millisecond
	cfg.Polling.MaxDuration = 10 * time.Second

	sess, err := session.Open(store.NewMemoryKV())
	require.NoError(t, err)

	return &app{
		cfg:      cfg,
		logger:   discardLogger(),
		client:   backend.NewClient(cfg.Backend.BaseURL, srv.Client(), nil, discardLogger()),
		session:  sess,
		notifier: notifier.NewLogNotifier(discardLogger()),
	}
}

func testCommand(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd
}

func TestRunJob_AnalysisEndToEnd(t *testing.T) {
	a := newTestApp(t, fakebackend.Options{LoggedIn: true})
	var out bytes.Buffer
	dir := t.TempDir()

	req := model.AnalysisRequest{StartDate: "2026-02-01", EndDate: "2026-02-28", IncludeAI: true}
	err := a.runJob(testCommand(&out), model.KindAnalysis, func(ctx context.Context) (string, error) {
		return a.client.StartAnalysis(ctx, req)
	}, jobOptions{output: outputTable, download: dir})
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Fetching data")
	assert.Contains(t, text, "completed in")
	assert.Contains(t, text, "21.70 °C")
	assert.Contains(t, text, "Warm and mostly dry period")
	assert.Contains(t, text, "downloaded")

	stored, ok, err := a.session.LastResult(model.KindAnalysis)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(stored.JobID, "analysis_"))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, files, 3, "map, quick plot and analysis json")
}

func TestRunJob_Detach(t *testing.T) {
	a := newTestApp(t, fakebackend.Options{LoggedIn: true})
	var out bytes.Buffer

	err := a.runJob(testCommand(&out), model.KindAnalysis, func(ctx context.Context) (string, error) {
		return a.client.StartAnalysis(ctx, model.AnalysisRequest{StartDate: "2026-02-01", EndDate: "2026-02-02"})
	}, jobOptions{detach: true})
	require.NoError(t, err)

	id := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(id, "analysis_"))
	_, ok, err := a.session.LastResult(model.KindAnalysis)
	require.NoError(t, err)
	assert.False(t, ok, "detached jobs store nothing")
}

func TestFollowAndReport_CancelledContext(t *testing.T) {
	a := newTestApp(t, fakebackend.Options{LoggedIn: true})
	a.cfg.Polling.Interval = time.Hour
	id, err := a.client.StartAnalysis(context.Background(), model.AnalysisRequest{StartDate: "2026-02-01", EndDate: "2026-02-02"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	require.NoError(t, a.followAndReport(ctx, &out, model.KindAnalysis, id, jobOptions{output: outputTable}))
	assert.Contains(t, out.String(), "skywatch follow "+id+" --kind analysis")
}

func TestRunJob_PredictionJSON(t *testing.T) {
	a := newTestApp(t, fakebackend.Options{LoggedIn: true})
	var out bytes.Buffer

	req, err := predictionRequest(model.UserProfile{Name: "Ada"}, "", "", "", "picnic?", time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	err = a.runJob(testCommand(&out), model.KindPrediction, func(ctx context.Context) (string, error) {
		return a.client.StartPrediction(ctx, req)
	}, jobOptions{output: outputJSON})
	require.NoError(t, err)

	text := out.String()
	start := strings.Index(text, "{")
	require.GreaterOrEqual(t, start, 0)
	var res model.PredictionResult
	require.NoError(t, json.Unmarshal([]byte(text[start:]), &res))
	assert.Equal(t, "Ada", res.UserProfile.Name)
	assert.Contains(t, res.PersonalizedAnalysis, "picnic?")
}

func TestPredictionRequest(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	profile := model.UserProfile{Name: "Ada", PredictionPreferences: model.PredictionPreferences{DefaultTimeframe: model.Timeframe3Days}}

	tests := []struct {
		name      string
		timeframe string
		start     string
		end       string
		wantTF    string
		wantStart string
		wantEnd   string
		wantErr   bool
	}{
		{name: "profile default", wantTF: "3days", wantStart: "2026-03-11", wantEnd: "2026-03-13"},
		{name: "explicit preset", timeframe: "14days", wantTF: "14days", wantStart: "2026-03-11", wantEnd: "2026-03-24"},
		{name: "dates imply custom", start: "2026-04-01", end: "2026-04-03", wantTF: "custom", wantStart: "2026-04-01", wantEnd: "2026-04-03"},
		{name: "custom without dates", timeframe: "custom", wantErr: true},
		{name: "unknown preset", timeframe: "fortnight", wantErr: true},
		{name: "reversed dates", start: "2026-04-03", end: "2026-04-01", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := predictionRequest(profile, tt.timeframe, tt.start, tt.end, "", now)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTF, req.Timeframe)
			assert.Equal(t, tt.wantStart, req.StartDate)
			assert.Equal(t, tt.wantEnd, req.EndDate)
			assert.Equal(t, "Ada", req.UserProfile.Name)
		})
	}

	req, err := predictionRequest(model.UserProfile{}, "", "", "", "", now)
	require.NoError(t, err)
	assert.Equal(t, model.Timeframe7Days, req.Timeframe, "falls back to 7days without a preference")
}

func TestResolveRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	r, err := resolveRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-02-08", r.StartString())
	assert.Equal(t, "2026-03-10", r.EndString())

	r, err = resolveRange("2026-03-01", "", now)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", r.StartString())

	_, err = resolveRange("03/01/2026", "", now)
	assert.Error(t, err)
}

func TestCredentials(t *testing.T) {
	env := map[string]string{"EARTHDATA_USERNAME": "env-user", "EARTHDATA_PASSWORD": "env-pass"}
	getenv := func(k string) string { return env[k] }

	u, p, ok := credentials("flag-user", "", getenv)
	assert.True(t, ok)
	assert.Equal(t, "flag-user", u)
	assert.Equal(t, "env-pass", p)

	_, _, ok = credentials("", "", func(string) string { return "" })
	assert.False(t, ok)
}

func TestHeadline(t *testing.T) {
	temp, precip := 21.74, 1.424
	raw, _ := json.Marshal(model.AnalysisResult{Summary: model.Summary{
		Dates:      []string{"2026-02-01", "2026-02-28"},
		TempMean:   &temp,
		PrecipMean: &precip,
	}})
	assert.Equal(t, "2026-02-01 → 2026-02-28, temp 21.7 °C, precip 1.42 mm/day", headline(model.KindAnalysis, raw))
	assert.Equal(t, "analysis completed", headline(model.KindAnalysis, json.RawMessage(`{"summary":{}}`)))

	raw, _ = json.Marshal(model.PredictionResult{
		UserProfile: model.PredictionProfile{Name: "Ada"},
		Period:      model.PredictionPeriod{StartDate: "2026-03-11", EndDate: "2026-03-17"},
	})
	assert.Equal(t, "prediction 2026-03-11 → 2026-03-17 for Ada", headline(model.KindPrediction, raw))
}

func TestRenderResult_FallbackInsights(t *testing.T) {
	raw := json.RawMessage(`{"summary": {}, "ai_analysis": "Expect rain on Tuesday."}`)
	var out bytes.Buffer
	require.NoError(t, renderResult(&out, model.KindAnalysis, raw, outputTable, nil))
	assert.Contains(t, out.String(), "(unstructured response)")
	assert.Contains(t, out.String(), "Expect rain on Tuesday.")
	assert.Contains(t, out.String(), "n/a")

	out.Reset()
	require.NoError(t, renderResult(&out, model.KindAnalysis, json.RawMessage(`{"summary": {}}`), outputTable, nil))
	assert.Contains(t, out.String(), "AI analysis not available")

	assert.Error(t, renderResult(&out, "forecast", raw, outputTable, nil))
	assert.Error(t, validOutput("yaml"))
}

func TestApplyProfileFlags(t *testing.T) {
	p := model.UserProfile{Name: "Ada", Location: "Izmir", Activities: []string{"running"}}
	profileFlags.location = "Istanbul"
	profileFlags.activities = []string{"cycling", "kayaking"}
	profileFlags.notifications = true
	t.Cleanup(func() {
		profileFlags.location = ""
		profileFlags.activities = nil
		profileFlags.notifications = false
	})

	changed := map[string]bool{"location": true, "activities": true, "notifications": true}
	applyProfileFlags(&p, func(name string) bool { return changed[name] }, discardLogger())

	assert.Equal(t, "Ada", p.Name, "unset flags keep their value")
	assert.Equal(t, "Istanbul", p.Location)
	assert.Equal(t, []string{"cycling", "kayaking"}, p.Activities, "unknown options are kept")
	assert.True(t, p.Notifications)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Backend.BaseURL, cfg.Backend.BaseURL)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("polling:\n  interval: soon\n"), 0o644))
	_, err = loadConfig(bad)
	assert.Error(t, err)
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "dev", versionString(true))

	full := versionString(false)
	assert.True(t, strings.HasPrefix(full, "skywatch dev (commit unknown, go"), full)
	assert.Contains(t, full, runtime.GOOS+"/"+runtime.GOARCH)
}
