package fakebackend_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/skywatch/internal/backend"
	"github.com/amishk599/skywatch/internal/fakebackend"
	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/poller"
	"github.com/amishk599/skywatch/internal/report"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newEnv(t *testing.T, opts fakebackend.Options) (*fakebackend.Server, *backend.Client) {
	t.Helper()
	fake := fakebackend.New(opts, discardLogger())
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, backend.NewClient(srv.URL+"/api", srv.Client(), nil, discardLogger())
}

// recorder collects callback invocations.
type recorder[R any] struct {
	mu       sync.Mutex
	updates  []int
	messages []string
	results  []R
	errs     []string
}

func (r *recorder[R]) callbacks() poller.Callbacks[R] {
	return poller.Callbacks[R]{
		OnUpdate: func(p int, msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.updates = append(r.updates, p)
			r.messages = append(r.messages, msg)
		},
		OnComplete: func(res R) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.results = append(r.results, res)
		},
		OnError: func(msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, msg)
		},
	}
}

func follow[R any](t *testing.T, client *backend.Client, kind model.JobKind, id string) (*recorder[R], poller.State) {
	t.Helper()
	p := poller.NewJobPoller[R](kind, client.ProgressFetcher(kind), 5*time.Millisecond, 5*time.Second, discardLogger())
	rec := &recorder[R]{}
	h, err := p.Start(context.Background(), id, rec.callbacks())
	require.NoError(t, err)
	return rec, h.Wait()
}

func TestAnalysisEndToEnd(t *testing.T) {
	_, client := newEnv(t, fakebackend.Options{Username: "ada", Password: "secret"})
	ctx := context.Background()

	require.NoError(t, client.Login(ctx, "ada", "secret"))
	st, err := client.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.EarthAccessLoggedIn)

	id, err := client.StartAnalysis(ctx, model.AnalysisRequest{StartDate: "2026-02-01", EndDate: "2026-02-28", IncludeAI: true})
	require.NoError(t, err)

	rec, state := follow[model.AnalysisResult](t, client, model.KindAnalysis, id)

	assert.Equal(t, poller.StateCompleted, state)
	assert.Equal(t, []int{30, 70}, rec.updates)
	assert.Equal(t, []string{"Fetching data", "Running analysis"}, rec.messages)
	assert.Empty(t, rec.errs)
	require.Len(t, rec.results, 1)

	res := rec.results[0]
	require.NotNil(t, res.Summary.TempMean)
	assert.InDelta(t, 21.7, *res.Summary.TempMean, 1e-9)
	assert.Equal(t, []string{"2026-02-01", "2026-02-28"}, res.Summary.Dates)

	rr := report.ParseRiskReport(res.AIAnalysis)
	assert.True(t, rr.Parsed)
	assert.Len(t, rr.Recommendations, 3)

	history, err := client.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)

	var buf bytes.Buffer
	n, err := client.DownloadFile(ctx, history[0].URL, &buf)
	require.NoError(t, err)
	assert.Positive(t, n)

	_, err = client.DownloadFile(ctx, res.Summary.MapPath, io.Discard)
	assert.NoError(t, err)
}

func TestStartRequiresLogin(t *testing.T) {
	fake, client := newEnv(t, fakebackend.Options{})

	_, err := client.StartAnalysis(context.Background(), model.AnalysisRequest{StartDate: "2026-02-01", EndDate: "2026-02-02"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrNotLoggedIn), "got %v", err)
	assert.Zero(t, fake.JobCount())
}

func TestLoginWrongPassword(t *testing.T) {
	_, client := newEnv(t, fakebackend.Options{Username: "ada", Password: "secret"})

	err := client.Login(context.Background(), "ada", "nope")
	var apiErr *model.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "Invalid")
}

func TestFailedJobReportsDefaultMessage(t *testing.T) {
	_, client := newEnv(t, fakebackend.Options{LoggedIn: true, FailJobs: true})

	id, err := client.StartAnalysis(context.Background(), model.AnalysisRequest{StartDate: "2026-02-01", EndDate: "2026-02-02"})
	require.NoError(t, err)

	rec, state := follow[model.AnalysisResult](t, client, model.KindAnalysis, id)
	assert.Equal(t, poller.StateFailed, state)
	assert.Equal(t, []string{"analysis failed"}, rec.errs)
	assert.Empty(t, rec.results)
}

func TestFlakyProgressIsTolerated(t *testing.T) {
	_, client := newEnv(t, fakebackend.Options{LoggedIn: true, FlakyEvery: 2})

	id, err := client.StartAnalysis(context.Background(), model.AnalysisRequest{StartDate: "2026-02-01", EndDate: "2026-02-02"})
	require.NoError(t, err)

	rec, state := follow[model.AnalysisResult](t, client, model.KindAnalysis, id)
	assert.Equal(t, poller.StateCompleted, state)
	assert.Equal(t, []int{30, 70}, rec.updates)
	assert.Empty(t, rec.errs)
}

func TestPredictionEndToEnd(t *testing.T) {
	_, client := newEnv(t, fakebackend.Options{LoggedIn: true})

	id, err := client.StartPrediction(context.Background(), model.PredictionRequest{
		StartDate:   "2026-03-11",
		EndDate:     "2026-03-17",
		Timeframe:   model.Timeframe7Days,
		CustomQuery: "Can I run outside?",
		UserProfile: model.UserProfile{Name: "Ada", Location: "Ankara"},
	})
	require.NoError(t, err)

	rec, state := follow[model.PredictionResult](t, client, model.KindPrediction, id)
	require.Equal(t, poller.StateCompleted, state)
	require.Len(t, rec.results, 1)

	res := rec.results[0]
	assert.Equal(t, "Ada", res.UserProfile.Name)
	assert.Equal(t, "2026-03-17", res.Period.EndDate)

	sections := report.SplitPrediction(res.PersonalizedAnalysis)
	assert.True(t, sections.Structured)
	assert.Contains(t, sections.Insights, "Can I run outside?")
	assert.Contains(t, sections.Recommendations, "Plan runs before 9am.")
}

func TestProgressUnknownJob(t *testing.T) {
	_, client := newEnv(t, fakebackend.Options{LoggedIn: true})

	_, err := client.AnalysisProgress(context.Background(), "analysis_missing")
	assert.True(t, errors.Is(err, model.ErrJobNotFound), "got %v", err)
}

func TestProgressWrongKindIsNotFound(t *testing.T) {
	_, client := newEnv(t, fakebackend.Options{LoggedIn: true})

	id, err := client.StartAnalysis(context.Background(), model.AnalysisRequest{StartDate: "2026-02-01", EndDate: "2026-02-02"})
	require.NoError(t, err)

	_, err = client.PredictionProgress(context.Background(), id)
	assert.True(t, errors.Is(err, model.ErrJobNotFound), "got %v", err)
}
