// Package fakebackend is an in-memory implementation of the weather-analysis
// backend API for local development and end-to-end tests. Jobs advance one
// stage per progress query instead of running real analyses.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/amishk599/skywatch/internal/model"
)

// Options tune the fake's behavior.
type Options struct {
	// Username and Password are the accepted EarthAccess credentials.
	// When Username is empty any non-empty pair is accepted.
	Username string
	Password string
	// LoggedIn starts the server with an active EarthAccess session.
	LoggedIn bool
	// FailJobs makes every job end in the error status.
	FailJobs bool
	// FailMessage is reported by failed jobs. Empty means no message.
	FailMessage string
	// FlakyEvery makes every Nth progress query answer 500. Zero disables it.
	FlakyEvery int
}

type stage struct {
	status   model.JobStatus
	progress int
	message  string
}

var stages = []stage{
	{model.StatusStarted, 0, "Starting"},
	{model.StatusFetchingData, 30, "Fetching data"},
	{model.StatusRunning, 70, "Running analysis"},
}

type job struct {
	id      string
	kind    model.JobKind
	step    int
	dates   [2]string
	ai      bool
	query   string
	profile model.UserProfile
	status  model.JobStatus
	result  json.RawMessage
}

// Server is the fake backend. It implements http.Handler; routes live under /api.
type Server struct {
	mu       sync.Mutex
	opts     Options
	loggedIn bool
	jobs     map[string]*job
	queries  int
	history  []model.HistoryEntry
	files    map[string][]byte
	now      func() time.Time
	logger   *slog.Logger
	router   chi.Router
}

// New builds a fake backend.
func New(opts Options, logger *slog.Logger) *Server {
	s := &Server{
		opts:     opts,
		loggedIn: opts.LoggedIn,
		jobs:     make(map[string]*job),
		files:    make(map[string][]byte),
		now:      time.Now,
		logger:   logger,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/login", s.handleLogin)
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/progress/{id}", s.handleProgress(model.KindAnalysis))
		r.Post("/personalized-prediction", s.handlePrediction)
		r.Get("/prediction-progress/{id}", s.handleProgress(model.KindPrediction))
		r.Get("/history", s.handleHistory)
		r.Get("/files/*", s.handleFile)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// JobCount returns the number of jobs created so far.
func (s *Server) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", r.Header.Get("X-Request-ID"),
		)
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	loggedIn := s.loggedIn
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, model.ServerStatus{
		Status:              "online",
		EarthAccessLoggedIn: loggedIn,
		Timestamp:           s.now().Format(time.RFC3339),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" || body.Password == "" {
		writeFailure(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	ok := s.opts.Username == "" || (body.Username == s.opts.Username && body.Password == s.opts.Password)
	s.mu.Lock()
	s.loggedIn = ok
	s.mu.Unlock()

	if !ok {
		writeFailure(w, http.StatusOK, "Invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "EarthAccess login successful"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req model.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StartDate == "" || req.EndDate == "" {
		writeFailure(w, http.StatusBadRequest, "Start and end dates are required")
		return
	}
	if !s.requireLogin(w) {
		return
	}

	j := &job{
		id:     "analysis_" + uuid.NewString(),
		kind:   model.KindAnalysis,
		dates:  [2]string{req.StartDate, req.EndDate},
		ai:     req.IncludeAI,
		status: model.StatusStarted,
	}
	s.addJob(j)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"analysis_id": j.id,
		"message":     "Analysis started",
	})
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	var req model.PredictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StartDate == "" || req.EndDate == "" {
		writeFailure(w, http.StatusBadRequest, "Start and end dates are required")
		return
	}
	if !s.requireLogin(w) {
		return
	}

	j := &job{
		id:      "prediction_" + uuid.NewString(),
		kind:    model.KindPrediction,
		dates:   [2]string{req.StartDate, req.EndDate},
		query:   req.CustomQuery,
		profile: req.UserProfile,
		status:  model.StatusStarted,
	}
	s.addJob(j)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"analysisId": j.id,
		"message":    "Personalized prediction started",
	})
}

func (s *Server) requireLogin(w http.ResponseWriter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loggedIn {
		writeFailure(w, http.StatusUnauthorized, "EarthAccess login required")
		return false
	}
	return true
}

func (s *Server) addJob(j *job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.id] = j
	s.logger.Info("fake job created", "kind", j.kind, "job_id", j.id)
}

func (s *Server) handleProgress(kind model.JobKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		s.mu.Lock()
		defer s.mu.Unlock()

		s.queries++
		if s.opts.FlakyEvery > 0 && s.queries%s.opts.FlakyEvery == 0 {
			writeFailure(w, http.StatusInternalServerError, "Progress check error: injected failure")
			return
		}

		j, ok := s.jobs[id]
		if !ok || j.kind != kind {
			writeFailure(w, http.StatusNotFound, "Analysis not found")
			return
		}

		data := s.advance(j)
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
	}
}

// advance moves j one stage forward and returns its wire representation.
// Must be called with s.mu held.
func (s *Server) advance(j *job) map[string]any {
	if !j.status.Terminal() {
		j.step++
		if j.step >= len(stages) {
			s.finish(j)
		} else {
			j.status = stages[j.step].status
		}
	}

	data := map[string]any{"status": j.status, "result": nil}
	switch j.status {
	case model.StatusCompleted:
		data["progress"] = 100
		data["message"] = "Completed"
		data["result"] = j.result
	case model.StatusError:
		data["progress"] = 0
		data["message"] = s.opts.FailMessage
	default:
		data["progress"] = stages[j.step].progress
		data["message"] = stages[j.step].message
	}
	return data
}

func (s *Server) finish(j *job) {
	if s.opts.FailJobs {
		j.status = model.StatusError
		s.logger.Info("fake job failed", "job_id", j.id)
		return
	}

	var result any
	switch j.kind {
	case model.KindAnalysis:
		result = s.analysisResult(j)
	default:
		result = s.predictionResult(j)
	}
	raw, err := json.Marshal(result)
	if err != nil {
		// Result types are plain structs; this cannot happen.
		panic(fmt.Sprintf("encode fake result: %v", err))
	}
	j.result = raw
	j.status = model.StatusCompleted
	s.logger.Info("fake job completed", "kind", j.kind, "job_id", j.id)
}

func sampleSummary(dates [2]string, mapPath, plotPath string) model.Summary {
	f := func(v float64) *float64 { return &v }
	return model.Summary{
		BBox:          []float64{26.0, 36.0, 45.0, 42.0},
		Dates:         dates[:],
		PrecipMean:    f(1.42),
		TempMean:      f(21.7),
		WindMean:      f(3.8),
		DroughtIndex:  f(-0.6),
		AOD:           f(0.19),
		MapPath:       mapPath,
		QuickPlotPath: plotPath,
	}
}

func (s *Server) analysisResult(j *job) model.AnalysisResult {
	base := strings.TrimPrefix(j.id, "analysis_")
	mapPath := "output/map_" + base + ".png"
	plotPath := "output/quick_plot_" + base + ".png"
	jsonName := "analysis_" + base + ".json"

	summary := sampleSummary(j.dates, mapPath, plotPath)
	summaryJSON, _ := json.Marshal(summary)

	s.files[path.Base(mapPath)] = pngStub
	s.files[path.Base(plotPath)] = pngStub
	s.files[jsonName] = summaryJSON
	s.history = append(s.history, model.HistoryEntry{
		Filename: jsonName,
		Dates:    j.dates[:],
		Created:  float64(s.now().UnixNano()) / 1e9,
		URL:      "/api/files/" + jsonName,
	})

	res := model.AnalysisResult{Summary: summary, OutputFile: "output/" + jsonName}
	if j.ai {
		res.AIAnalysis = sampleRiskReport
	}
	return res
}

func (s *Server) predictionResult(j *job) model.PredictionResult {
	summary := sampleSummary(j.dates, "", "")
	text := samplePrediction
	if j.query != "" {
		text = "Regarding your question: " + j.query + "\n\n" + text
	}
	return model.PredictionResult{
		Type: "personalized_prediction",
		UserProfile: model.PredictionProfile{
			Name:        j.profile.Name,
			Location:    j.profile.Location,
			Purpose:     j.profile.Purpose,
			Preferences: j.profile.PredictionPreferences,
		},
		Period:               model.PredictionPeriod{StartDate: j.dates[0], EndDate: j.dates[1]},
		BaseData:             &summary,
		PersonalizedAnalysis: text,
		Timestamp:            s.now().Format(time.RFC3339),
		Version:              "1.0",
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	files := make([]model.HistoryEntry, len(s.history))
	copy(files, s.history)
	s.mu.Unlock()

	sort.SliceStable(files, func(i, k int) bool { return files[i].Created > files[k].Created })
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "files": files})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "*")

	s.mu.Lock()
	data, ok := s.files[name]
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if strings.HasSuffix(name, ".json") {
		w.Header().Set("Content-Type", "application/json")
	} else {
		w.Header().Set("Content-Type", "image/png")
	}
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}
