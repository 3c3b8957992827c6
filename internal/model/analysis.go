package model

import (
	"encoding/json"
	"time"
)

// AnalysisRequest is the body of POST /analyze.
type AnalysisRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	IncludeAI bool   `json:"include_ai"`
}

// PredictionRequest is the body of POST /personalized-prediction.
type PredictionRequest struct {
	StartDate   string      `json:"startDate"`
	EndDate     string      `json:"endDate"`
	Timeframe   string      `json:"timeframe"`
	CustomQuery string      `json:"customQuery"`
	UserProfile UserProfile `json:"userProfile"`
}

// Summary holds the aggregate statistics of an analysis. Metrics are pointers
// because the backend omits the ones it could not compute.
type Summary struct {
	BBox          []float64 `json:"bbox,omitempty"`
	Dates         []string  `json:"dates,omitempty"`
	PrecipMean    *float64  `json:"precip_mean_mm_per_day,omitempty"`
	TempMean      *float64  `json:"temp_mean_C,omitempty"`
	WindMean      *float64  `json:"wind_mean_m_s,omitempty"`
	DroughtIndex  *float64  `json:"drought_index_mean,omitempty"`
	AOD           *float64  `json:"aod_mean,omitempty"`
	MapPath       string    `json:"map_path,omitempty"`
	QuickPlotPath string    `json:"quick_plot_path,omitempty"`
}

// Files returns the non-empty generated file paths of the summary.
func (s Summary) Files() []string {
	var files []string
	for _, p := range []string{s.MapPath, s.QuickPlotPath} {
		if p != "" {
			files = append(files, p)
		}
	}
	return files
}

// AnalysisResult is the result payload of a completed analysis job.
type AnalysisResult struct {
	Summary    Summary `json:"summary"`
	AIAnalysis string  `json:"ai_analysis,omitempty"`
	OutputFile string  `json:"output_file,omitempty"`
}

// PredictionProfile is the subset of the user profile echoed back in a prediction.
type PredictionProfile struct {
	Name        string                `json:"name,omitempty"`
	Location    string                `json:"location,omitempty"`
	Purpose     string                `json:"purpose,omitempty"`
	Preferences PredictionPreferences `json:"preferences"`
}

// PredictionPeriod is the date range a prediction covers.
type PredictionPeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// PredictionResult is the result payload of a completed personalized prediction.
type PredictionResult struct {
	Type                 string            `json:"type"`
	UserProfile          PredictionProfile `json:"user_profile"`
	Period               PredictionPeriod  `json:"prediction_period"`
	BaseData             *Summary          `json:"base_data,omitempty"`
	PersonalizedAnalysis string            `json:"personalized_analysis"`
	Timestamp            string            `json:"timestamp"`
	Version              string            `json:"version"`
}

// HistoryEntry is one generated result file listed by GET /history.
type HistoryEntry struct {
	Filename string   `json:"filename"`
	Dates    []string `json:"dates"`
	Created  float64  `json:"created"` // unix seconds
	URL      string   `json:"url"`
}

// CreatedAt converts the unix timestamp to a time.Time.
func (h HistoryEntry) CreatedAt() time.Time {
	sec := int64(h.Created)
	nsec := int64((h.Created - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

// ServerStatus is the body of GET /status.
type ServerStatus struct {
	Status              string `json:"status"`
	EarthAccessLoggedIn bool   `json:"earthaccess_logged_in"`
	Timestamp           string `json:"timestamp"`
}

// StoredResult is a completed job result kept in the local session store.
type StoredResult struct {
	JobID   string          `json:"job_id"`
	Kind    JobKind         `json:"kind"`
	SavedAt time.Time       `json:"saved_at"`
	Result  json.RawMessage `json:"result"`
}
