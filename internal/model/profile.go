package model

import (
	"fmt"
	"slices"
	"time"
)

// UserProfile is the locally persisted personalization profile. Every field
// is optional; JSON keys match what the backend expects in prediction requests.
type UserProfile struct {
	Name                  string                `json:"name,omitempty"`
	Location              string                `json:"location,omitempty"`
	Purpose               string                `json:"purpose,omitempty"`
	Lifestyle             string                `json:"lifestyle,omitempty"`
	Activities            []string              `json:"activities,omitempty"`
	HealthConditions      []string              `json:"healthConditions,omitempty"`
	DataInterests         []string              `json:"dataInterests,omitempty"`
	Notifications         bool                  `json:"notifications"`
	PredictionPreferences PredictionPreferences `json:"predictionPreferences"`
}

// PredictionPreferences are the user's defaults for personalized predictions.
type PredictionPreferences struct {
	DefaultTimeframe       string `json:"defaultTimeframe,omitempty"`
	DetailLevel            string `json:"detailLevel,omitempty"`
	IncludeRecommendations bool   `json:"includeRecommendations"`
}

// Option catalogs shown by the CLI and TUI. Stored profiles are never
// validated against them.
var (
	Purposes = []string{"daily_planning", "sports", "travel", "agriculture", "events", "health", "business", "research"}

	Activities = []string{"running", "cycling", "hiking", "gardening", "photography", "beach", "commuting", "outdoor_work"}

	HealthConditions = []string{"asthma", "allergies", "arthritis", "migraines", "heart_condition", "skin_sensitive", "respiratory", "none"}

	DataInterests = []string{"temperature", "precipitation", "humidity", "wind", "air_quality", "uv_index", "drought", "storms"}

	Lifestyles = []string{"early_bird", "night_owl", "indoor_focused", "outdoor_enthusiast", "flexible", "scheduled"}

	DetailLevels = []string{"basic", "detailed", "expert"}
)

// Timeframe presets for personalized predictions.
const (
	Timeframe3Days  = "3days"
	Timeframe7Days  = "7days"
	Timeframe14Days = "14days"
	Timeframe30Days = "30days"
	TimeframeCustom = "custom"
)

// DateLayout is the wire format of every date sent to the backend.
const DateLayout = "2006-01-02"

// timeframeDays is the number of days after the first day covered by each preset.
var timeframeDays = map[string]int{
	Timeframe3Days:  2,
	Timeframe7Days:  6,
	Timeframe14Days: 13,
	Timeframe30Days: 29,
}

// Timeframes lists every accepted timeframe value.
var Timeframes = []string{Timeframe3Days, Timeframe7Days, Timeframe14Days, Timeframe30Days, TimeframeCustom}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// StartString formats Start in DateLayout.
func (r DateRange) StartString() string { return r.Start.Format(DateLayout) }

// EndString formats End in DateLayout.
func (r DateRange) EndString() string { return r.End.Format(DateLayout) }

// TimeframeRange returns the prediction range for a preset. Presets start tomorrow.
// The custom timeframe has no implied range and returns an error.
func TimeframeRange(timeframe string, now time.Time) (DateRange, error) {
	days, ok := timeframeDays[timeframe]
	if !ok {
		return DateRange{}, fmt.Errorf("timeframe %q has no preset range (want one of %v)", timeframe, Timeframes[:4])
	}
	start := startOfDay(now).AddDate(0, 0, 1)
	return DateRange{Start: start, End: start.AddDate(0, 0, days)}, nil
}

// DefaultAnalysisRange returns the last 30 days ending today.
func DefaultAnalysisRange(now time.Time) DateRange {
	end := startOfDay(now)
	return DateRange{Start: end.AddDate(0, 0, -30), End: end}
}

// ParseDateRange parses two YYYY-MM-DD strings and checks their order.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("parse end date %q: %w", end, err)
	}
	if s.After(e) {
		return DateRange{}, fmt.Errorf("start date %s is after end date %s", start, end)
	}
	return DateRange{Start: s, End: e}, nil
}

// UnknownOptions returns the values not present in catalog.
func UnknownOptions(values, catalog []string) []string {
	var unknown []string
	for _, v := range values {
		if !slices.Contains(catalog, v) {
			unknown = append(unknown, v)
		}
	}
	return unknown
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
