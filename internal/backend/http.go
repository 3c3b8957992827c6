package backend

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Endpoint names used as rate-limit and metric keys.
const (
	EndpointStatus             = "status"
	EndpointLogin              = "login"
	EndpointAnalyze            = "analyze"
	EndpointProgress           = "progress"
	EndpointPrediction         = "personalized-prediction"
	EndpointPredictionProgress = "prediction-progress"
	EndpointHistory            = "history"
	EndpointFiles              = "files"
)

var knownEndpoints = map[string]bool{
	EndpointStatus:             true,
	EndpointLogin:              true,
	EndpointAnalyze:            true,
	EndpointProgress:           true,
	EndpointPrediction:         true,
	EndpointPredictionProgress: true,
	EndpointHistory:            true,
	EndpointFiles:              true,
}

// EndpointKey maps a request to the backend endpoint it targets, e.g.
// /api/progress/analysis_1 -> "progress". Unknown paths map to "other".
func EndpointKey(req *http.Request) string {
	for _, seg := range strings.Split(strings.Trim(req.URL.Path, "/"), "/") {
		if knownEndpoints[seg] {
			return seg
		}
	}
	return "other"
}

// parseRetryAfter parses the Retry-After header value into a duration.
// Supports seconds format (e.g. "120"). Returns zero if absent or unparseable.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
