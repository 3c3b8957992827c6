package report

import (
	"strings"
	"unicode"
)

// Section identifies one part of a personalized prediction.
type Section int

const (
	SectionForecast Section = iota
	SectionInsights
	SectionRecommendations
	SectionWarnings
)

func (s Section) String() string {
	switch s {
	case SectionForecast:
		return "Forecast"
	case SectionInsights:
		return "Insights"
	case SectionRecommendations:
		return "Recommendations"
	case SectionWarnings:
		return "Warnings"
	default:
		return "Unknown"
	}
}

// Sections lists every section in display order.
var Sections = []Section{SectionForecast, SectionInsights, SectionRecommendations, SectionWarnings}

// headings maps normalized heading lines to their section. A line is a
// heading only when it equals one of these after normalization.
var headings = map[string]Section{
	"NUMERICAL FORECAST":         SectionForecast,
	"FORECAST DATA":              SectionForecast,
	"FORECAST":                   SectionForecast,
	"PERSONALIZED INSIGHTS":      SectionInsights,
	"INSIGHTS":                   SectionInsights,
	"ACTIONABLE RECOMMENDATIONS": SectionRecommendations,
	"RECOMMENDATIONS":            SectionRecommendations,
	"WARNINGS & TIPS":            SectionWarnings,
	"WARNINGS AND TIPS":          SectionWarnings,
	"WARNINGS":                   SectionWarnings,
	"ALERTS":                     SectionWarnings,
}

// PredictionSections is a personalized analysis split by heading.
type PredictionSections struct {
	Forecast        string
	Insights        string
	Recommendations string
	Warnings        string
	// Structured is false when no heading was found and everything is in Insights.
	Structured bool
}

// Get returns the text of s.
func (p PredictionSections) Get(s Section) string {
	switch s {
	case SectionForecast:
		return p.Forecast
	case SectionRecommendations:
		return p.Recommendations
	case SectionWarnings:
		return p.Warnings
	default:
		return p.Insights
	}
}

// SplitPrediction splits text into sections. Text before the first heading
// belongs to Insights. Repeated headings append to the same section.
func SplitPrediction(text string) PredictionSections {
	var bufs [4][]string
	current := SectionInsights
	structured := false

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if sec, ok := headings[normalizeHeading(line)]; ok {
			current = sec
			structured = true
			continue
		}
		bufs[current] = append(bufs[current], line)
	}

	join := func(s Section) string { return strings.TrimSpace(strings.Join(bufs[s], "\n")) }
	return PredictionSections{
		Forecast:        join(SectionForecast),
		Insights:        join(SectionInsights),
		Recommendations: join(SectionRecommendations),
		Warnings:        join(SectionWarnings),
		Structured:      structured,
	}
}

// normalizeHeading strips markdown heading marks, emphasis, leading
// numbering ("1." / "2)") and a trailing colon, then upper-cases.
func normalizeHeading(line string) string {
	s := strings.TrimSpace(line)
	s = strings.TrimLeft(s, "#")
	s = strings.NewReplacer("**", "", "__", "").Replace(s)
	s = strings.TrimSpace(s)

	digits := strings.TrimLeftFunc(s, unicode.IsDigit)
	if len(digits) < len(s) && (strings.HasPrefix(digits, ".") || strings.HasPrefix(digits, ")")) {
		s = strings.TrimSpace(digits[1:])
	}

	s = strings.TrimSpace(strings.TrimSuffix(s, ":"))
	return strings.ToUpper(s)
}
