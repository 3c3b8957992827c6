package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validReport = `{
  "ozet": "Hot and dry month.",
  "riskler": {"tarim": "Crop stress", "saglik": "Heat exhaustion", "ulasim": "Low"},
  "oneriler": ["Irrigate early", " ", "Stay hydrated"]
}`

func TestParseRiskReport_Valid(t *testing.T) {
	r := ParseRiskReport(validReport)

	require.True(t, r.Parsed)
	assert.Equal(t, "Hot and dry month.", r.Summary)
	assert.Equal(t, Risks{Agriculture: "Crop stress", Health: "Heat exhaustion", Transport: "Low"}, r.Risks)
	assert.Equal(t, []string{"Irrigate early", "Stay hydrated"}, r.Recommendations)
}

func TestParseRiskReport_CodeFence(t *testing.T) {
	for name, text := range map[string]string{
		"json fence":  "```json\n" + validReport + "\n```",
		"plain fence": "```\n" + validReport + "\n```",
	} {
		t.Run(name, func(t *testing.T) {
			r := ParseRiskReport(text)
			assert.True(t, r.Parsed)
			assert.Equal(t, "Hot and dry month.", r.Summary)
		})
	}
}

func TestParseRiskReport_Fallback(t *testing.T) {
	tests := map[string]string{
		"prose":          "The weather was nice overall.",
		"unknown field":  `{"ozet": "x", "score": 3}`,
		"empty summary":  `{"ozet": "  ", "oneriler": []}`,
		"trailing text":  `{"ozet": "x"} and more`,
		"two objects":    `{"ozet": "x"}{"ozet": "y"}`,
		"embedded json":  `Here you go: {"ozet": "x"}`,
		"truncated json": `{"ozet": "x", "riskler": {"tarim": "y"`,
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			r := ParseRiskReport(text)
			assert.False(t, r.Parsed)
			assert.Equal(t, text, r.Raw)
			assert.Empty(t, r.Summary)
		})
	}
}

func TestParseRiskReport_Empty(t *testing.T) {
	r := ParseRiskReport("  \n")
	assert.False(t, r.Parsed)
	assert.Equal(t, NotAvailable, r.Summary)
}

func TestParseRiskReport_RisksOptional(t *testing.T) {
	r := ParseRiskReport(`{"ozet": "Mild."}`)
	assert.True(t, r.Parsed)
	assert.Equal(t, Risks{}, r.Risks)
	assert.Nil(t, r.Recommendations)
}

func TestSplitPrediction_Structured(t *testing.T) {
	text := `Intro line.

1. **NUMERICAL FORECAST:**
Highs near 31C.

2. PERSONALIZED INSIGHTS:
Good for morning runs.

### 3. Actionable Recommendations
- Run before 8am

4. WARNINGS & TIPS:
Pollen is high.`

	got := SplitPrediction(text)
	assert.True(t, got.Structured)
	assert.Equal(t, "Highs near 31C.", got.Forecast)
	assert.Equal(t, "Intro line.\n\nGood for morning runs.", got.Insights)
	assert.Equal(t, "- Run before 8am", got.Recommendations)
	assert.Equal(t, "Pollen is high.", got.Warnings)
	assert.Equal(t, got.Warnings, got.Get(SectionWarnings))
}

func TestSplitPrediction_Unstructured(t *testing.T) {
	text := "Expect insights on rain.\nRecommendations include an umbrella."
	got := SplitPrediction(text)
	assert.False(t, got.Structured)
	assert.Equal(t, text, got.Insights)
	assert.Empty(t, got.Forecast)
	assert.Empty(t, got.Recommendations)
	assert.Empty(t, got.Warnings)
}

func TestNormalizeHeading(t *testing.T) {
	tests := map[string]string{
		"1. NUMERICAL FORECAST:": "NUMERICAL FORECAST",
		"**Warnings & Tips**":    "WARNINGS & TIPS",
		"## 12) insights":        "INSIGHTS",
		"2024 forecast":          "2024 FORECAST",
		"   ":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeHeading(in), "input %q", in)
	}
}
