// Package report turns AI-generated text returned by the backend into
// structured values for rendering.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// NotAvailable is the summary shown when the backend produced no AI text.
const NotAvailable = "AI analysis not available"

// Risks are the per-sector risk assessments of a report.
type Risks struct {
	Agriculture string
	Health      string
	Transport   string
}

// RiskReport is the AI risk assessment attached to an analysis result.
// When Parsed is false the text did not match the schema and only Raw
// (and possibly Summary) is meaningful.
type RiskReport struct {
	Summary         string
	Risks           Risks
	Recommendations []string
	Parsed          bool
	Raw             string
}

// rawReport is the JSON schema the backend's model is prompted to answer with.
type rawReport struct {
	Summary string `json:"ozet"`
	Risks   *struct {
		Agriculture string `json:"tarim"`
		Health      string `json:"saglik"`
		Transport   string `json:"ulasim"`
	} `json:"riskler"`
	Recommendations []string `json:"oneriler"`
}

// ParseRiskReport decodes text strictly against the report schema. It never
// fails: text that does not match yields the fallback value.
func ParseRiskReport(text string) RiskReport {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return RiskReport{Summary: NotAvailable}
	}

	rr, err := decodeReport(unfence(trimmed))
	if err != nil {
		return RiskReport{Raw: text}
	}

	out := RiskReport{
		Summary:         strings.TrimSpace(rr.Summary),
		Recommendations: nonEmpty(rr.Recommendations),
		Parsed:          true,
		Raw:             text,
	}
	if rr.Risks != nil {
		out.Risks = Risks{
			Agriculture: strings.TrimSpace(rr.Risks.Agriculture),
			Health:      strings.TrimSpace(rr.Risks.Health),
			Transport:   strings.TrimSpace(rr.Risks.Transport),
		}
	}
	return out
}

func decodeReport(body string) (rawReport, error) {
	var rr rawReport
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rr); err != nil {
		return rawReport{}, fmt.Errorf("decode report: %w", err)
	}
	// Exactly one JSON value.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return rawReport{}, errors.New("decode report: trailing data after object")
	}
	if strings.TrimSpace(rr.Summary) == "" {
		return rawReport{}, errors.New("decode report: empty summary")
	}
	return rr, nil
}

// unfence removes one surrounding markdown code fence (``` or ```json).
func unfence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := s[3 : len(s)-3]
	// Drop the info string on the opening line.
	if i := strings.IndexByte(inner, '\n'); i >= 0 {
		lang := strings.TrimSpace(inner[:i])
		if lang == "" || lang == "json" {
			inner = inner[i+1:]
		}
	}
	return strings.TrimSpace(inner)
}

func nonEmpty(items []string) []string {
	var out []string
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}
