package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/report"
)

const (
	outputTable = "table"
	outputJSON  = "json"
)

func validOutput(format string) error {
	if format != outputTable && format != outputJSON {
		return fmt.Errorf("unknown output format %q (want %s or %s)", format, outputTable, outputJSON)
	}
	return nil
}

// renderResult writes a completed job's result in the requested format.
func renderResult(w io.Writer, kind model.JobKind, raw json.RawMessage, format string, fileURL func(string) string) error {
	if format == outputJSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("format result: %w", err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(w)
		return err
	}

	switch kind {
	case model.KindAnalysis:
		var res model.AnalysisResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("decode analysis result: %w", err)
		}
		renderAnalysis(w, res, fileURL)
	case model.KindPrediction:
		var res model.PredictionResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return fmt.Errorf("decode prediction result: %w", err)
		}
		renderPrediction(w, res)
	default:
		return fmt.Errorf("unknown job kind %q", kind)
	}
	return nil
}

func metric(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return strings.TrimSpace(fmt.Sprintf("%.2f %s", *v, unit))
}

func renderSummary(w io.Writer, s model.Summary) {
	table := tablewriter.NewWriter(w)
	table.Header("Metric", "Value")
	if len(s.Dates) == 2 {
		table.Append([]string{"Period", s.Dates[0] + " → " + s.Dates[1]})
	}
	if len(s.BBox) == 4 {
		table.Append([]string{"Area (bbox)", fmt.Sprintf("%.1f, %.1f, %.1f, %.1f", s.BBox[0], s.BBox[1], s.BBox[2], s.BBox[3])})
	}
	table.Append([]string{"Temperature", metric(s.TempMean, "°C")})
	table.Append([]string{"Precipitation", metric(s.PrecipMean, "mm/day")})
	table.Append([]string{"Wind speed", metric(s.WindMean, "m/s")})
	table.Append([]string{"Drought index", metric(s.DroughtIndex, "")})
	table.Append([]string{"Aerosol optical depth", metric(s.AOD, "")})
	table.Render()
}

func renderAnalysis(w io.Writer, res model.AnalysisResult, fileURL func(string) string) {
	fmt.Fprintln(w, "Weather analysis")
	renderSummary(w, res.Summary)

	rr := report.ParseRiskReport(res.AIAnalysis)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "AI insights")
	switch {
	case rr.Parsed:
		fmt.Fprintln(w, rr.Summary)
		table := tablewriter.NewWriter(w)
		table.Header("Area", "Risk")
		table.Append([]string{"Agriculture", orNA(rr.Risks.Agriculture)})
		table.Append([]string{"Health", orNA(rr.Risks.Health)})
		table.Append([]string{"Transport", orNA(rr.Risks.Transport)})
		table.Render()
		for _, rec := range rr.Recommendations {
			fmt.Fprintf(w, "  • %s\n", rec)
		}
	case strings.TrimSpace(rr.Raw) != "":
		fmt.Fprintln(w, "(unstructured response)")
		fmt.Fprintln(w, rr.Raw)
	default:
		fmt.Fprintln(w, rr.Summary)
	}

	files := res.Summary.Files()
	if res.OutputFile != "" {
		files = append(files, res.OutputFile)
	}
	if len(files) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Files")
		for _, f := range files {
			if fileURL != nil {
				fmt.Fprintf(w, "  %s  %s\n", f, fileURL(f))
			} else {
				fmt.Fprintf(w, "  %s\n", f)
			}
		}
	}
}

func renderPrediction(w io.Writer, res model.PredictionResult) {
	title := fmt.Sprintf("Personalized prediction %s → %s", res.Period.StartDate, res.Period.EndDate)
	if res.UserProfile.Name != "" {
		title += " for " + res.UserProfile.Name
	}
	fmt.Fprintln(w, title)
	if res.BaseData != nil {
		renderSummary(w, *res.BaseData)
	}

	sections := report.SplitPrediction(res.PersonalizedAnalysis)
	for _, sec := range report.Sections {
		text := sections.Get(sec)
		if text == "" {
			continue
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "== %s ==\n", sec)
		fmt.Fprintln(w, text)
	}
}

func renderHistory(w io.Writer, entries []model.HistoryEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No generated files.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("File", "Dates", "Created", "URL")
	for _, e := range entries {
		table.Append([]string{
			e.Filename,
			strings.Join(e.Dates, " → "),
			e.CreatedAt().Local().Format("2006-01-02 15:04"),
			e.URL,
		})
	}
	table.Render()
}

func renderProfile(w io.Writer, p *model.UserProfile) {
	if p == nil {
		fmt.Fprintln(w, "No profile saved. Create one with `skywatch profile set`.")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")
	for _, row := range profileRows(*p) {
		table.Append([]string{row[0], row[1]})
	}
	table.Render()
}

func profileRows(p model.UserProfile) [][2]string {
	list := func(v []string) string {
		if len(v) == 0 {
			return "-"
		}
		return strings.Join(v, ", ")
	}
	return [][2]string{
		{"Name", orDash(p.Name)},
		{"Location", orDash(p.Location)},
		{"Purpose", orDash(p.Purpose)},
		{"Lifestyle", orDash(p.Lifestyle)},
		{"Activities", list(p.Activities)},
		{"Health conditions", list(p.HealthConditions)},
		{"Data interests", list(p.DataInterests)},
		{"Notifications", fmt.Sprint(p.Notifications)},
		{"Default timeframe", orDash(p.PredictionPreferences.DefaultTimeframe)},
		{"Detail level", orDash(p.PredictionPreferences.DetailLevel)},
		{"Recommendations", fmt.Sprint(p.PredictionPreferences.IncludeRecommendations)},
	}
}

func renderStatus(w io.Writer, st *model.ServerStatus, statusErr error, sess model.Session) {
	table := tablewriter.NewWriter(w)
	table.Header("Check", "Value")
	if statusErr != nil {
		table.Append([]string{"Backend", "unreachable: " + statusErr.Error()})
	} else {
		table.Append([]string{"Backend", st.Status})
		table.Append([]string{"EarthAccess login", fmt.Sprint(st.EarthAccessLoggedIn)})
	}
	user := "no"
	if sess.LoggedIn {
		user = "yes (" + orDash(sess.Username) + ")"
	}
	table.Append([]string{"Logged in locally", user})
	table.Append([]string{"Onboarding complete", fmt.Sprint(sess.OnboardingComplete)})
	profile := "none"
	if sess.Profile != nil {
		profile = orDash(sess.Profile.Name)
	}
	table.Append([]string{"Profile", profile})
	table.Render()
}

func printOutcome(w io.Writer, run jobRun) {
	elapsed := run.elapsed.Round(time.Second)
	switch run.job.Status {
	case model.StatusCompleted:
		fmt.Fprintf(w, "✓ %s %s completed in %s\n", run.job.Kind, run.job.ID, elapsed)
	case model.StatusError:
		fmt.Fprintf(w, "✗ %s %s failed after %s: %s\n", run.job.Kind, run.job.ID, elapsed, run.errMsg)
	default:
		fmt.Fprintf(w, "Stopped following %s %s; it keeps running on the backend. Resume with `skywatch follow %s --kind %s`.\n",
			run.job.Kind, run.job.ID, run.job.ID, run.job.Kind)
	}
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
