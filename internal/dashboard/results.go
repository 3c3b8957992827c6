package dashboard

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/skywatch/internal/model"
	"github.com/amishk599/skywatch/internal/report"
)

// tab is one page of the results view.
type tab struct {
	title  string
	render func(width int) string
}

type resultsModel struct {
	heading  string
	tabs     []tab
	active   int
	files    []string // Files tab entries, analysis only
	cursor   int
	fileURL  func(string) string
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

// Analysis tab indexes.
const (
	tabOverview = iota
	tabInsights
	tabFiles
)

func newResultsModel(kind model.JobKind, raw json.RawMessage, fileURL func(string) string) (resultsModel, error) {
	m := resultsModel{fileURL: fileURL}

	switch kind {
	case model.KindAnalysis:
		var res model.AnalysisResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return m, fmt.Errorf("decode analysis result: %w", err)
		}
		m.heading = "Analysis results"
		m.files = analysisFiles(res)
		rr := report.ParseRiskReport(res.AIAnalysis)
		m.tabs = []tab{
			{"Overview", func(int) string { return renderOverview(res.Summary) }},
			{"AI Insights", func(w int) string { return renderRiskReport(rr, w) }},
			{"Files", nil}, // rendered from the cursor state
		}

	case model.KindPrediction:
		var res model.PredictionResult
		if err := json.Unmarshal(raw, &res); err != nil {
			return m, fmt.Errorf("decode prediction result: %w", err)
		}
		m.heading = fmt.Sprintf("Prediction %s → %s", res.Period.StartDate, res.Period.EndDate)
		if res.UserProfile.Name != "" {
			m.heading += " for " + res.UserProfile.Name
		}
		sections := report.SplitPrediction(res.PersonalizedAnalysis)
		for _, sec := range report.Sections {
			m.tabs = append(m.tabs, tab{sec.String(), func(w int) string {
				text := sections.Get(sec)
				if sec == report.SectionForecast && res.BaseData != nil {
					text = strings.TrimSpace(renderOverview(*res.BaseData) + "\n" + text)
				}
				if text == "" {
					return mutedStyle.Render("Nothing in this section.")
				}
				return wrapParagraphs(text, w)
			}})
		}

	default:
		return m, fmt.Errorf("unknown job kind %q", kind)
	}
	return m, nil
}

func analysisFiles(res model.AnalysisResult) []string {
	files := res.Summary.Files()
	if res.OutputFile != "" {
		files = append(files, res.OutputFile)
	}
	return files
}

func (m resultsModel) Init() tea.Cmd {
	return nil
}

func (m resultsModel) filesTab() bool {
	return m.files != nil && m.active == tabFiles
}

func (m resultsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Heading (1) + tabs (1) + border (2) + status bar (1).
		h := max(m.height-5, 5)
		if !m.ready {
			m.viewport = viewport.New(m.width-2, h)
			m.ready = true
		} else {
			m.viewport.Width = m.width - 2
			m.viewport.Height = h
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.active = (m.active + 1) % len(m.tabs)
			m.refresh()
			m.viewport.SetYOffset(0)
			return m, nil
		case "shift+tab", "left", "h":
			m.active = (m.active - 1 + len(m.tabs)) % len(m.tabs)
			m.refresh()
			m.viewport.SetYOffset(0)
			return m, nil
		case "up", "k":
			if m.filesTab() {
				m.cursor = clamp(m.cursor-1, 0, max(len(m.files)-1, 0))
				m.refresh()
				return m, nil
			}
		case "down", "j":
			if m.filesTab() {
				m.cursor = clamp(m.cursor+1, 0, max(len(m.files)-1, 0))
				m.refresh()
				return m, nil
			}
		case "o", "enter":
			if m.filesTab() && len(m.files) > 0 && m.fileURL != nil {
				openURL(m.fileURL(m.files[m.cursor]))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *resultsModel) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.content())
}

func (m resultsModel) content() string {
	if m.filesTab() {
		return m.renderFiles()
	}
	return m.tabs[m.active].render(max(m.viewport.Width-4, 20))
}

func (m resultsModel) renderFiles() string {
	if len(m.files) == 0 {
		return mutedStyle.Render("No files were generated.")
	}
	var b strings.Builder
	for i, f := range m.files {
		line := f
		if m.fileURL != nil {
			line = fmt.Sprintf("%s  %s", f, mutedStyle.Render(m.fileURL(f)))
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.UnsetPadding().Render("> ") + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m resultsModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	titles := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		if i == m.active {
			titles[i] = activeTabStyle.Render(t.title)
		} else {
			titles[i] = tabStyle.Render(t.title)
		}
	}

	status := " ←/→/tab switch tab  ↑/↓ scroll  esc back"
	if m.filesTab() {
		status = " ←/→/tab switch tab  ↑/↓ select  o open in browser  esc back"
	}

	return lipgloss.NewStyle().Bold(true).Padding(0, 1).Render(m.heading) + "\n" +
		lipgloss.JoinHorizontal(lipgloss.Top, titles...) + "\n" +
		activeBorderStyle.Width(m.width-2).Render(m.viewport.View()) + "\n" +
		statusBarStyle.Width(m.width).Render(status)
}

func formatMetric(v *float64, unit string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f %s", *v, unit)
}

func renderOverview(s model.Summary) string {
	var b strings.Builder
	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(valueStyle.Render(value))
		b.WriteByte('\n')
	}

	if len(s.Dates) == 2 {
		addField("Period", s.Dates[0]+" → "+s.Dates[1])
	}
	if len(s.BBox) == 4 {
		addField("Area (bbox)", fmt.Sprintf("%.1f, %.1f, %.1f, %.1f", s.BBox[0], s.BBox[1], s.BBox[2], s.BBox[3]))
	}
	b.WriteByte('\n')
	addField("Temperature", formatMetric(s.TempMean, "°C"))
	addField("Precipitation", formatMetric(s.PrecipMean, "mm/day"))
	addField("Wind speed", formatMetric(s.WindMean, "m/s"))
	addField("Drought index", formatMetric(s.DroughtIndex, ""))
	addField("Aerosol optical depth", formatMetric(s.AOD, ""))
	return b.String()
}

func renderRiskReport(r report.RiskReport, width int) string {
	divider := func(label string) string {
		fill := strings.Repeat("─", max(width-len(label), 3))
		return dividerStyle.Render(label + fill)
	}

	if !r.Parsed {
		if strings.TrimSpace(r.Raw) == "" {
			return mutedStyle.Render(r.Summary)
		}
		return mutedStyle.Render("The AI response was not in the expected format; showing it as-is.") +
			"\n\n" + wrapParagraphs(r.Raw, width)
	}

	var b strings.Builder
	b.WriteString(divider("── Summary ") + "\n\n")
	b.WriteString(wordWrap(r.Summary, width) + "\n\n")

	b.WriteString(divider("── Risks ") + "\n\n")
	for _, risk := range []struct{ label, text string }{
		{"Agriculture", r.Risks.Agriculture},
		{"Health", r.Risks.Health},
		{"Transport", r.Risks.Transport},
	} {
		if risk.text == "" {
			risk.text = "n/a"
		}
		b.WriteString(labelStyle.Render(risk.label) + "\n")
		b.WriteString(wordWrap(risk.text, width) + "\n\n")
	}

	if len(r.Recommendations) > 0 {
		b.WriteString(divider("── Recommendations ") + "\n\n")
		for _, rec := range r.Recommendations {
			b.WriteString("  • " + wordWrap(rec, width-4) + "\n")
		}
	}
	return b.String()
}

// RunResults shows a completed job's result in a tabbed view. fileURL maps
// generated file paths to browser URLs and may be nil.
func RunResults(kind model.JobKind, raw json.RawMessage, fileURL func(string) string) error {
	m, err := newResultsModel(kind, raw, fileURL)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
