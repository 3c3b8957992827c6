package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/skywatch/internal/model"
)

func newDateInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = len(model.DateLayout)
	ti.Width = len(model.DateLayout) + 2
	ti.SetValue(value)
	return ti
}

// Analysis form field indexes.
const (
	fieldStart = iota
	fieldEnd
	fieldAI
	analysisFieldCount
)

type analysisFormModel struct {
	start     textinput.Model
	end       textinput.Model
	includeAI bool
	focus     int
	err       string
	submitted bool
	request   model.AnalysisRequest
}

func newAnalysisForm(def model.DateRange) analysisFormModel {
	m := analysisFormModel{
		start:     newDateInput("start YYYY-MM-DD", def.StartString()),
		end:       newDateInput("end YYYY-MM-DD", def.EndString()),
		includeAI: true,
	}
	m.start.Focus()
	return m
}

func (m analysisFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *analysisFormModel) setFocus(i int) tea.Cmd {
	m.focus = (i + analysisFieldCount) % analysisFieldCount
	m.start.Blur()
	m.end.Blur()
	switch m.focus {
	case fieldStart:
		return m.start.Focus()
	case fieldEnd:
		return m.end.Focus()
	}
	return nil
}

func (m analysisFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			return m, m.setFocus(m.focus + 1)
		case "shift+tab", "up":
			return m, m.setFocus(m.focus - 1)
		case " ":
			if m.focus == fieldAI {
				m.includeAI = !m.includeAI
				return m, nil
			}
		case "enter":
			r, err := model.ParseDateRange(strings.TrimSpace(m.start.Value()), strings.TrimSpace(m.end.Value()))
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.request = model.AnalysisRequest{
				StartDate: r.StartString(),
				EndDate:   r.EndString(),
				IncludeAI: m.includeAI,
			}
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldStart:
		m.start, cmd = m.start.Update(msg)
	case fieldEnd:
		m.end, cmd = m.end.Update(msg)
	}
	return m, cmd
}

func (m analysisFormModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("New weather analysis"))
	b.WriteString("\n")

	row := func(i int, label, value string) {
		prefix := "  "
		if m.focus == i {
			prefix = "> "
		}
		b.WriteString(itemStyle.Render(prefix + labelStyle.Render(label) + value))
		b.WriteString("\n")
	}
	row(fieldStart, "Start date", m.start.View())
	row(fieldEnd, "End date", m.end.View())
	row(fieldAI, "AI risk assessment", checkbox(m.includeAI))

	if m.err != "" {
		b.WriteString("\n" + itemStyle.Render(errorStyle.Render("⚠ "+m.err)) + "\n")
	}
	b.WriteString(hintStyle.Render("tab/↑/↓ move  space toggle  enter start  esc back"))
	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// RunAnalysisForm asks for the analysis date range. ok is false when the
// user backed out.
func RunAnalysisForm(def model.DateRange) (req model.AnalysisRequest, ok bool, err error) {
	p := tea.NewProgram(newAnalysisForm(def))
	result, err := p.Run()
	if err != nil {
		return model.AnalysisRequest{}, false, err
	}
	final := result.(analysisFormModel)
	return final.request, final.submitted, nil
}

// PredictionInput is what the prediction form collects. The caller adds
// the stored profile to build the request.
type PredictionInput struct {
	Timeframe string
	Range     model.DateRange
	Query     string
}

// Prediction form field indexes.
const (
	fieldTimeframe = iota
	fieldPredStart
	fieldPredEnd
	fieldQuery
	predictionFieldCount
)

type predictionFormModel struct {
	now       time.Time
	timeframe int // index into model.Timeframes
	start     textinput.Model
	end       textinput.Model
	query     textinput.Model
	focus     int
	err       string
	submitted bool
	input     PredictionInput
}

func newPredictionForm(defaultTimeframe string, now time.Time) predictionFormModel {
	tf := 1 // 7days
	for i, v := range model.Timeframes {
		if v == defaultTimeframe {
			tf = i
		}
	}
	tomorrow := now.AddDate(0, 0, 1).Format(model.DateLayout)

	q := textinput.New()
	q.Placeholder = "optional question, e.g. best day for a hike?"
	q.CharLimit = 300
	q.Width = 50

	return predictionFormModel{
		now:       now,
		timeframe: tf,
		start:     newDateInput("start YYYY-MM-DD", tomorrow),
		end:       newDateInput("end YYYY-MM-DD", tomorrow),
		query:     q,
	}
}

func (m predictionFormModel) Init() tea.Cmd {
	return nil
}

func (m predictionFormModel) custom() bool {
	return model.Timeframes[m.timeframe] == model.TimeframeCustom
}

func (m *predictionFormModel) setFocus(i int) tea.Cmd {
	for {
		i = (i + predictionFieldCount) % predictionFieldCount
		// Date fields only apply to the custom timeframe.
		if m.custom() || (i != fieldPredStart && i != fieldPredEnd) {
			break
		}
		if i > m.focus {
			i++
		} else {
			i--
		}
	}
	m.focus = i
	m.start.Blur()
	m.end.Blur()
	m.query.Blur()
	switch m.focus {
	case fieldPredStart:
		return m.start.Focus()
	case fieldPredEnd:
		return m.end.Focus()
	case fieldQuery:
		return m.query.Focus()
	}
	return nil
}

func (m predictionFormModel) resolve() (PredictionInput, error) {
	tf := model.Timeframes[m.timeframe]
	in := PredictionInput{Timeframe: tf, Query: strings.TrimSpace(m.query.Value())}
	var err error
	if tf == model.TimeframeCustom {
		in.Range, err = model.ParseDateRange(strings.TrimSpace(m.start.Value()), strings.TrimSpace(m.end.Value()))
	} else {
		in.Range, err = model.TimeframeRange(tf, m.now)
	}
	return in, err
}

func (m predictionFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			return m, m.setFocus(m.focus + 1)
		case "shift+tab", "up":
			return m, m.setFocus(m.focus - 1)
		case "left", "right":
			if m.focus == fieldTimeframe {
				delta := 1
				if key.String() == "left" {
					delta = -1
				}
				m.timeframe = (m.timeframe + delta + len(model.Timeframes)) % len(model.Timeframes)
				m.err = ""
				return m, nil
			}
		case "enter":
			in, err := m.resolve()
			if err != nil {
				m.err = err.Error()
				return m, nil
			}
			m.input = in
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case fieldPredStart:
		m.start, cmd = m.start.Update(msg)
	case fieldPredEnd:
		m.end, cmd = m.end.Update(msg)
	case fieldQuery:
		m.query, cmd = m.query.Update(msg)
	}
	return m, cmd
}

func (m predictionFormModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Personalized prediction"))
	b.WriteString("\n")

	row := func(i int, label, value string) {
		prefix := "  "
		if m.focus == i {
			prefix = "> "
		}
		b.WriteString(itemStyle.Render(prefix + labelStyle.Render(label) + value))
		b.WriteString("\n")
	}

	row(fieldTimeframe, "Timeframe", "‹ "+model.Timeframes[m.timeframe]+" ›")
	if m.custom() {
		row(fieldPredStart, "Start date", m.start.View())
		row(fieldPredEnd, "End date", m.end.View())
	} else if r, err := model.TimeframeRange(model.Timeframes[m.timeframe], m.now); err == nil {
		b.WriteString(itemStyle.Render("  " + labelStyle.Render("") + mutedStyle.Render(fmt.Sprintf("%s → %s", r.StartString(), r.EndString()))))
		b.WriteString("\n")
	}
	row(fieldQuery, "Question", m.query.View())

	if m.err != "" {
		b.WriteString("\n" + itemStyle.Render(errorStyle.Render("⚠ "+m.err)) + "\n")
	}
	b.WriteString(hintStyle.Render("tab/↑/↓ move  ←/→ timeframe  enter start  esc back"))
	return b.String()
}

// RunPredictionForm asks for the prediction timeframe and an optional
// question. ok is false when the user backed out.
func RunPredictionForm(defaultTimeframe string, now time.Time) (in PredictionInput, ok bool, err error) {
	p := tea.NewProgram(newPredictionForm(defaultTimeframe, now))
	result, err := p.Run()
	if err != nil {
		return PredictionInput{}, false, err
	}
	final := result.(predictionFormModel)
	return final.input, final.submitted, nil
}
