package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type slide struct {
	title string
	body  string
}

var slides = []slide{
	{
		title: "Welcome to skywatch",
		body:  "Weather intelligence from NASA Earth science data, right in your terminal.",
	},
	{
		title: "Weather analysis",
		body:  "Analyze temperature, precipitation, wind, drought and aerosols for any date range, with optional AI risk assessments for agriculture, health and transport.",
	},
	{
		title: "Personalized predictions",
		body:  "Tell skywatch about your activities and health considerations and get forecasts with recommendations tailored to you.",
	},
	{
		title: "Settings",
		body:  "Edit your profile with `skywatch profile set`, reset onboarding or clear local data from the Settings menu at any time.",
	},
}

type onboardingModel struct {
	index    int
	finished bool
	width    int
}

func (m onboardingModel) Init() tea.Cmd {
	return nil
}

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "s":
			m.finished = true
			return m, tea.Quit
		case "left", "h", "backspace":
			if m.index > 0 {
				m.index--
			}
		case "right", "l", "enter", " ":
			if m.index == len(slides)-1 {
				m.finished = true
				return m, tea.Quit
			}
			m.index++
		}
	}
	return m, nil
}

func (m onboardingModel) View() string {
	s := slides[m.index]
	width := 60
	if m.width > 0 {
		width = clamp(m.width-8, 20, 80)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(s.title))
	b.WriteString("\n")
	b.WriteString(itemStyle.Render(wordWrap(s.body, width)))
	b.WriteString("\n\n")

	dots := make([]string, len(slides))
	for i := range slides {
		if i == m.index {
			dots[i] = selectedStyle.UnsetPadding().Render("●")
		} else {
			dots[i] = mutedStyle.Render("○")
		}
	}
	b.WriteString(itemStyle.Render(strings.Join(dots, " ")))
	b.WriteString("\n")

	next := "→ next"
	if m.index == len(slides)-1 {
		next = "enter get started"
	}
	b.WriteString(hintStyle.Render(fmt.Sprintf("%s  ← back  s skip  q quit", next)))
	return b.String()
}

// RunOnboarding shows the introductory slides. It returns true when the user
// finished or skipped them, false when they quit.
func RunOnboarding() (bool, error) {
	p := tea.NewProgram(onboardingModel{})
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	return result.(onboardingModel).finished, nil
}
