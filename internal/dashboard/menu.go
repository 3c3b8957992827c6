package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Main menu entries, in display order.
const (
	MenuAnalysis = iota
	MenuPrediction
	MenuLastResults
	MenuHistory
	MenuSettings
	MenuQuit
)

// MainMenu is the label list for RunMenu on the home screen.
var MainMenu = []string{
	"New analysis",
	"Personalized prediction",
	"Last results",
	"History",
	"Settings",
	"Quit",
}

// Settings menu entries.
const (
	SettingsShowProfile = iota
	SettingsResetOnboarding
	SettingsClearAll
	SettingsBack
)

// SettingsMenu is the label list of the settings screen.
var SettingsMenu = []string{
	"Show profile",
	"Reset onboarding",
	"Clear all local data",
	"Back",
}

type menuModel struct {
	title  string
	status string
	items  []string
	cursor int
	chosen int // -1 = no choice yet / quit
}

func (m menuModel) Init() tea.Cmd {
	return nil
}

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.chosen = -1
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m menuModel) View() string {
	s := titleStyle.Render(m.title)
	s += "\n"
	if m.status != "" {
		s += itemStyle.Render(mutedStyle.Render(m.status)) + "\n\n"
	}

	for i, label := range m.items {
		if i == m.cursor {
			s += selectedStyle.Render("> "+label) + "\n"
		} else {
			s += itemStyle.Render(label) + "\n"
		}
	}

	s += hintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// RunMenu shows an interactive selector with an optional status line.
// Returns the index of the chosen item, or -1 if the user quit.
func RunMenu(title, status string, items []string) (int, error) {
	m := menuModel{
		title:  title,
		status: status,
		items:  items,
		chosen: -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(menuModel)
	return final.chosen, nil
}
