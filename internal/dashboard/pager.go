package dashboard

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type pagerModel struct {
	title    string
	body     string
	viewport viewport.Model
	width    int
	ready    bool
}

func (m pagerModel) Init() tea.Cmd {
	return nil
}

func (m pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		h := max(msg.Height-4, 3)
		if !m.ready {
			m.viewport = viewport.New(m.width-2, h)
			m.ready = true
		} else {
			m.viewport.Width = m.width - 2
			m.viewport.Height = h
		}
		m.viewport.SetContent(wrapParagraphs(m.body, max(m.width-6, 20)))
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c", "enter":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m pagerModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return lipgloss.NewStyle().Bold(true).Padding(0, 1).Render(m.title) + "\n" +
		activeBorderStyle.Width(m.width-2).Render(m.viewport.View()) + "\n" +
		statusBarStyle.Width(m.width).Render(" ↑/↓ scroll  esc back")
}

// RunPager shows body in a scrollable full-screen view.
func RunPager(title, body string) error {
	_, err := tea.NewProgram(pagerModel{title: title, body: body}, tea.WithAltScreen()).Run()
	return err
}
