package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/skywatch/internal/model"
)

// Lines per history item (filename + subtitle + blank separator).
const historyItemHeight = 3

var (
	entryTitleStyle = lipgloss.NewStyle().
			Bold(true)

	entrySubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedEntryTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedEntrySubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))
)

type historyModel struct {
	entries  []model.HistoryEntry
	fileURL  func(string) string
	cursor   int
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

func (m historyModel) Init() tea.Cmd {
	return nil
}

func (m historyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Header (1) + border (2) + status bar (1).
		h := max(m.height-4, 3)
		if !m.ready {
			m.viewport = viewport.New(m.width-2, h)
			m.ready = true
		} else {
			m.viewport.Width = m.width - 2
			m.viewport.Height = h
		}
		m.viewport.SetContent(renderEntries(m.entries, m.cursor))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
			return m, nil
		case "down", "j":
			m.moveCursor(1)
			return m, nil
		case "o", "enter":
			if len(m.entries) > 0 && m.fileURL != nil {
				openURL(m.fileURL(m.entries[m.cursor].URL))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *historyModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.entries)-1, 0))
	m.viewport.SetContent(renderEntries(m.entries, m.cursor))

	cursorTop := m.cursor * historyItemHeight
	cursorBottom := cursorTop + historyItemHeight - 1
	if cursorTop < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(cursorBottom - m.viewport.Height + 1)
	}
}

func (m historyModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1).Render(fmt.Sprintf("History (%d files)", len(m.entries)))
	status := statusBarStyle.Width(m.width).Render(" ↑/↓ cursor  o open in browser  esc back")
	return header + "\n" + activeBorderStyle.Width(m.width-2).Render(m.viewport.View()) + "\n" + status
}

func renderEntries(entries []model.HistoryEntry, cursor int) string {
	if len(entries) == 0 {
		return "  (no generated files yet)"
	}

	var b strings.Builder
	for i, e := range entries {
		titleSt, subtitleSt, prefix := entryTitleStyle, entrySubtitleStyle, "  "
		if i == cursor {
			titleSt, subtitleSt, prefix = selectedEntryTitleStyle, selectedEntrySubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(e.Filename))
		b.WriteByte('\n')

		dates := "n/a"
		if len(e.Dates) > 0 {
			dates = strings.Join(e.Dates, " → ")
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · created %s", dates, e.CreatedAt().Format("2006-01-02 15:04"))))
		b.WriteByte('\n')

		if i < len(entries)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RunHistory shows the generated-file history; o opens a file in the browser.
func RunHistory(entries []model.HistoryEntry, fileURL func(string) string) error {
	_, err := tea.NewProgram(historyModel{entries: entries, fileURL: fileURL}, tea.WithAltScreen()).Run()
	return err
}
