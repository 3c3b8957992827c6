package dashboard

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type loginModel struct {
	username  textinput.Model
	password  textinput.Model
	focus     int
	err       string
	submitted bool
}

func newLoginForm(username string) loginModel {
	u := textinput.New()
	u.Placeholder = "Earthdata username"
	u.Width = 30
	u.SetValue(username)

	p := textinput.New()
	p.Placeholder = "password"
	p.Width = 30
	p.EchoMode = textinput.EchoPassword
	p.EchoCharacter = '•'

	m := loginModel{username: u, password: p}
	if username == "" {
		m.username.Focus()
	} else {
		m.focus = 1
		m.password.Focus()
	}
	return m
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *loginModel) toggleFocus() tea.Cmd {
	m.focus = 1 - m.focus
	if m.focus == 0 {
		m.password.Blur()
		return m.username.Focus()
	}
	m.username.Blur()
	return m.password.Focus()
}

func (m loginModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "shift+tab", "up", "down":
			return m, m.toggleFocus()
		case "enter":
			if strings.TrimSpace(m.username.Value()) == "" || m.password.Value() == "" {
				m.err = "username and password are required"
				return m, nil
			}
			m.submitted = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("NASA EarthAccess login"))
	b.WriteString("\n")
	b.WriteString(itemStyle.Render(mutedStyle.Render("Credentials are sent to the analysis backend only.")))
	b.WriteString("\n\n")
	b.WriteString(itemStyle.Render(labelStyle.Render("Username") + m.username.View()))
	b.WriteString("\n")
	b.WriteString(itemStyle.Render(labelStyle.Render("Password") + m.password.View()))
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString("\n" + itemStyle.Render(errorStyle.Render("⚠ "+m.err)) + "\n")
	}
	b.WriteString(hintStyle.Render("tab switch field  enter log in  esc back"))
	return b.String()
}

// RunLoginForm asks for EarthAccess credentials, prefilling username.
// ok is false when the user backed out.
func RunLoginForm(username string) (user, password string, ok bool, err error) {
	result, err := tea.NewProgram(newLoginForm(username)).Run()
	if err != nil {
		return "", "", false, err
	}
	final := result.(loginModel)
	if !final.submitted {
		return "", "", false, nil
	}
	return strings.TrimSpace(final.username.Value()), final.password.Value(), true, nil
}
