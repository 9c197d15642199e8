package wizard

import (
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// ConfirmModel asks a yes/no question. Anything other than an explicit yes
// counts as no.
type ConfirmModel struct {
	prompt    string
	details   []string
	choice    int // 0=no, 1=yes
	confirmed bool
	done      bool
}

func NewConfirm(prompt string, details ...string) ConfirmModel {
	return ConfirmModel{prompt: prompt, details: details}
}

func (m ConfirmModel) Init() tea.Cmd {
	return nil
}

func (m ConfirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.confirmed, m.done = true, true
		return m, tea.Quit
	case "n", "N", "q", "esc", "ctrl+c":
		m.confirmed, m.done = false, true
		return m, tea.Quit
	case "left", "right", "tab":
		m.choice = 1 - m.choice
	case "enter":
		m.confirmed, m.done = m.choice == 1, true
		return m, tea.Quit
	}
	return m, nil
}

func (m ConfirmModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(warnStyle.Render(m.prompt))
	b.WriteString("\n")
	for _, d := range m.details {
		b.WriteString(mutedStyle.Render("  " + d))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(option(m.choice == 0, "No"))
	b.WriteString("  ")
	b.WriteString(option(m.choice == 1, "Yes"))
	b.WriteString("\n")
	b.WriteString(hint("y/n, or ←/→ and Enter"))
	return b.String()
}

func (m ConfirmModel) Confirmed() bool {
	return m.confirmed
}

// Confirm runs the prompt on the given terminal streams.
func Confirm(in io.Reader, out io.Writer, prompt string, details ...string) (bool, error) {
	final, err := tea.NewProgram(NewConfirm(prompt, details...), tea.WithInput(in), tea.WithOutput(out)).Run()
	if err != nil {
		return false, err
	}
	return final.(ConfirmModel).Confirmed(), nil
}
