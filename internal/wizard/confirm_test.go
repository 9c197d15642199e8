package wizard

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmModel(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want bool
	}{
		{name: "y confirms", keys: []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune("y")}}, want: true},
		{name: "n declines", keys: []tea.KeyMsg{{Type: tea.KeyRunes, Runes: []rune("n")}}, want: false},
		{name: "enter defaults to no", keys: []tea.KeyMsg{{Type: tea.KeyEnter}}, want: false},
		{name: "toggle then enter", keys: []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyEnter}}, want: true},
		{name: "ctrl+c declines", keys: []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyCtrlC}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = NewConfirm("Apply 2 statements?")
			var cmd tea.Cmd
			for _, k := range tt.keys {
				m, cmd = m.Update(k)
			}
			cm := m.(ConfirmModel)
			if !cm.done || cmd == nil {
				t.Fatalf("expected the prompt to finish with a quit command")
			}
			if cm.Confirmed() != tt.want {
				t.Errorf("Confirmed() = %v, want %v", cm.Confirmed(), tt.want)
			}
		})
	}
}

func TestConfirmView(t *testing.T) {
	view := NewConfirm("Apply plan?", "ALTER TABLE users ADD COLUMN email text").View()
	for _, want := range []string{"Apply plan?", "ALTER TABLE users", "Yes", "No"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
}
