// Package wizard implements the interactive init wizard, the apply
// confirmation prompt and the shared terminal styles.
package wizard

import (
	"os"
	"path/filepath"
	"sort"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lockplane/schemaguard/internal/config"
)

// New creates a wizard that writes its files into dir.
func New(dir string, force bool) WizardModel {
	return WizardModel{
		state:   StateWelcome,
		dir:     dir,
		force:   force,
		connect: TestConnection,
	}
}

// Run starts the wizard and returns what it wrote.
func Run(dir string, force bool) (*InitResult, error) {
	final, err := tea.NewProgram(New(dir, force)).Run()
	if err != nil {
		return nil, err
	}
	m := final.(WizardModel)
	return m.Result(), m.Err()
}

// Result returns the files written, or nil if the wizard did not finish.
func (m WizardModel) Result() *InitResult { return m.result }

// Err returns the error that ended the wizard, if any.
func (m WizardModel) Err() error { return m.err }

func (m WizardModel) Init() tea.Cmd {
	return m.lookForConfig
}

func (m WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.onKey(msg)

	case existingConfigMsg:
		if msg.path != "" {
			m.existingConfigPath = msg.path
			m.existingEnvNames = msg.envNames
			m.state = StateCheckExisting
		}

	case connCheckedMsg:
		m.testingConnection = false
		m.connectionError = msg.err
		m.connectionTestResult = connOK
		if msg.err != nil {
			m.connectionTestResult = connFailed
		}

	case filesWrittenMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = StateError
		} else {
			m.result = msg.result
			m.state = StateDone
		}
	}
	return m, nil
}

func (m WizardModel) onKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "q":
		// q is a valid character inside the connection form
		if m.state != StateConnectionDetails {
			return m, tea.Quit
		}
	case "enter":
		return m.advance()
	case "up", "shift+tab":
		m.move(-1)
		return m, nil
	case "down", "tab":
		m.move(1)
		return m, nil
	}

	if m.state != StateConnectionDetails || len(m.inputs) == 0 {
		return m, nil
	}
	var cmd tea.Cmd
	m.inputs[m.focusIndex], cmd = m.inputs[m.focusIndex].Update(msg)
	return m, cmd
}

// move shifts whichever cursor the current screen has.
func (m *WizardModel) move(delta int) {
	switch m.state {
	case StateDatabaseType:
		m.typeAt = clamp(m.typeAt+delta, len(DatabaseTypes))
	case StateConnectionDetails:
		if n := len(m.inputs); n > 0 {
			m.focus((m.focusIndex + delta + n) % n)
		}
	case StateTestConnection:
		if m.connectionTestResult == connFailed {
			m.retryChoice = clamp(m.retryChoice+delta, len(failureChoices))
		}
	}
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// advance handles enter on each screen.
func (m WizardModel) advance() (tea.Model, tea.Cmd) {
	switch m.state {
	case StateWelcome, StateCheckExisting:
		m.state = StateDatabaseType

	case StateDatabaseType:
		m.env = EnvironmentInput{DatabaseType: DatabaseTypes[m.typeAt].ID}
		m.buildInputs()
		m.state = StateConnectionDetails

	case StateConnectionDetails:
		if err := m.readInputs(); err != nil {
			m.inputError = err.Error()
			return m, nil
		}
		m.inputError = ""
		m.state = StateTestConnection
		return m.startCheck()

	case StateTestConnection:
		return m.afterCheck()

	case StateSummary:
		m.state = StateCreating
		return m, m.writeFiles()

	case StateDone, StateError:
		return m, tea.Quit
	}
	return m, nil
}

func (m WizardModel) afterCheck() (tea.Model, tea.Cmd) {
	switch m.connectionTestResult {
	case connOK:
		m.state = StateSummary
	case connFailed:
		switch m.retryChoice {
		case choiceRetry:
			return m.startCheck()
		case choiceEdit:
			m.connectionTestResult = connUntested
			m.connectionError = nil
			m.retryChoice = choiceRetry
			m.state = StateConnectionDetails
		case choiceSaveAnyway:
			m.state = StateSummary
		case choiceQuit:
			return m, tea.Quit
		}
	}
	return m, nil
}

type connCheckedMsg struct{ err error }

func (m WizardModel) startCheck() (tea.Model, tea.Cmd) {
	m.testingConnection = true
	m.connectionTestResult = connUntested
	m.connectionError = nil
	env, connect := m.env, m.connect
	return m, func() tea.Msg {
		return connCheckedMsg{err: connect(env)}
	}
}

type filesWrittenMsg struct {
	result *InitResult
	err    error
}

func (m WizardModel) writeFiles() tea.Cmd {
	dir, env, force := m.dir, m.env, m.force
	return func() tea.Msg {
		result, err := GenerateFiles(dir, env, force)
		return filesWrittenMsg{result: result, err: err}
	}
}

type existingConfigMsg struct {
	path     string
	envNames []string
}

func (m WizardModel) lookForConfig() tea.Msg {
	path := filepath.Join(m.dir, config.ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return existingConfigMsg{}
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return existingConfigMsg{path: path}
	}
	names := make([]string, 0, len(cfg.Environments))
	for name := range cfg.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return existingConfigMsg{path: path, envNames: names}
}
