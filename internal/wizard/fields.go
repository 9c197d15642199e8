package wizard

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
)

// field is one text input on the connection details screen.
type field struct {
	label  string
	value  string
	secret bool
	assign func(env *EnvironmentInput, v string)
}

func nameField(def string) field {
	return field{label: "Environment name", value: def, assign: func(e *EnvironmentInput, v string) { e.Name = v }}
}

var fieldsByType = map[string][]field{
	"postgres": {
		nameField("local"),
		{label: "Host", value: "localhost", assign: func(e *EnvironmentInput, v string) { e.Host = v }},
		{label: "Port", value: "5432", assign: func(e *EnvironmentInput, v string) { e.Port = v }},
		{label: "Database", value: "postgres", assign: func(e *EnvironmentInput, v string) { e.Database = v }},
		{label: "User", value: "postgres", assign: func(e *EnvironmentInput, v string) { e.User = v }},
		{label: "Password", secret: true, assign: func(e *EnvironmentInput, v string) { e.Password = v }},
		{label: "Driver (lib/pq or pgx)", value: "lib/pq", assign: func(e *EnvironmentInput, v string) { e.Driver = v }},
	},
	"sqlite": {
		nameField("local"),
		{label: "Database file path", value: "schemaguard.db", assign: func(e *EnvironmentInput, v string) { e.FilePath = v }},
	},
	"libsql": {
		nameField("production"),
		{label: "Database URL", value: "libsql://[name]-[org].turso.io", assign: func(e *EnvironmentInput, v string) { e.URL = v }},
		{label: "Auth token", secret: true, assign: func(e *EnvironmentInput, v string) { e.AuthToken = v }},
	},
}

// buildInputs resets the form for the chosen database type.
func (m *WizardModel) buildInputs() {
	m.fields = fieldsByType[m.env.DatabaseType]
	m.inputs = make([]textinput.Model, len(m.fields))
	for i, f := range m.fields {
		in := textinput.New()
		in.SetValue(f.value)
		if f.secret {
			in.EchoMode = textinput.EchoPassword
			in.EchoCharacter = '*'
		}
		m.inputs[i] = in
	}
	m.focus(0)
}

func (m *WizardModel) focus(i int) {
	m.focusIndex = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
			continue
		}
		m.inputs[j].Blur()
	}
}

// readInputs copies the form into m.env and checks it.
func (m *WizardModel) readInputs() error {
	if len(m.inputs) != len(m.fields) {
		return errors.New("connection form is incomplete")
	}
	for i, f := range m.fields {
		f.assign(&m.env, strings.TrimSpace(m.inputs[i].Value()))
	}
	if err := ValidateEnvironmentName(m.env.Name); err != nil {
		return err
	}
	switch m.env.DatabaseType {
	case "postgres":
		if err := ValidatePort(m.env.Port); err != nil {
			return err
		}
		return ValidateDriver(m.env.Driver)
	case "libsql":
		if !strings.HasPrefix(m.env.URL, "libsql://") {
			return errors.New("libSQL URL must start with libsql://")
		}
	}
	return nil
}
