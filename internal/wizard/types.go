package wizard

import (
	"github.com/charmbracelet/bubbles/textinput"
)

// WizardState is a screen of the init wizard.
type WizardState int

const (
	StateWelcome WizardState = iota
	StateCheckExisting
	StateDatabaseType
	StateConnectionDetails
	StateTestConnection
	StateSummary
	StateCreating
	StateDone
	StateError
)

// connStatus tracks the connection check on StateTestConnection.
type connStatus string

const (
	connUntested connStatus = ""
	connOK       connStatus = "success"
	connFailed   connStatus = "failed"
)

// Choices offered after a failed connection check, in display order.
const (
	choiceRetry = iota
	choiceEdit
	choiceSaveAnyway
	choiceQuit
)

var failureChoices = []string{"Retry", "Edit connection details", "Save anyway", "Quit"}

// WizardModel is the Bubble Tea model behind `schemaguard init`.
type WizardModel struct {
	state WizardState
	dir   string
	force bool

	existingConfigPath string
	existingEnvNames   []string

	env    EnvironmentInput
	typeAt int

	fields     []field
	inputs     []textinput.Model
	focusIndex int
	inputError string

	testingConnection    bool
	connectionTestResult connStatus
	connectionError      error
	retryChoice          int

	result *InitResult
	err    error

	connect func(EnvironmentInput) error
}

// EnvironmentInput is what the wizard collects for one environment.
type EnvironmentInput struct {
	Name         string
	Description  string
	DatabaseType string

	// postgres
	Host     string
	Port     string
	Database string
	User     string
	Password string
	SSLMode  string
	Driver   string // "lib/pq" or "pgx"

	// sqlite
	FilePath string

	// libsql
	URL       string
	AuthToken string
}

// InitResult lists the files init touched.
type InitResult struct {
	ConfigPath       string
	ConfigCreated    bool
	ConfigUpdated    bool
	EnvFile          string
	GitignoreUpdated bool
}

// DatabaseType is one entry of the database picker.
type DatabaseType struct {
	ID          string
	DisplayName string
	Description string
	Icon        string
}

var DatabaseTypes = []DatabaseType{
	{ID: "postgres", DisplayName: "PostgreSQL", Description: "full planner support", Icon: "🐘"},
	{ID: "sqlite", DisplayName: "SQLite", Description: "local file", Icon: "📁"},
	{ID: "libsql", DisplayName: "libSQL/Turso", Description: "remote SQLite", Icon: "🌐"},
}
