package wizard

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lockplane/schemaguard/internal/config"
)

func (m WizardModel) View() string {
	var body []string
	switch m.state {
	case StateWelcome:
		body = []string{
			"This wizard writes " + config.ConfigFileName + " and an env file",
			"holding the connection string for one environment.",
			hint("Enter to start, q to quit"),
		}
	case StateCheckExisting:
		body = m.existingView()
	case StateDatabaseType:
		body = m.pickerView()
	case StateConnectionDetails:
		body = m.formView()
	case StateTestConnection:
		body = m.checkView()
	case StateSummary:
		body = []string{
			fmt.Sprintf("Environment: %s (%s)", m.env.Name, m.env.DatabaseType),
			fmt.Sprintf("Config:      %s", filepath.Join(m.dir, config.ConfigFileName)),
			fmt.Sprintf("Env file:    %s", filepath.Join(m.dir, ".env."+m.env.Name)),
			hint("Enter to write files, q to quit"),
		}
	case StateCreating:
		body = []string{infoStyle.Render(iconSpinner + " Writing configuration...")}
	case StateDone:
		body = m.doneView()
	case StateError:
		msg := ""
		if m.err != nil {
			msg = errorStyle.Render(m.err.Error())
		}
		body = []string{bad("An error occurred"), "", msg, hint("Press Enter to exit")}
	default:
		return "Unknown state"
	}
	return panelStyle.Render(heading("schemaguard init") + "\n\n" + strings.Join(body, "\n"))
}

func (m WizardModel) existingView() []string {
	lines := []string{infoStyle.Render("Found " + m.existingConfigPath)}
	if len(m.existingEnvNames) > 0 {
		lines = append(lines, mutedStyle.Render("Environments: "+strings.Join(m.existingEnvNames, ", ")))
	}
	return append(lines, "A new environment will be added to it.", hint("Enter to continue, q to quit"))
}

func (m WizardModel) pickerView() []string {
	lines := []string{"Which database does this environment use?", ""}
	for i, dt := range DatabaseTypes {
		lines = append(lines, option(i == m.typeAt, fmt.Sprintf("%s %s (%s)", dt.Icon, dt.DisplayName, dt.Description)))
	}
	return append(lines, hint("↑/↓ to choose, Enter to select"))
}

func (m WizardModel) formView() []string {
	var lines []string
	for i, in := range m.inputs {
		lines = append(lines, mutedStyle.Render(m.fields[i].label), in.View())
	}
	if m.inputError != "" {
		lines = append(lines, "", bad(m.inputError))
	}
	return append(lines, hint("Tab to move, Enter to test the connection"))
}

func (m WizardModel) checkView() []string {
	if m.testingConnection {
		return []string{infoStyle.Render(iconSpinner + " Testing connection...")}
	}
	switch m.connectionTestResult {
	case connOK:
		return []string{good("Connected"), hint("Enter to continue")}
	case connFailed:
		lines := []string{bad("Connection failed")}
		if m.connectionError != nil {
			lines = append(lines, errorStyle.Render(m.connectionError.Error()))
		}
		lines = append(lines, "")
		for i, choice := range failureChoices {
			lines = append(lines, option(i == m.retryChoice, choice))
		}
		return lines
	}
	return nil
}

func (m WizardModel) doneView() []string {
	lines := []string{good("Setup complete!"), ""}
	if r := m.result; r != nil {
		lines = append(lines, "  "+iconSuccess+" "+r.ConfigPath, "  "+iconSuccess+" "+r.EnvFile)
		if r.GitignoreUpdated {
			lines = append(lines, "  "+iconSuccess+" .gitignore updated")
		}
	}
	return append(lines,
		tip("Preview a change set with:\n  schemaguard plan --changes changes.json --allow-schema-changes"),
		hint("Press Enter to exit"))
}
