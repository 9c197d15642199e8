package wizard

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lockplane/schemaguard/internal/typerules"
)

// ANSI 256 palette
var (
	cyan   = lipgloss.Color("86")
	green  = lipgloss.Color("42")
	orange = lipgloss.Color("214")
	red    = lipgloss.Color("196")
	blue   = lipgloss.Color("75")
	gray   = lipgloss.Color("240")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

var (
	titleStyle = fg(cyan).Bold(true).Padding(0, 1)
	mutedStyle = fg(gray)
	goodStyle  = fg(green).Bold(true)
	warnStyle  = fg(orange).Bold(true)
	errorStyle = fg(red).Bold(true)
	infoStyle  = fg(blue)
	hintStyle  = fg(gray).Italic(true).MarginTop(1)
	sqlStyle   = fg(blue).PaddingLeft(4)
	tipStyle   = fg(blue).Border(lipgloss.RoundedBorder()).BorderForeground(blue).Padding(0, 1).MarginTop(1)
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(gray).Padding(1, 2)
)

const (
	iconSuccess = "✓"
	iconFailure = "✗"
	iconSpinner = "⏳"
	iconCursor  = "►"
)

func heading(s string) string { return titleStyle.Render("🔧 " + s) }
func good(s string) string { return goodStyle.Render(iconSuccess + " " + s) }
func bad(s string) string { return errorStyle.Render(iconFailure + " " + s) }
func tip(s string) string { return tipStyle.Render("💡 " + s) }
func hint(s string) string { return hintStyle.Render(s) }

func option(selected bool, s string) string {
	if selected {
		return goodStyle.Render(iconCursor + " " + s)
	}
	return mutedStyle.Render("  " + s)
}

// RenderSeverity colors a severity label with its icon for plan reports.
func RenderSeverity(s typerules.Severity) string {
	style := errorStyle
	switch s {
	case typerules.Safe:
		style = goodStyle
	case typerules.Warning:
		style = warnStyle
	}
	return style.Render(s.Icon() + " " + s.String())
}

// RenderLabel renders muted field labels in reports.
func RenderLabel(text string) string { return mutedStyle.Render(text) }

// RenderSQL indents a statement for display.
func RenderSQL(sql string) string { return sqlStyle.Render(sql) }

// RenderHeading renders a report heading.
func RenderHeading(text string) string { return titleStyle.Render(text) }
