// Package ui provides terminal prompts and styles for the ou-toggle CLIs.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor  = lipgloss.Color("#3B82F6")
	mutedColor   = lipgloss.Color("#888888")
	warningColor = lipgloss.Color("#FFAA00")
	errorColor   = lipgloss.Color("#FF5555")
	successColor = lipgloss.Color("#00C853")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	HelpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(warningColor)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(successColor)
)

// Success renders a message prefixed with a check mark.
func Success(msg string) string {
	return SuccessStyle.Render("✓ " + msg)
}

// Warning renders a message prefixed with an exclamation mark.
func Warning(msg string) string {
	return WarningStyle.Render("! " + msg)
}

// Failure renders a message prefixed with a cross.
func Failure(msg string) string {
	return ErrorStyle.Render("✗ " + msg)
}
