// Package ui provides the terminal presentation layer for the VPN profile
// generator. This file contains the lipgloss styles for command output.
package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Terminal palette (ANSI 256) matching the status colors of the desktop theme.
var (
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("214")
	colorError   = lipgloss.Color("196")
	colorAccent  = lipgloss.Color("33")
)

var (
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true).Width(10)
	valueStyle   = lipgloss.NewStyle().Foreground(colorAccent)
	spinnerStyle = lipgloss.NewStyle().Foreground(colorAccent)
)

// Success renders a confirmation line.
func Success(msg string) string {
	return successStyle.Render("✓ " + msg)
}

// Warning renders a non-fatal problem.
func Warning(msg string) string {
	return warningStyle.Render("! " + msg)
}

// Failure renders an error line.
func Failure(msg string) string {
	return errorStyle.Render("✗ " + msg)
}

// Field renders an aligned "label value" pair.
func Field(label, value string) string {
	return fmt.Sprintf("  %s %s", labelStyle.Render(label), valueStyle.Render(value))
}
