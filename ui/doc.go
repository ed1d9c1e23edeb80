// Package ui provides the terminal presentation layer for the VPN profile
// generator.
//
//   - styles.go: lipgloss styles for success, warning, and error lines
//   - spinner.go: bubbletea spinner shown while the public address resolves
//   - notifications.go: freedesktop notifications over D-Bus
//
// Nothing in this package is required for a build; the spinner is only used
// when stdout is a terminal and notifications are opt-in.
package ui
