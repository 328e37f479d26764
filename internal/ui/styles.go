// Package ui holds terminal styling and the progress indicator.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	Primary = lipgloss.Color("#7D56F4")

	Critical = lipgloss.Color("#FF0000")
	High     = lipgloss.Color("#FF6B6B")
	Medium   = lipgloss.Color("#FFD93D")
	Low      = lipgloss.Color("#6BCB77")

	Success = lipgloss.Color("#00D26A")
	Warning = lipgloss.Color("#FFB800")
	Error   = lipgloss.Color("#FF3838")
	Muted   = lipgloss.Color("#6B7280")
)

var (
	SpinnerStyle = lipgloss.NewStyle().Foreground(Primary)
	PassStyle    = lipgloss.NewStyle().Foreground(Success).Bold(true)
	FailStyle    = lipgloss.NewStyle().Foreground(Error).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
)
