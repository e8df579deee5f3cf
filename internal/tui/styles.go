package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha accents
var (
	colorText     = lipgloss.Color("#cdd6f4")
	colorSubtext  = lipgloss.Color("#a6adc8")
	colorSurface  = lipgloss.Color("#45475a")
	colorGreen    = lipgloss.Color("#a6e3a1")
	colorRed      = lipgloss.Color("#f38ba8")
	colorYellow   = lipgloss.Color("#f9e2af")
	colorMauve    = lipgloss.Color("#cba6f7")
	colorSapphire = lipgloss.Color("#74c7ec")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorMauve)

	InfoStyle = lipgloss.NewStyle().
			Foreground(colorSapphire).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(colorGreen).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(colorYellow)

	MutedStyle = lipgloss.NewStyle().
			Foreground(colorSubtext)
)

// Status line prefixes used by the commands
func Info(msg string) string    { return InfoStyle.Render("•") + " " + msg }
func Success(msg string) string { return SuccessStyle.Render("✓") + " " + msg }
func Failure(msg string) string { return ErrorStyle.Render("✗") + " " + msg }
func Warning(msg string) string { return WarnStyle.Render("!") + " " + msg }
