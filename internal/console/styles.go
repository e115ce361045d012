package console

import "github.com/charmbracelet/lipgloss"

// Terminal palette. Records share the screen with log output, so the
// styling stays line-oriented: no panels, no full-screen layout.
var (
	colorPrompt = lipgloss.Color("#1E88E5") // blue
	colorNotice = lipgloss.Color("#4CAF50") // green
	colorError  = lipgloss.Color("#F44336") // red
	colorWarn   = lipgloss.Color("#FFB74D") // amber
	colorLabel  = lipgloss.Color("#90A4AE") // muted gray
	colorValue  = lipgloss.Color("#E0E0E0") // light text
)

// Styles holds the render styles for one console instance.
type Styles struct {
	Banner lipgloss.Style
	Prompt lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Sent   lipgloss.Style
	Notice lipgloss.Style
	Warn   lipgloss.Style
	Error  lipgloss.Style
	Usage  lipgloss.Style
}

// NewStyles builds the style set. With color disabled every style is a
// plain passthrough, which keeps output pipeable.
func NewStyles(color bool) Styles {
	if !color {
		plain := lipgloss.NewStyle()
		return Styles{
			Banner: plain, Prompt: plain, Label: plain, Value: plain,
			Sent: plain, Notice: plain, Warn: plain, Error: plain, Usage: plain,
		}
	}

	return Styles{
		Banner: lipgloss.NewStyle().Foreground(colorPrompt).Bold(true),
		Prompt: lipgloss.NewStyle().Foreground(colorPrompt).Bold(true),
		Label:  lipgloss.NewStyle().Foreground(colorLabel),
		Value:  lipgloss.NewStyle().Foreground(colorValue),
		Sent:   lipgloss.NewStyle().Foreground(colorValue),
		Notice: lipgloss.NewStyle().Foreground(colorNotice).Bold(true),
		Warn:   lipgloss.NewStyle().Foreground(colorWarn),
		Error:  lipgloss.NewStyle().Foreground(colorError).Bold(true),
		Usage:  lipgloss.NewStyle().Foreground(colorLabel),
	}
}
