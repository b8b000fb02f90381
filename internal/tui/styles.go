package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the dashboard
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - healthy values
	WarningColor = lipgloss.Color("#FFA500") // Orange - degraded signal
	ErrorColor   = lipgloss.Color("#FF5555") // Red - sensor problems
	MutedColor   = lipgloss.Color("#626262") // Gray - labels, hints
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	// TitleStyle is for the dashboard header line
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// BoxStyle frames the vitals panel
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(1, 3)

	// LabelStyle is for field labels (e.g. "SpO2")
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(8)

	// ValueStyle is for healthy field values
	ValueStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	// AbsentStyle is for fields with no valid measurement
	AbsentStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// StatusWarnStyle is for searching / low perfusion states
	StatusWarnStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	// StatusErrStyle is for probe / finger problems
	StatusErrStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// BeepStyle is for the heartbeat tick
	BeepStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// HelpStyle is for the key hint footer
	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)

// signalBar renders n of max filled bar segments, colored by confidence.
func signalBar(n, max int) string {
	style := ValueStyle
	switch {
	case n == 0:
		style = AbsentStyle
	case n <= max/2:
		style = StatusWarnStyle
	}
	bar := ""
	for i := 0; i < max; i++ {
		if i < n {
			bar += "▮"
		} else {
			bar += "▯"
		}
	}
	return style.Render(bar)
}
