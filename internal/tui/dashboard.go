package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/oxistream/oxistream/internal/protocol"
)

// readingMsg delivers the next decoded reading to the model.
type readingMsg protocol.Reading

// sourceClosedMsg indicates the session ended underneath the dashboard.
type sourceClosedMsg struct{}

// dashboardKeyMap defines key bindings for the dashboard.
type dashboardKeyMap struct {
	Quit key.Binding
}

// ShortHelp returns keybindings to be shown in the help footer.
func (k dashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit}
}

// FullHelp returns keybindings for the expanded help view.
func (k dashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Quit}}
}

var defaultKeys = dashboardKeyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the bubbletea model for the live dashboard. Readings arrive on
// a channel owned by the caller, typically fed from a session subscription.
type Model struct {
	readings <-chan protocol.Reading
	device   string

	spinner spinner.Model
	keys    dashboardKeyMap
	latest  *protocol.Reading
	closed  bool
	width   int
}

// NewModel creates a dashboard reading from the given channel. The device
// string is shown in the header.
func NewModel(readings <-chan protocol.Reading, device string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)
	return Model{
		readings: readings,
		device:   device,
		spinner:  sp,
		keys:     defaultKeys,
	}
}

// Init starts the spinner and the reading pump.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForReading(m.readings))
}

// waitForReading blocks on the channel and feeds the next reading back
// into the event loop.
func waitForReading(readings <-chan protocol.Reading) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-readings
		if !ok {
			return sourceClosedMsg{}
		}
		return readingMsg(r)
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case readingMsg:
		r := protocol.Reading(msg)
		m.latest = &r
		return m, waitForReading(m.readings)

	case sourceClosedMsg:
		m.closed = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	header := TitleStyle.Render("oxistream") + "  " + HelpStyle.Render(m.device)

	var body string
	if m.latest == nil {
		body = fmt.Sprintf("%s waiting for readings...", m.spinner.View())
	} else {
		body = m.renderVitals(*m.latest)
	}

	footer := HelpStyle.Render("q: quit")
	return header + "\n\n" + BoxStyle.Render(body) + "\n" + footer + "\n"
}

func (m Model) renderVitals(r protocol.Reading) string {
	var rows []string

	rows = append(rows, LabelStyle.Render("SpO2")+renderOptional(r.SpO2, "%d%%"))
	rows = append(rows, LabelStyle.Render("Pulse")+renderOptional(r.PulseRate, "%d bpm")+beepMark(r))
	rows = append(rows, LabelStyle.Render("Pleth")+plethBar(r.Pleth))
	rows = append(rows, LabelStyle.Render("Signal")+
		signalBar(r.SignalStrength, protocol.MaxSignalStrength)+
		HelpStyle.Render(fmt.Sprintf(" %d/%d", r.SignalStrength, protocol.MaxSignalStrength)))
	rows = append(rows, LabelStyle.Render("Status")+statusLine(r.Status))

	return strings.Join(rows, "\n")
}

func renderOptional(v *int, format string) string {
	if v == nil {
		return AbsentStyle.Render("---")
	}
	return ValueStyle.Render(fmt.Sprintf(format, *v))
}

func beepMark(r protocol.Reading) string {
	if !r.PulseBeep {
		return ""
	}
	return " " + BeepStyle.Render("♥")
}

// plethBar scales the 0-255 amplitude to a short bar.
func plethBar(v *int) string {
	if v == nil {
		return AbsentStyle.Render("---")
	}
	const width = 16
	n := (*v*width + 255) / 256
	return ValueStyle.Render(strings.Repeat("█", n)) +
		AbsentStyle.Render(strings.Repeat("░", width-n))
}

func statusLine(s protocol.Status) string {
	switch s {
	case protocol.StatusReading:
		return ValueStyle.Render(s.String())
	case protocol.StatusSearching, protocol.StatusLowPerfusion:
		return StatusWarnStyle.Render(s.String())
	default:
		return StatusErrStyle.Render(s.String())
	}
}

// Run subscribes the dashboard to readings and blocks until the user
// quits or the channel closes.
func Run(readings <-chan protocol.Reading, device string) error {
	_, err := tea.NewProgram(NewModel(readings, device), tea.WithAltScreen()).Run()
	return err
}
