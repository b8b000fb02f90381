package record

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/oxistream/oxistream/internal/protocol"
)

// ConsolePrinter renders readings as a human-readable status line.
type ConsolePrinter struct {
	w        io.Writer
	live     bool
	lineOpen bool
}

// NewConsolePrinter prints to w. When w is the process stdout and stdout
// is a terminal, the printer rewrites one line in place instead of
// scrolling.
func NewConsolePrinter(w io.Writer) *ConsolePrinter {
	live := w == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
	return &ConsolePrinter{w: w, live: live}
}

// Print writes one reading.
func (p *ConsolePrinter) Print(r protocol.Reading) {
	line := FormatReading(r)
	if p.live {
		fmt.Fprintf(p.w, "\r\033[K%s", line)
		p.lineOpen = true
		return
	}
	fmt.Fprintln(p.w, line)
}

// Done terminates a live line so the next write starts fresh. Safe to
// call more than once.
func (p *ConsolePrinter) Done() {
	if p.lineOpen {
		fmt.Fprintln(p.w)
		p.lineOpen = false
	}
}

// FormatReading renders one reading in the console format:
//
//	[15:04:05.000] SpO2:  98% Pulse:  72 BPM Pleth:  42 Signal: 8/8 ♥
//
// Absent fields print as dashes; non-normal statuses are appended in
// upper case.
func FormatReading(r protocol.Reading) string {
	var b strings.Builder

	fmt.Fprintf(&b, "[%s] ", r.Timestamp.Format("15:04:05.000"))

	if r.SpO2 != nil {
		fmt.Fprintf(&b, "SpO2: %3d%% ", *r.SpO2)
	} else {
		b.WriteString("SpO2: --- ")
	}
	if r.PulseRate != nil {
		fmt.Fprintf(&b, "Pulse: %3d BPM ", *r.PulseRate)
	} else {
		b.WriteString("Pulse: --- BPM ")
	}
	if r.Pleth != nil {
		fmt.Fprintf(&b, "Pleth: %3d ", *r.Pleth)
	}
	fmt.Fprintf(&b, "Signal: %d/%d", r.SignalStrength, protocol.MaxSignalStrength)

	if r.Status != protocol.StatusReading {
		fmt.Fprintf(&b, " [%s]", strings.ToUpper(r.Status.String()))
	}
	if r.PulseBeep {
		b.WriteString(" ♥")
	}
	return b.String()
}
