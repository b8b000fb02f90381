package record

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/oxistream/oxistream/internal/protocol"
)

func TestFormatReading(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123_000_000, time.UTC)
	tests := []struct {
		name    string
		reading protocol.Reading
		want    []string // substrings that must appear
		absent  []string // substrings that must not appear
	}{
		{
			name: "normal reading with beep",
			reading: protocol.Reading{
				Timestamp: ts, SpO2: intp(98), PulseRate: intp(72), Pleth: intp(42),
				SignalStrength: 8, Status: protocol.StatusReading, PulseBeep: true,
			},
			want:   []string{"[12:30:45.123]", "SpO2:  98%", "Pulse:  72 BPM", "Pleth:  42", "Signal: 8/8", "♥"},
			absent: []string{"[READING]"},
		},
		{
			name: "sensor off",
			reading: protocol.Reading{
				Timestamp: ts, SignalStrength: 0, Status: protocol.StatusSensorOff,
			},
			want:   []string{"SpO2: ---", "Pulse: --- BPM", "Signal: 0/8", "[SENSOR_OFF]"},
			absent: []string{"Pleth:", "♥"},
		},
		{
			name: "searching keeps pleth",
			reading: protocol.Reading{
				Timestamp: ts, Pleth: intp(17), SignalStrength: 2,
				Status: protocol.StatusSearching,
			},
			want: []string{"Pleth:  17", "[SEARCHING]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := FormatReading(tt.reading)
			for _, sub := range tt.want {
				if !strings.Contains(line, sub) {
					t.Errorf("FormatReading() = %q, missing %q", line, sub)
				}
			}
			for _, sub := range tt.absent {
				if strings.Contains(line, sub) {
					t.Errorf("FormatReading() = %q, should not contain %q", line, sub)
				}
			}
		})
	}
}

func TestConsolePrinterPlainLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsolePrinter(&buf)

	r := protocol.Reading{
		Timestamp: time.Now(), SpO2: intp(97), PulseRate: intp(65),
		Pleth: intp(10), SignalStrength: 6,
	}
	p.Print(r)
	p.Print(r)
	p.Done()

	out := buf.String()
	if strings.Contains(out, "\r") {
		t.Errorf("non-terminal output contains carriage return: %q", out)
	}
	if got := strings.Count(out, "\n"); got != 2 {
		t.Errorf("got %d lines, want 2", got)
	}
}
