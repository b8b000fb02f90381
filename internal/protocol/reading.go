package protocol

import (
	"fmt"
	"strconv"
	"time"
)

// Status is the sensor state reported with each sample.
type Status int

const (
	// StatusReading indicates a normal measurement in progress.
	StatusReading Status = iota
	// StatusNoSensor indicates the probe is unplugged.
	StatusNoSensor
	// StatusSensorOff indicates the probe is plugged in but not on a finger.
	StatusSensorOff
	// StatusSearching indicates the device is still acquiring a pulse.
	StatusSearching
	// StatusLowPerfusion indicates the optical signal is too weak to trust.
	StatusLowPerfusion
)

// statusFromCode maps a raw wire status code to the enum. Unrecognized
// codes report ok=false; callers fall back to StatusReading with zero
// signal strength instead of failing.
func statusFromCode(code byte) (Status, bool) {
	switch code {
	case 0:
		return StatusReading, true
	case 1:
		return StatusNoSensor, true
	case 2:
		return StatusSensorOff, true
	case 3:
		return StatusSearching, true
	case 4:
		return StatusLowPerfusion, true
	default:
		return StatusReading, false
	}
}

// String returns the status name as used in CSV rows and console output.
func (s Status) String() string {
	switch s {
	case StatusReading:
		return "reading"
	case StatusNoSensor:
		return "no_sensor"
	case StatusSensorOff:
		return "sensor_off"
	case StatusSearching:
		return "searching"
	case StatusLowPerfusion:
		return "low_perfusion"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalJSON encodes the status as its string name.
func (s Status) MarshalJSON() ([]byte, error) {
	return strconv.AppendQuote(nil, s.String()), nil
}

// Reading is one decoded physiological sample. SpO2, PulseRate and Pleth
// are nil when the sensor has no valid optical signal for the field; nil
// is a first-class state distinct from zero, and the wire sentinels never
// leak past the decoder.
type Reading struct {
	Timestamp      time.Time `json:"timestamp"`
	SpO2           *int      `json:"spo2"`            // percent, 0-100
	PulseRate      *int      `json:"pulse_rate"`      // beats per minute
	Pleth          *int      `json:"pleth"`           // relative amplitude, 0-255
	SignalStrength int       `json:"signal_strength"` // 0 (none) to 8 (best)
	Status         Status    `json:"status"`
	PulseBeep      bool      `json:"pulse_beep"`
}

// String formats the reading for logs and debugging.
func (r Reading) String() string {
	spo2, pulse, pleth := "--", "--", "--"
	if r.SpO2 != nil {
		spo2 = strconv.Itoa(*r.SpO2)
	}
	if r.PulseRate != nil {
		pulse = strconv.Itoa(*r.PulseRate)
	}
	if r.Pleth != nil {
		pleth = strconv.Itoa(*r.Pleth)
	}
	return fmt.Sprintf("Reading{spo2=%s, pulse=%s, pleth=%s, signal=%d/%d, status=%s, beep=%v}",
		spo2, pulse, pleth, r.SignalStrength, MaxSignalStrength, r.Status, r.PulseBeep)
}
