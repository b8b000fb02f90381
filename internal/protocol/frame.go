package protocol

// Protocol frame constants
const (
	// FrameLength is the fixed wire size of one BCI frame.
	FrameLength = 5

	// SyncMarker is the bit identifying a legal frame-start byte. Only the
	// first byte of a frame may carry it.
	SyncMarker = 0x80

	// MaxSignalStrength is the top of the device's signal scale (0-8).
	MaxSignalStrength = 8

	// invalidMeasurement is the sentinel the device reports in the pulse
	// rate and SpO2 fields when it has no valid optical signal.
	invalidMeasurement = 0x7F
)

// Frame is one raw 5-byte wire frame. The fixed array type makes a wrong
// frame length unrepresentable; accessors below decode the packed fields.
type Frame [FrameLength]byte

// hasSyncMarker reports whether b is a legal frame-start byte.
func hasSyncMarker(b byte) bool {
	return b&SyncMarker != 0
}

// PulseBeep reports whether this sample coincides with an audible
// heartbeat tick.
func (f Frame) PulseBeep() bool { return f[0]&0x01 != 0 }

// Pleth returns the raw plethysmograph amplitude.
func (f Frame) Pleth() byte { return f[1] }

// SignalStrength returns the raw combined signal strength. Bits 4-6 of
// byte 0 carry the low three bits and bit 3 of byte 2 the high bit, so the
// raw value can exceed MaxSignalStrength on corrupt input; decode treats
// anything above 8 as no-confidence (0) rather than clamping.
func (f Frame) SignalStrength() byte {
	return f[2]&0x08 | f[0]>>4&0x07
}

// StatusCode returns the raw status bits from byte 2.
func (f Frame) StatusCode() byte { return f[2] & 0x07 }

// PulseRate returns the raw 7-bit pulse rate field.
func (f Frame) PulseRate() byte { return f[3] & 0x7F }

// SpO2 returns the raw SpO2 field.
func (f Frame) SpO2() byte { return f[4] & 0x7F }

// Valid reports whether the frame is structurally well formed: the sync
// marker set on the first byte and clear on every continuation byte.
func (f Frame) Valid() bool {
	if !hasSyncMarker(f[0]) {
		return false
	}
	for _, b := range f[1:] {
		if hasSyncMarker(b) {
			return false
		}
	}
	return true
}
