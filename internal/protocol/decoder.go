package protocol

import "time"

// Decoder turns an unbounded sequence of raw transport chunks into decoded
// Readings. It owns a small accumulation buffer holding the unconsumed
// trailing bytes between Feed calls; at rest the buffer never holds a full
// frame's worth of bytes.
//
// One Decoder serves one logical connection session. It keeps no reading
// history and performs no I/O.
type Decoder struct {
	buf  []byte
	last time.Time
	now  func() time.Time
}

// NewDecoder creates a decoder for a fresh connection session.
func NewDecoder() *Decoder {
	return &Decoder{now: time.Now}
}

// Feed appends chunk to the internal buffer and extracts every complete,
// valid frame from the front, returning the decoded readings in arrival
// order. The chunk may be empty or split frames at any byte boundary;
// unconsumed bytes stay buffered for the next call.
//
// Corrupt or misaligned bytes are discarded one at a time until a valid
// frame boundary is found. Feed never blocks and never fails.
func (d *Decoder) Feed(chunk []byte) []Reading {
	d.buf = append(d.buf, chunk...)

	var readings []Reading
	for len(d.buf) >= FrameLength {
		if !hasSyncMarker(d.buf[0]) {
			// Not a frame start; resynchronize one byte at a time.
			d.buf = d.buf[1:]
			continue
		}
		var f Frame
		copy(f[:], d.buf[:FrameLength])
		if !f.Valid() {
			// A continuation byte carries the sync marker, so the byte at
			// the front was noise that looked like a frame start. Discard
			// it and restart the search from the real marker.
			d.buf = d.buf[1:]
			continue
		}
		d.buf = d.buf[FrameLength:]
		readings = append(readings, d.decode(f))
	}

	// Reslicing above pins the original backing array; copy the short
	// residue out so the buffer stays bounded across long sessions.
	if len(d.buf) == 0 {
		d.buf = nil
	} else {
		tail := make([]byte, len(d.buf), FrameLength)
		copy(tail, d.buf)
		d.buf = tail
	}

	return readings
}

// Buffered returns the number of unconsumed bytes held for the next Feed.
// Always less than FrameLength after Feed returns.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Reset discards any buffered bytes, e.g. when the transport reconnects
// and the byte stream restarts mid-frame.
func (d *Decoder) Reset() {
	d.buf = nil
}

// decode maps a structurally valid frame to a Reading, stamped at decode
// time. Timestamps are monotonically non-decreasing per decoder.
func (d *Decoder) decode(f Frame) Reading {
	ts := d.now()
	if ts.Before(d.last) {
		ts = d.last
	}
	d.last = ts

	status, known := statusFromCode(f.StatusCode())
	signal := int(f.SignalStrength())
	// Unknown status codes and out-of-range signal values both decode to
	// a zero-confidence signal rather than a fault: transmission noise
	// must degrade the reading, not kill the stream.
	if !known || signal > MaxSignalStrength {
		signal = 0
	}

	r := Reading{
		Timestamp:      ts,
		SignalStrength: signal,
		Status:         status,
		PulseBeep:      f.PulseBeep(),
	}

	if v := int(f.SpO2()); v <= 100 {
		r.SpO2 = &v
	}
	if v := int(f.PulseRate()); v != invalidMeasurement {
		r.PulseRate = &v
	}
	// The pleth byte has no sentinel; it is meaningless without a probe
	// on a finger.
	if status != StatusNoSensor && status != StatusSensorOff {
		v := int(f.Pleth())
		r.Pleth = &v
	}

	return r
}
