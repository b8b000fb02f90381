package protocol

import (
	"bytes"
	"testing"
	"time"
)

// buildFrame encodes a valid wire frame from decoded field values.
func buildFrame(spo2, pulse, pleth, signal int, status byte, beep bool) []byte {
	b0 := byte(SyncMarker) | byte(signal&0x07)<<4
	if beep {
		b0 |= 0x01
	}
	b2 := byte(signal>>3&0x01)<<3 | status&0x07
	return []byte{b0, byte(pleth), b2, byte(pulse & 0x7F), byte(spo2 & 0x7F)}
}

func TestFeedSingleFrame(t *testing.T) {
	// Sync set, pleth=0, full signal, status=reading, pulse=60, spo2=98.
	dec := NewDecoder()
	readings := dec.Feed([]byte{0x81, 0x00, 0x08, 0x3C, 0x62})

	if len(readings) != 1 {
		t.Fatalf("Feed() returned %d readings, want 1", len(readings))
	}
	r := readings[0]
	if r.SpO2 == nil || *r.SpO2 != 98 {
		t.Errorf("spo2 = %v, want 98", r.SpO2)
	}
	if r.PulseRate == nil || *r.PulseRate != 60 {
		t.Errorf("pulse rate = %v, want 60", r.PulseRate)
	}
	if r.SignalStrength != 8 {
		t.Errorf("signal strength = %d, want 8", r.SignalStrength)
	}
	if r.Status != StatusReading {
		t.Errorf("status = %v, want %v", r.Status, StatusReading)
	}
	if dec.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", dec.Buffered())
	}
}

func TestFeedSplitFrame(t *testing.T) {
	// Same frame delivered as two chunks of 2 and 3 bytes: nothing on the
	// first call, one identical reading on the second.
	frame := []byte{0x81, 0x00, 0x08, 0x3C, 0x62}
	dec := NewDecoder()

	if readings := dec.Feed(frame[:2]); len(readings) != 0 {
		t.Fatalf("Feed(first 2 bytes) returned %d readings, want 0", len(readings))
	}
	readings := dec.Feed(frame[2:])
	if len(readings) != 1 {
		t.Fatalf("Feed(last 3 bytes) returned %d readings, want 1", len(readings))
	}
	if r := readings[0]; r.SpO2 == nil || *r.SpO2 != 98 || r.SignalStrength != 8 {
		t.Errorf("reading = %v, want spo2=98 signal=8", r)
	}
}

func TestFeedByteAtATime(t *testing.T) {
	// A frame split byte-by-byte yields zero readings on the first N-1
	// calls and exactly one on the Nth.
	frame := buildFrame(97, 72, 40, 6, 0, false)
	dec := NewDecoder()

	for i := 0; i < FrameLength-1; i++ {
		if readings := dec.Feed(frame[i : i+1]); len(readings) != 0 {
			t.Fatalf("Feed(byte %d) returned %d readings, want 0", i, len(readings))
		}
		if dec.Buffered() != i+1 {
			t.Fatalf("Buffered() after byte %d = %d, want %d", i, dec.Buffered(), i+1)
		}
	}
	readings := dec.Feed(frame[FrameLength-1:])
	if len(readings) != 1 {
		t.Fatalf("Feed(final byte) returned %d readings, want 1", len(readings))
	}
	if *readings[0].SpO2 != 97 {
		t.Errorf("spo2 = %d, want 97", *readings[0].SpO2)
	}
}

func TestResyncAcrossAnyChunking(t *testing.T) {
	// One valid frame surrounded by noise must decode to exactly one
	// reading regardless of how the stream is chunked. Leading noise
	// includes a spurious sync byte so the continuation check has to
	// reject a false frame start.
	frame := buildFrame(98, 64, 50, 7, 0, true)
	stream := append([]byte{0x12, 0x80, 0x34}, frame...)
	stream = append(stream, 0x22, 0x19)

	for size := 1; size <= len(stream); size++ {
		dec := NewDecoder()
		var got []Reading
		for off := 0; off < len(stream); off += size {
			end := off + size
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, dec.Feed(stream[off:end])...)
		}
		if len(got) != 1 {
			t.Fatalf("chunk size %d: decoded %d readings, want 1", size, len(got))
		}
		if got[0].SpO2 == nil || *got[0].SpO2 != 98 {
			t.Errorf("chunk size %d: spo2 = %v, want 98", size, got[0].SpO2)
		}
		if !got[0].PulseBeep {
			t.Errorf("chunk size %d: pulse beep not set", size)
		}
		if dec.Buffered() >= FrameLength {
			t.Errorf("chunk size %d: Buffered() = %d, want < %d", size, dec.Buffered(), FrameLength)
		}
	}
}

func TestOrderPreserved(t *testing.T) {
	// N concatenated frames decode 1:1 in order. SpO2 values tag each
	// frame so reordering would be visible.
	const n = 16
	var stream []byte
	for i := 0; i < n; i++ {
		stream = append(stream, buildFrame(80+i, 60+i, i, 5, 0, false)...)
	}

	dec := NewDecoder()
	readings := dec.Feed(stream)
	if len(readings) != n {
		t.Fatalf("decoded %d readings, want %d", len(readings), n)
	}
	for i, r := range readings {
		if r.SpO2 == nil || *r.SpO2 != 80+i {
			t.Errorf("reading %d: spo2 = %v, want %d", i, r.SpO2, 80+i)
		}
	}
}

func TestNoiseShorterThanFrameStaysBuffered(t *testing.T) {
	// Bytes without a sync marker, fewer than one frame's worth, produce
	// nothing and remain buffered untouched.
	dec := NewDecoder()
	noise := []byte{0x01, 0x02, 0x03, 0x04}
	if readings := dec.Feed(noise); len(readings) != 0 {
		t.Fatalf("Feed(noise) returned %d readings, want 0", len(readings))
	}
	if dec.Buffered() != len(noise) {
		t.Errorf("Buffered() = %d, want %d", dec.Buffered(), len(noise))
	}
}

func TestSpuriousSyncDiscardedByteAtATime(t *testing.T) {
	// A run of sync-marker bytes long enough to trigger frame validation
	// must be dropped one byte at a time until the real frame aligns.
	frame := buildFrame(95, 70, 10, 4, 0, false)
	stream := append(bytes.Repeat([]byte{0xF0}, 7), frame...)

	dec := NewDecoder()
	readings := dec.Feed(stream)
	if len(readings) != 1 {
		t.Fatalf("decoded %d readings, want 1", len(readings))
	}
	if *readings[0].SpO2 != 95 {
		t.Errorf("spo2 = %d, want 95", *readings[0].SpO2)
	}
}

func TestEmptyChunk(t *testing.T) {
	dec := NewDecoder()
	if readings := dec.Feed(nil); readings != nil {
		t.Errorf("Feed(nil) = %v, want nil", readings)
	}
	if readings := dec.Feed([]byte{}); readings != nil {
		t.Errorf("Feed(empty) = %v, want nil", readings)
	}
}

func TestTimestampsNonDecreasing(t *testing.T) {
	// Even with a clock that steps backwards, emitted timestamps never
	// decrease within one decoder.
	times := []time.Time{
		time.Unix(100, 0),
		time.Unix(99, 0), // clock step back
		time.Unix(101, 0),
	}
	i := 0
	dec := NewDecoder()
	dec.now = func() time.Time {
		ts := times[i]
		i++
		return ts
	}

	var stream []byte
	for j := 0; j < 3; j++ {
		stream = append(stream, buildFrame(98, 60, 0, 8, 0, false)...)
	}
	readings := dec.Feed(stream)
	if len(readings) != 3 {
		t.Fatalf("decoded %d readings, want 3", len(readings))
	}
	for j := 1; j < len(readings); j++ {
		if readings[j].Timestamp.Before(readings[j-1].Timestamp) {
			t.Errorf("timestamp %d (%v) before timestamp %d (%v)",
				j, readings[j].Timestamp, j-1, readings[j-1].Timestamp)
		}
	}
}

func TestReset(t *testing.T) {
	dec := NewDecoder()
	dec.Feed([]byte{0x81, 0x00})
	if dec.Buffered() != 2 {
		t.Fatalf("Buffered() = %d, want 2", dec.Buffered())
	}
	dec.Reset()
	if dec.Buffered() != 0 {
		t.Errorf("Buffered() after Reset = %d, want 0", dec.Buffered())
	}
	// The decoder must still synchronize on a fresh frame afterwards.
	if readings := dec.Feed(buildFrame(98, 60, 0, 8, 0, false)); len(readings) != 1 {
		t.Errorf("Feed after Reset returned %d readings, want 1", len(readings))
	}
}
