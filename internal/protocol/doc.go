// Package protocol implements the BCI serial protocol spoken by BerryMed
// pulse oximeters.
//
// The device streams fixed-length 5-byte frames over its BLE UART service,
// one frame per sampling instant. The transport delivers raw byte chunks of
// arbitrary size with no alignment to frame boundaries, so this package
// centers on a stateful streaming decoder that recovers frame
// synchronization from any point in the byte stream.
//
// # Frame Layout
//
// Each frame is 5 bytes. Only the first byte of a frame carries the sync
// marker (bit 7); every continuation byte has it clear:
//
//	Byte 0: bit 7 sync marker, bits 4-6 signal strength (low bits),
//	        bit 0 pulse beep
//	Byte 1: plethysmograph amplitude (0-255)
//	Byte 2: bit 3 signal strength (high bit), bits 0-2 status code
//	Byte 3: pulse rate, 7 bits (127 = no valid measurement)
//	Byte 4: SpO2 percent (values above 100 = no valid measurement)
//
// # Decoding
//
//	dec := protocol.NewDecoder()
//	for chunk := range transport {
//	    for _, r := range dec.Feed(chunk) {
//	        fmt.Println(r)
//	    }
//	}
//
// Feed never blocks and never fails on wire data: corrupt or misaligned
// bytes are discarded one at a time until synchronization is regained, and
// partial frames stay buffered until the next chunk completes them. Every
// complete, valid frame present in the buffer is decoded within the Feed
// call that completes it.
//
// # Error Handling
//
// Data-quality degradation is expressed in the Reading itself: absent
// optional fields, low signal strength, and explicit Status values. The
// decoder has no error return; there is nothing a caller could retry.
//
// # Thread Safety
//
// A Decoder is single-writer by design: Feed must be called from one
// goroutine at a time, in transport arrival order. Readings are plain
// values and safe to share once returned.
package protocol
