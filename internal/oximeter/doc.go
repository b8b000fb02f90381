// Package oximeter orchestrates a live data collection session against a
// BerryMed pulse oximeter.
//
// A Session pairs a transport byte stream with a protocol decoder and
// fans decoded readings out to consumers. The decoder itself is strictly
// single-writer, so the session runs one pump goroutine that drains the
// transport and applies chunks in arrival order; everything consumers see
// goes through that single ordered path.
//
// # Consumer Surface
//
//   - Latest: block until a reading is available (latest-value cache)
//   - Collect: gather every reading over a fixed duration
//   - Subscribe: push each reading to a callback as it is decoded
//   - SetMinSignalStrength: drop low-confidence readings before fan-out
//
// # Usage
//
//	session, err := oximeter.Connect(ctx, oximeter.Options{})
//	if err != nil { ... }
//	defer session.Close()
//
//	r, err := session.Latest(ctx)
//
// Sessions can also be built over any io.Reader with NewSession, which is
// how the tests drive them without Bluetooth hardware.
package oximeter
