// Package ble provides the Bluetooth Low Energy transport for BerryMed
// pulse oximeters.
//
// The devices expose a vendor UART service
// (49535343-fe7d-4ae5-8fa9-9fafd205e455) and stream protocol frames as
// notifications on its TX characteristic. This package wraps scanning,
// connection and notification subscription behind a Port that implements
// io.Reader, so the rest of the system only ever sees an ordered byte
// stream.
//
// # Usage
//
//	adapter := bluetooth.DefaultAdapter
//	if err := adapter.Enable(); err != nil { ... }
//
//	result, err := ble.FindDevice(ctx, adapter, ble.MatchName(ble.DeviceNamePrefix))
//	port, err := ble.OpenPort(adapter, result.Address)
//	defer port.Close()
//
// Notification callbacks write into an internal ring buffer; a single
// consumer drains it through Read. Chunk boundaries carry no meaning, the
// port only guarantees arrival order.
package ble
