package ble

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smallnest/ringbuffer"
	"tinygo.org/x/bluetooth"
)

// UUIDs of the BerryMed vendor UART service and its characteristics. The
// device streams frames as notifications on the TX characteristic.
var (
	serviceUUID = mustParseUUID("49535343-fe7d-4ae5-8fa9-9fafd205e455")
	charTxUUID  = mustParseUUID("49535343-1e4d-4bd9-ba61-23c647249616")
	charRxUUID  = mustParseUUID("49535343-8841-43f4-a8d4-ecbe34729bb3")
)

func mustParseUUID(s string) bluetooth.UUID {
	uuid, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return uuid
}

var (
	// ErrPortClosed is returned by Read after Close.
	ErrPortClosed = errors.New("port is closed")
	// ErrServiceNotFound indicates the connected device does not expose
	// the vendor UART service, i.e. it is not a supported oximeter.
	ErrServiceNotFound = errors.New("oximeter UART service not found")
)

// defaultBufferSize holds roughly a second of frames at the device's
// sampling rate, enough to ride out scheduling hiccups in the consumer.
const defaultBufferSize = 1024

// Port is an open notification channel to a connected oximeter. It
// implements io.Reader over the raw protocol byte stream; chunks written
// by the BLE stack are preserved in arrival order.
type Port struct {
	device  *bluetooth.Device
	service bluetooth.DeviceService
	charTx  bluetooth.DeviceCharacteristic
	charRx  bluetooth.DeviceCharacteristic

	rbuf *ringbuffer.RingBuffer

	mu     sync.RWMutex
	closed bool
}

// OpenPort connects to the device at addr, discovers the UART service and
// subscribes to frame notifications. The caller owns the returned Port and
// must Close it to disconnect.
func OpenPort(adapter *bluetooth.Adapter, addr bluetooth.Addresser) (*Port, error) {
	device, err := adapter.Connect(addr, bluetooth.ConnectionParams{})
	if err != nil {
		return nil, fmt.Errorf("could not connect: %w", err)
	}

	svcs, err := device.DiscoverServices([]bluetooth.UUID{serviceUUID})
	if err != nil {
		device.Disconnect()
		return nil, fmt.Errorf("could not discover services: %w", err)
	}
	if len(svcs) == 0 {
		device.Disconnect()
		return nil, ErrServiceNotFound
	}
	service := svcs[0]

	chars, err := service.DiscoverCharacteristics([]bluetooth.UUID{charRxUUID, charTxUUID})
	if err != nil {
		device.Disconnect()
		return nil, fmt.Errorf("could not discover RX/TX characteristics: %w", err)
	}

	port := &Port{
		device:  device,
		service: service,
		charRx:  chars[0],
		charTx:  chars[1],
		rbuf:    ringbuffer.New(defaultBufferSize),
	}

	// The notification callback runs on the BLE stack's goroutine; it only
	// copies bytes into the ring and never blocks on the consumer. If the
	// ring is full the write fails and the chunk is dropped, which the
	// decoder's resynchronization absorbs.
	writeToBuffer := func(value []byte) {
		for len(value) > 0 {
			n, err := port.rbuf.Write(value)
			if err != nil {
				return
			}
			value = value[n:]
		}
	}
	if err := port.charTx.EnableNotifications(writeToBuffer); err != nil {
		port.Close()
		return nil, fmt.Errorf("could not enable notifications: %w", err)
	}

	return port, nil
}

// Read drains buffered notification bytes into buf, blocking until at
// least one byte is available or the port is closed.
func (port *Port) Read(buf []byte) (int, error) {
	for {
		port.mu.RLock()
		closed := port.closed
		port.mu.RUnlock()
		if closed {
			return 0, ErrPortClosed
		}

		n, err := port.rbuf.Read(buf)
		if n > 0 {
			return n, nil
		}
		if err != nil && err != ringbuffer.ErrIsEmpty {
			return 0, err
		}
		// The ring is non-blocking; poll at a granularity well below the
		// device's frame interval.
		time.Sleep(time.Millisecond)
	}
}

// Buffered returns the number of notification bytes waiting to be read.
func (port *Port) Buffered() int {
	return port.rbuf.Length()
}

// Close disconnects from the device. Pending Reads return ErrPortClosed.
func (port *Port) Close() error {
	port.mu.Lock()
	defer port.mu.Unlock()
	if port.closed {
		return nil
	}
	port.closed = true
	return port.device.Disconnect()
}
