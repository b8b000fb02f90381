package oximeter

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/oxistream/oxistream/internal/ble"
	"github.com/oxistream/oxistream/internal/logging"
)

// Options configures Connect.
type Options struct {
	// Address, when set, connects to that exact device; otherwise the
	// first device advertising the BerryMed name is used.
	Address string
	// MinSignalStrength drops readings below this signal floor (0-8).
	MinSignalStrength int
	// Adapter overrides the default BLE adapter, mainly for tests.
	Adapter *bluetooth.Adapter
}

// Connect scans for an oximeter, opens its notification port and returns
// a running session. Scan duration is bounded by ctx.
func Connect(ctx context.Context, opts Options) (*Session, error) {
	adapter := opts.Adapter
	if adapter == nil {
		adapter = bluetooth.DefaultAdapter
	}
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("could not enable bluetooth adapter: %w", err)
	}

	filter := ble.MatchName(ble.DeviceNamePrefix)
	if opts.Address != "" {
		filter = ble.MatchAddress(opts.Address)
	}

	result, err := ble.FindDevice(ctx, adapter, filter)
	if err != nil {
		return nil, err
	}
	logging.Info("device found",
		zap.String("address", result.Address.String()),
		zap.String("name", result.LocalName()),
	)

	port, err := ble.OpenPort(adapter, result.Address)
	if err != nil {
		return nil, fmt.Errorf("could not open port to %s: %w", result.Address.String(), err)
	}
	logging.LogConnection(result.Address.String(), "notifications_enabled")

	session := NewSession(port)
	session.SetMinSignalStrength(opts.MinSignalStrength)
	return session, nil
}
