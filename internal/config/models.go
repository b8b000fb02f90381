package config

import "time"

// Registry represents the entire user configuration file.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by Bluetooth address
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents user-defined metadata for a single oximeter, keyed by
// its Bluetooth address in the Registry.
type Device struct {
	Nickname string    `yaml:"nickname,omitempty"`  // User-friendly name
	LastSeen time.Time `yaml:"last_seen,omitempty"` // Last successful connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DeviceAddress     string `yaml:"device_address,omitempty"` // Default device to connect to
	ScanTimeout       int    `yaml:"scan_timeout"`             // BLE scan timeout in seconds
	MinSignalStrength int    `yaml:"min_signal_strength"`      // Readings below this are dropped (0-8)
	CSVDir            string `yaml:"csv_dir,omitempty"`        // Directory for auto-named CSV files
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Device),
		Preferences: &Preferences{
			ScanTimeout:       10,
			MinSignalStrength: 0,
		},
	}
}

// GetDevice retrieves device metadata by Bluetooth address. Returns nil
// if the device is unknown.
func (r *Registry) GetDevice(address string) *Device {
	return r.Devices[address]
}

// EnsureDevice ensures a device entry exists, creating an empty one if
// needed, and returns it.
func (r *Registry) EnsureDevice(address string) *Device {
	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	if d, ok := r.Devices[address]; ok {
		return d
	}
	d := &Device{}
	r.Devices[address] = d
	return d
}

// TouchDevice records a successful connection to the device.
func (r *Registry) TouchDevice(address string) {
	r.EnsureDevice(address).LastSeen = time.Now()
}
