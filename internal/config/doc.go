// Package config manages the user configuration file for oxistream.
//
// The registry stores user-defined metadata for known oximeters (keyed by
// Bluetooth address) and application preferences such as the default
// device, scan timeout and signal-strength floor. It lives in the
// OS-appropriate configuration directory as config.yaml and is loaded
// lazily on first access.
//
// Nothing in the registry is required for operation; every value has a
// working default and the file is created on first save.
package config
