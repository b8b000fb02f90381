package ble

import (
	"context"
	"errors"
	"strings"
	"sync"

	"tinygo.org/x/bluetooth"
)

// DeviceNamePrefix is the advertised local name of supported oximeters.
const DeviceNamePrefix = "BerryMed"

// ErrDeviceNotFound is returned by FindDevice when the scan ends without
// a matching device.
var ErrDeviceNotFound = errors.New("no matching device found")

// ScanResultFilter selects scan results worth reporting.
type ScanResultFilter func(res bluetooth.ScanResult) bool

// MatchName matches devices whose advertised local name starts with prefix.
func MatchName(prefix string) ScanResultFilter {
	return func(res bluetooth.ScanResult) bool {
		return strings.HasPrefix(res.LocalName(), prefix)
	}
}

// MatchAddress matches a device by its exact address string.
func MatchAddress(addr string) ScanResultFilter {
	return func(res bluetooth.ScanResult) bool {
		if res.Address == nil {
			return false
		}
		return strings.EqualFold(res.Address.String(), addr)
	}
}

// ScanResults iterates over deduplicated scan results as they arrive.
type ScanResults struct {
	res bluetooth.ScanResult

	mu  sync.Mutex
	err error

	results chan bluetooth.ScanResult
}

// Scan starts a BLE scan and returns an iterator over matching devices.
// Each address is reported at most once. The scan stops when ctx is done.
func Scan(ctx context.Context, adapter *bluetooth.Adapter, filter ScanResultFilter) *ScanResults {
	scan := func(report func(bluetooth.ScanResult)) error {
		return adapter.Scan(func(_ *bluetooth.Adapter, r bluetooth.ScanResult) {
			report(r)
		})
	}
	return scanWith(ctx, scan, adapter.StopScan, filter)
}

// scanWith runs the dedup and shutdown plumbing over an abstract scan
// source. The adapter keeps invoking the report callback until scan
// returns, some time after stop is called, so raw must stay open until
// then. Only sr.results is ever closed, and only after scan has returned.
func scanWith(ctx context.Context, scan func(func(bluetooth.ScanResult)) error, stop func() error, filter ScanResultFilter) *ScanResults {
	const bufferSize = 10

	raw := make(chan bluetooth.ScanResult, bufferSize)
	scanDone := make(chan struct{})
	sr := &ScanResults{
		results: make(chan bluetooth.ScanResult, bufferSize),
	}

	go func() {
		defer close(scanDone)
		err := scan(func(r bluetooth.ScanResult) {
			select {
			case raw <- r:
			default:
				// Advertisement burst. The device will advertise again.
			}
		})
		if err != nil {
			sr.setErr(err)
		}
	}()

	go func() {
		defer close(sr.results)
		seen := make(map[string]bool)
		deliver := func(r bluetooth.ScanResult) {
			if r.Address == nil {
				return
			}
			addr := r.Address.String()
			if seen[addr] {
				return
			}
			seen[addr] = true
			if filter == nil || filter(r) {
				select {
				case sr.results <- r:
				case <-ctx.Done():
				}
			}
		}
		for {
			select {
			case r := <-raw:
				deliver(r)
			case <-ctx.Done():
				if err := stop(); err != nil {
					sr.setErr(err)
				}
				<-scanDone
				return
			case <-scanDone:
				for {
					select {
					case r := <-raw:
						deliver(r)
					default:
						return
					}
				}
			}
		}
	}()

	return sr
}

func (sr *ScanResults) setErr(err error) {
	sr.mu.Lock()
	if sr.err == nil {
		sr.err = err
	}
	sr.mu.Unlock()
}

// Next advances to the next matching device, blocking until one arrives or
// the scan ends. It returns false when the scan is exhausted or failed.
func (sr *ScanResults) Next() bool {
	dev, ok := <-sr.results
	if !ok {
		return false
	}
	sr.res = dev
	return true
}

// Curr returns the result most recently reported by Next.
func (sr *ScanResults) Curr() bluetooth.ScanResult {
	return sr.res
}

// Err returns the scan error, if any.
func (sr *ScanResults) Err() error {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	return sr.err
}

// FindDevice scans until the first device matching filter appears or ctx
// expires, returning ErrDeviceNotFound in the latter case.
func FindDevice(ctx context.Context, adapter *bluetooth.Adapter, filter ScanResultFilter) (bluetooth.ScanResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := Scan(ctx, adapter, filter)
	if results.Next() {
		return results.Curr(), nil
	}
	if err := results.Err(); err != nil {
		return bluetooth.ScanResult{}, err
	}
	return bluetooth.ScanResult{}, ErrDeviceNotFound
}
