package ble

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tinygo.org/x/bluetooth"
)

// testAddress satisfies bluetooth.Addresser for fabricated scan results.
type testAddress struct {
	addr string
}

func (a *testAddress) String() string      { return a.addr }
func (a *testAddress) Set(val string) { a.addr = val }
func (a *testAddress) SetRandom(bool)      {}
func (a *testAddress) IsRandom() bool      { return false }

func result(addr string) bluetooth.ScanResult {
	return bluetooth.ScanResult{Address: &testAddress{addr: addr}}
}

// A scan timeout races the stop request against advertisements still
// being delivered on the adapter's goroutine. Those late deliveries must
// be absorbed, not crash the process.
func TestScanStopsCleanlyWhileAdvertising(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	stopped := make(chan struct{})
	scan := func(report func(bluetooth.ScanResult)) error {
		n := 0
		for {
			select {
			case <-stopped:
				// The adapter delivers a few more callbacks after
				// StopScan before Scan returns.
				for i := 0; i < 50; i++ {
					report(result(fmt.Sprintf("00:A0:50:01:00:%02X", i)))
				}
				return nil
			default:
				n++
				report(result(fmt.Sprintf("00:A0:50:00:%02X:%02X", n/200%200, n%200)))
				time.Sleep(10 * time.Microsecond)
			}
		}
	}
	stop := func() error {
		close(stopped)
		return nil
	}

	results := scanWith(ctx, scan, stop, nil)
	for results.Next() {
	}
	if err := results.Err(); err != nil {
		t.Fatalf("Err() = %v, want nil", err)
	}
}

func TestScanReportsEachAddressOnce(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	scan := func(report func(bluetooth.ScanResult)) error {
		for i := 0; i < 5; i++ {
			report(result("00:A0:50:C8:E7:31"))
		}
		report(result("11:22:33:44:55:66"))
		return nil
	}

	results := scanWith(ctx, scan, func() error { return nil }, nil)
	var got []string
	for results.Next() {
		got = append(got, results.Curr().Address.String())
	}
	if len(got) != 2 {
		t.Fatalf("got %d results (%v), want 2", len(got), got)
	}
	if got[0] != "00:A0:50:C8:E7:31" || got[1] != "11:22:33:44:55:66" {
		t.Errorf("unexpected results: %v", got)
	}
}

func TestScanFiltersByAddress(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	scan := func(report func(bluetooth.ScanResult)) error {
		report(result("11:22:33:44:55:66"))
		report(result("00:A0:50:C8:E7:31"))
		return nil
	}

	results := scanWith(ctx, scan, func() error { return nil }, MatchAddress("00:a0:50:c8:e7:31"))
	if !results.Next() {
		t.Fatal("Next() = false, want a match")
	}
	if got := results.Curr().Address.String(); got != "00:A0:50:C8:E7:31" {
		t.Errorf("Curr().Address = %q, want the filtered device", got)
	}
	if results.Next() {
		t.Error("Next() = true after the only match")
	}
}

func TestScanSurfacesAdapterError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	scanErr := errors.New("adapter gone")
	scan := func(report func(bluetooth.ScanResult)) error {
		return scanErr
	}

	results := scanWith(ctx, scan, func() error { return nil }, nil)
	if results.Next() {
		t.Fatal("Next() = true, want false on scan failure")
	}
	if err := results.Err(); !errors.Is(err, scanErr) {
		t.Errorf("Err() = %v, want %v", err, scanErr)
	}
}
