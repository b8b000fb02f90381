package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"tinygo.org/x/bluetooth"

	"github.com/oxistream/oxistream/internal/ble"
	"github.com/oxistream/oxistream/internal/config"
	"github.com/oxistream/oxistream/internal/logging"
	"github.com/oxistream/oxistream/internal/oximeter"
	"github.com/oxistream/oxistream/internal/protocol"
	"github.com/oxistream/oxistream/internal/record"
	"github.com/oxistream/oxistream/internal/server"
	"github.com/oxistream/oxistream/internal/tui"
)

// Shared flags
var (
	logLevel  string
	address   string
	minSignal int
)

// stream flags
var (
	duration  time.Duration
	csvPath   string
	recordCSV bool
	servePort int
)

// scan flags
var scanTimeout time.Duration

func init() {
	for _, cmd := range []*cobra.Command{streamCmd, dashboardCmd} {
		cmd.Flags().StringVar(&address, "address", "",
			"Bluetooth address of the device (default: first BerryMed found)")
		cmd.Flags().IntVar(&minSignal, "min-signal", 0,
			"Drop readings with signal strength below this value (0-8)")
	}

	streamCmd.Flags().DurationVar(&duration, "duration", 0,
		"Stop after this long (0 = run until interrupted)")
	streamCmd.Flags().StringVar(&csvPath, "csv", "",
		"Record readings to this CSV file")
	streamCmd.Flags().BoolVar(&recordCSV, "record", false,
		"Record readings to an auto-named CSV file under data/")
	streamCmd.Flags().IntVar(&servePort, "serve", 0,
		"Serve readings to WebSocket subscribers on this port (0 = disabled)")

	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 10*time.Second,
		"How long to scan for devices")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for pulse oximeters",
	Long: `Scan the area for BerryMed pulse oximeters and list each device
found with its Bluetooth address, name and signal level.`,
	RunE: runScan,
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream readings to the console",
	Long: `Connect to a pulse oximeter and stream readings as they arrive.

Readings go to the console by default; add --csv or --record for an
append-only CSV log and --serve to fan readings out to WebSocket
subscribers (advertised on the local network via mDNS).`,
	Example: `  # Stream from the first BerryMed device found
  oxistream stream

  # Collect one minute of data into a CSV file
  oxistream stream --duration 1m --csv session.csv

  # Stream a specific device and publish to WebSocket subscribers
  oxistream stream --address 00:A0:50:C8:E7:31 --serve 8080`,
	RunE: runStream,
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show a live terminal dashboard",
	RunE:  runDashboard,
}

func runScan(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return fmt.Errorf("could not enable bluetooth adapter: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	reg, _ := config.Get()

	fmt.Printf("Scanning for %s devices (%s)...\n", ble.DeviceNamePrefix, scanTimeout)
	found := 0
	results := ble.Scan(ctx, adapter, ble.MatchName(ble.DeviceNamePrefix))
	for results.Next() {
		res := results.Curr()
		found++
		line := fmt.Sprintf("  %s  %s  RSSI %d", res.Address.String(), res.LocalName(), res.RSSI)
		if reg != nil {
			if d := reg.GetDevice(res.Address.String()); d != nil && d.Nickname != "" {
				line += fmt.Sprintf("  (%s)", d.Nickname)
			}
		}
		fmt.Println(line)
	}
	if err := results.Err(); err != nil {
		return err
	}
	if found == 0 {
		fmt.Println("No devices found. Is the oximeter powered on?")
	}
	return nil
}

// connect resolves flag and registry defaults, then opens a session.
func connect(ctx context.Context, cmd *cobra.Command) (*oximeter.Session, string, error) {
	reg, err := config.Get()
	if err != nil {
		logging.Warn("could not load config, using defaults", zap.Error(err))
		reg = config.NewRegistry()
	}

	addr := address
	if addr == "" {
		addr = reg.Preferences.DeviceAddress
	}
	floor := minSignal
	if !cmd.Flags().Changed("min-signal") {
		floor = reg.Preferences.MinSignalStrength
	}
	scanWindow := time.Duration(reg.Preferences.ScanTimeout) * time.Second

	label := addr
	if label == "" {
		label = ble.DeviceNamePrefix
	}
	fmt.Printf("Searching for %s...\n", label)

	scanCtx, cancel := context.WithTimeout(ctx, scanWindow)
	defer cancel()
	session, err := oximeter.Connect(scanCtx, oximeter.Options{
		Address:           addr,
		MinSignalStrength: floor,
	})
	if err != nil {
		return nil, "", err
	}

	if addr != "" {
		reg.TouchDevice(addr)
		if err := config.Save(reg); err != nil {
			logging.Warn("could not save config", zap.Error(err))
		}
	}
	return session, label, nil
}

func runStream(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, _, err := connect(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.Close()

	printer := record.NewConsolePrinter(os.Stdout)
	defer printer.Done()
	session.Subscribe(printer.Print)

	if recordCSV || csvPath != "" {
		rec, err := record.NewCSVRecorder(csvPath)
		if err != nil {
			return err
		}
		defer rec.Close()
		fmt.Printf("Recording to %s\n", rec.Path())
		session.Subscribe(func(r protocol.Reading) {
			if err := rec.Record(r); err != nil {
				logging.Error("could not record reading", zap.Error(err))
			}
		})
	}

	if servePort != 0 {
		srv := server.New(servePort)
		session.Subscribe(srv.Broadcast)
		go func() {
			if err := srv.Start(ctx); err != nil {
				logging.Error("reading server failed", zap.Error(err))
			}
		}()
	}

	if duration > 0 {
		readings := session.Collect(ctx, duration)
		printer.Done()
		fmt.Printf("Collected %d readings over %s\n", len(readings), duration)
		return session.Err()
	}

	select {
	case <-ctx.Done():
	case <-session.Done():
	}
	return session.Err()
}

func runDashboard(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, label, err := connect(ctx, cmd)
	if err != nil {
		return err
	}
	defer session.Close()

	readings := make(chan protocol.Reading, 16)
	session.Subscribe(func(r protocol.Reading) {
		select {
		case readings <- r:
		default:
			// The dashboard only shows the latest sample; dropping under
			// backpressure is fine.
		}
	})
	go func() {
		<-session.Done()
		close(readings)
	}()

	return tui.Run(readings, label)
}
