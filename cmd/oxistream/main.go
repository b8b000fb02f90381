// Oxistream reads physiological telemetry from BerryMed Bluetooth pulse
// oximeters.
//
// It decodes the device's BCI frame stream into SpO2, pulse rate,
// plethysmograph and sensor status readings, and can print them to the
// console, record them to CSV, show a live terminal dashboard, or fan
// them out to WebSocket subscribers on the local network.
//
// Usage:
//
//	oxistream scan
//	oxistream stream [flags]
//	oxistream dashboard [flags]
//
// See 'oxistream --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oxistream/oxistream/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "oxistream",
	Short: "BerryMed pulse oximeter reader",
	Long: `Stream readings from a BerryMed Bluetooth pulse oximeter.

Readings carry SpO2, pulse rate, plethysmograph amplitude, signal
strength, sensor status and the heartbeat tick, one sample per frame
received from the device.`,
	Version: version.Version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error; default silent)")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(streamCmd)
	rootCmd.AddCommand(dashboardCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("oxistream %s\n", version.Full())
	},
}
