// Package cmd implements the knxnetipd command-line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Build-time version information, set via ldflags:
//
//	go build -ldflags "-X github.com/hausnet/knxnetip/cmd/knxnetipd/cmd.version=1.0.0"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var configPath string

// RootCmd is the knxnetipd entry point.
var RootCmd = &cobra.Command{
	Use:   "knxnetipd",
	Short: "KNXnet/IP bus daemon",
	Long:  "knxnetipd bridges a KNXnet/IP routing or tunnelling connection to MQTT, InfluxDB, and a read-only monitor API.",
}

// Execute runs the root command, exiting the process on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to configuration file")
}
