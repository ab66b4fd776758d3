// Package cmd implements CLI commands using the cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "dsdrv",
	Short: "dsdrv - control-plane driver for a remote capture source",
	Long: `dsdrv drives a bidirectional control-plane connection to a remote
capture source: listing and probing available interfaces, opening one for
capture, tuning its channel or hop set, and streaming the packets it sends
back to a local sink.

Each subcommand maps directly onto one lifecycle operation: it dials the
configured transport, builds a driver for exactly one source, runs the
operation, and prints the result.`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/dsdrv/config.yml",
		"config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"override the configured log level")
}

// exitWithError prints error message and exits with code 1.
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
