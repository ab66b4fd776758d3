package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the connection to the remote source",
	Long: `Connect to the configured transport and immediately close it.
close_source always succeeds: it cancels any pending commands and any
armed retry, then closes the transport.`,
	Run: func(cmd *cobra.Command, args []string) {
		runCloseCommand()
	},
}

func init() {
	rootCmd.AddCommand(closeCmd)
}

func runCloseCommand() {
	cfg := loadConfigOrExit()
	src, mgr, err := connectSource(cfg, nil)
	if err != nil {
		exitWithError("connect", err)
	}
	defer mgr.Stop()

	src.CloseSource()
	fmt.Println("closed")
}
