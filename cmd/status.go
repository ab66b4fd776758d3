package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/dsdriver/internal/driver"
	"firestige.xyz/dsdriver/internal/tracked"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the remote source's reported interfaces and observable state",
	Long: `status has no running daemon to query against — each dsdrv
invocation makes its own fresh connection to the remote source. It
connects, lists the interfaces the remote currently reports, and prints
the resulting observable state.`,
	Run: func(cmd *cobra.Command, args []string) {
		runStatusCommand()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatusCommand() {
	cfg := loadConfigOrExit()
	src, mgr, err := connectSource(cfg, nil)
	if err != nil {
		exitWithError("connect", err)
	}
	defer mgr.Stop()

	done := make(chan []driver.ListedInterface, 1)
	src.ListInterfaces(nil, func(tx interface{}, interfaces []driver.ListedInterface) {
		done <- interfaces
	})
	interfaces := <-done

	fmt.Printf("interfaces: %d\n", len(interfaces))
	for _, iface := range interfaces {
		fmt.Printf("  %s\t%s\n", iface.Interface, iface.Flags)
	}
	fmt.Println(tracked.String(tracked.Snapshot(src.State())))
}
