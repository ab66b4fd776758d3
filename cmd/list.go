package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/dsdriver/internal/driver"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List capture interfaces the remote source reports",
	Long: `Connect to the configured transport and ask the remote source for
every interface it could open, without opening any of them.`,
	Run: func(cmd *cobra.Command, args []string) {
		runListCommand()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runListCommand() {
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
	if len(interfaces) == 0 {
		fmt.Println("no interfaces reported")
		return
	}
	for _, iface := range interfaces {
		fmt.Printf("%s\t%s\n", iface.Interface, iface.Flags)
	}
}
