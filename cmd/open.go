package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/dsdriver/internal/log"
	"firestige.xyz/dsdriver/internal/sink"
)

var openCmd = &cobra.Command{
	Use:   "open [definition]",
	Short: "Open a source definition and stream its packets until interrupted",
	Long: `open_interface the given definition, print the result, then block
streaming decoded packets to the console until SIGINT/SIGTERM/SIGHUP is
received, at which point the source is closed cleanly before exit. If the
definition is omitted, source.definition from the config file is used.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runOpenCommand(args)
	},
}

func init() {
	rootCmd.AddCommand(openCmd)
}

func runOpenCommand(args []string) {
	cfg := loadConfigOrExit()
	definition := definitionOrExit(cfg, args)

	chain := sink.NewConsole(log.GetLogger())
	src, mgr, err := connectSource(cfg, chain)
	if err != nil {
		exitWithError("connect", err)
	}
	defer mgr.Stop()

	done := make(chan result, 1)
	src.OpenInterface(definition, nil, func(tx interface{}, ok bool, msg string) {
		done <- result{ok, msg}
	})

	r := <-done
	printResult(r.ok, r.msg, src.State())
	if !r.ok {
		src.CloseSource()
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)
	fmt.Println("streaming, press ctrl-c to stop")
	<-sigCh

	src.CloseSource()
	fmt.Println("closed")
}
