package cmd

import (
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe [definition]",
	Short: "Probe whether a definition is viable without opening it",
	Long: `probe_interface the given definition. If omitted, the definition
configured under source.definition in the config file is used instead.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runProbeCommand(args)
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

func runProbeCommand(args []string) {
	cfg := loadConfigOrExit()
	definition := definitionOrExit(cfg, args)

	src, mgr, err := connectSource(cfg, nil)
	if err != nil {
		exitWithError("connect", err)
	}
	defer mgr.Stop()

	done := make(chan result, 1)
	src.ProbeInterface(definition, nil, func(tx interface{}, ok bool, msg string) {
		done <- result{ok, msg}
	})

	r := <-done
	printResult(r.ok, r.msg, src.State())
}
