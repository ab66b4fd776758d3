package cmd

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var setHopCmd = &cobra.Command{
	Use:   "set-hop <rate> <chan,chan,...>",
	Short: "Set the opened source's channel-hop rate and channel set",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		rate, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			exitWithError("invalid hop rate", err)
		}
		channels := strings.Split(args[1], ",")
		runSetHopCommand(rate, channels)
	},
}

func init() {
	rootCmd.AddCommand(setHopCmd)
}

func runSetHopCommand(rate float64, channels []string) {
	cfg := loadConfigOrExit()
	src, mgr, err := connectSource(cfg, nil)
	if err != nil {
		exitWithError("connect", err)
	}
	defer mgr.Stop()

	done := make(chan result, 1)
	src.SetChannelHop(rate, channels, nil, func(tx interface{}, ok bool, msg string) {
		done <- result{ok, msg}
	})

	r := <-done
	printResult(r.ok, r.msg, src.State())
}
