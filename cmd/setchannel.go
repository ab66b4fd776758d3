package cmd

import (
	"github.com/spf13/cobra"
)

var setChannelCmd = &cobra.Command{
	Use:   "set-channel <channel>",
	Short: "Set the opened source's current channel",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSetChannelCommand(args[0])
	},
}

func init() {
	rootCmd.AddCommand(setChannelCmd)
}

func runSetChannelCommand(channel string) {
	cfg := loadConfigOrExit()
	src, mgr, err := connectSource(cfg, nil)
	if err != nil {
		exitWithError("connect", err)
	}
	defer mgr.Stop()

	done := make(chan result, 1)
	src.SetChannel(channel, nil, func(tx interface{}, ok bool, msg string) {
		done <- result{ok, msg}
	})

	r := <-done
	printResult(r.ok, r.msg, src.State())
}
