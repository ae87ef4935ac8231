package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - failover gateway for OpenAI-compatible chat APIs",
	Long: `Meridian is a failover gateway for OpenAI-compatible chat APIs.

Each configured endpoint exposes POST <route>/chat/completions backed by
an ordered or randomized pool of upstream providers. Requests are relayed
to the first live provider; provider failures mark the provider dead and
fail over transparently, and a recovery prober revives dead providers
once they answer again.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
}
