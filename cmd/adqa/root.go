package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "adqa",
	Short:         "Ad-policy question answering over web search and a document index",
	SilenceUsage:  true,
	SilenceErrors: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(
		serveCmd,
		askCmd,
		ingestCmd,
		searchCmd,
	)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Config file (yaml)")
}
