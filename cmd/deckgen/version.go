package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joeblew999/deckgen/handler"
	"github.com/joeblew999/deckgen/internal/config"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "deckgen v%s\n", handler.Version)
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print an example config file",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), config.Example)
	},
}
