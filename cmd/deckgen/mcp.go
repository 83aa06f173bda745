package main

import (
	"github.com/spf13/cobra"

	"github.com/joeblew999/deckgen/internal/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the deck tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, log, err := loadApp()
		if err != nil {
			return err
		}
		log.Info("starting MCP server in stdio mode")
		return mcpserver.Serve(a.Tools())
	},
}
