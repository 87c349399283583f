package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/sitegrep/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing document search and reading tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireRoot(); err != nil {
			return err
		}
		// Stdout carries the protocol.
		logger := newLogger(cfg, os.Stderr)

		mcpserver.Version = Version
		fmt.Fprintf(os.Stderr, "sitegrep MCP server started on stdio (root=%s)\n", cfg.Root)

		srv := mcpserver.NewServer(searcherFromConfig(cfg, logger), cfg.Root, logger)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
