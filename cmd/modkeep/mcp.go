package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/modkeep/modkeep/internal/logging"
	"github.com/modkeep/modkeep/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server exposing the mod tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logging.New(verbose)
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(log)
			if err != nil {
				return err
			}

			return server.Run(context.Background())
		},
	}

	return cmd
}
