package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/nexiatray/internal/mcpserver"
)

func newMCPCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the relay commands as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Stdout carries JSON-RPC.
			log.SetOutput(os.Stderr)

			settings, err := opts.settings()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), settings)
			if err != nil {
				return err
			}
			defer a.Close()

			log.Printf("serving MCP tools over stdio, relaying to %s", a.relay.BaseURL())
			return mcpserver.New(a.registry, version).ServeStdio()
		},
	}
}
