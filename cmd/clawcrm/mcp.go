package main

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/Kyrillus/ClawCRM/internal/mcp"
)

func newMCPCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the CRM over the Model Context Protocol on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.close()

			srv := mcpserver.NewServer(a.store, a.pipeline, a.provider, a.resolver, version, a.log)
			a.log.Info("serving MCP on stdio")
			return srv.ServeStdio()
		},
	}
}
