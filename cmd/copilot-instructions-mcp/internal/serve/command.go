// Package serve runs the MCP stdio server, the production entry point.
package serve

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mako10k/mcp-copilot-instructions-sub000/cmd/copilot-instructions-mcp/internal"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcpserver"
)

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP stdio server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
	return cmd
}

func run(ctx context.Context) error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}

	server, svc := mcpserver.NewServer(cfg, internal.GetVersion())
	defer svc.Close()

	return mcpserver.Serve(ctx, server)
}
