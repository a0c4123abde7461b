package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mako10k/mcp-copilot-instructions-sub000/cmd/copilot-instructions-mcp/internal"
	"github.com/mako10k/mcp-copilot-instructions-sub000/cmd/copilot-instructions-mcp/internal/migrate"
	"github.com/mako10k/mcp-copilot-instructions-sub000/cmd/copilot-instructions-mcp/internal/serve"
	"github.com/mako10k/mcp-copilot-instructions-sub000/cmd/copilot-instructions-mcp/internal/status"
	"github.com/mako10k/mcp-copilot-instructions-sub000/cmd/copilot-instructions-mcp/internal/version"
)

func NewRootCommand() *cobra.Command {
	short := fmt.Sprintf("%s copilot-instructions-mcp - Local memory service for an LLM coding assistant v%s\n\n", internal.Logo, internal.GetVersion())

	cmd := &cobra.Command{
		Use:     "copilot-instructions-mcp",
		Short:   short,
		Example: "copilot-instructions-mcp serve",
	}

	cmd.AddCommand(
		serve.NewServeCommand(),
		status.NewStatusCommand(),
		migrate.NewMigrateCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
