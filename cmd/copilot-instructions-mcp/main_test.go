package main

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mako10k/mcp-copilot-instructions-sub000/cmd/copilot-instructions-mcp/internal"
)

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	require.NotNil(t, cmd)

	short := fmt.Sprintf("%s copilot-instructions-mcp - Local memory service for an LLM coding assistant v%s\n\n", internal.Logo, internal.GetVersion())

	assert.Equal(t, "copilot-instructions-mcp", cmd.Use)
	assert.Equal(t, short, cmd.Short)

	assert.True(t, cmd.HasSubCommands())
	assert.True(t, cmd.HasAvailableSubCommands())

	assert.False(t, cmd.HasFlags())

	assert.Nil(t, cmd.Run)
	assert.Nil(t, cmd.RunE)

	allowedCommands := []string{
		"serve",
		"status",
		"migrate",
		"version",
	}

	subcommands := cmd.Commands()
	assert.Len(t, subcommands, len(allowedCommands))

	for _, subcmd := range subcommands {
		found := slices.Contains(allowedCommands, subcmd.Name())
		assert.True(t, found, "unexpected subcommand %q", subcmd.Name())

		assert.False(t, subcmd.Hidden)
	}
}
