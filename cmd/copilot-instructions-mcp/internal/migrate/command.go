// Package migrate detects a legacy single-file copilot-instructions.md
// setup and prints guidance. It is intentionally a detector, not a rewriter
// — turning a hand-maintained file into a fragment corpus is an analysis
// task for a separate onboarding flow.
package migrate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mako10k/mcp-copilot-instructions-sub000/cmd/copilot-instructions-mcp/internal"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Detect a legacy single-file copilot-instructions.md setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run()
		},
	}
	return cmd
}

func run() error {
	cfg, err := internal.LoadConfig()
	if err != nil {
		return err
	}

	_, instructionsErr := os.Stat(cfg.InstructionsPath)
	_, corpusErr := os.Stat(cfg.CorpusDir)

	hasInstructions := instructionsErr == nil
	hasCorpus := corpusErr == nil

	switch {
	case hasInstructions && !hasCorpus:
		fmt.Printf("Found a legacy instructions file at %s with no fragment corpus at %s.\n", cfg.InstructionsPath, cfg.CorpusDir)
		fmt.Println("This tool only detects the legacy layout; splitting the file into corpus fragments is an onboarding step outside its scope.")
	case hasInstructions && hasCorpus:
		fmt.Println("A fragment corpus is already present alongside the instructions file; nothing to migrate.")
	default:
		fmt.Println("No legacy instructions file found; nothing to migrate.")
	}
	return nil
}
