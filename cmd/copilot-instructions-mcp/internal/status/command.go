package status

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mako10k/mcp-copilot-instructions-sub000/cmd/copilot-instructions-mcp/internal"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/devcontext"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/history"
)

func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "status",
		Aliases: []string{"s"},
		Short:   "Show copilot-instructions-mcp status",
		Run: func(cmd *cobra.Command, args []string) {
			statusCmd()
		},
	}

	return cmd
}

func statusCmd() {
	cfg, err := internal.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return
	}

	c := corpus.New(cfg.CorpusDir)
	defer c.Close()
	fragments, err := c.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load corpus: %v\n", err)
	} else {
		fmt.Printf("Corpus: %d fragment(s) under %s\n", len(fragments), cfg.CorpusDir)
	}

	ctx, err := devcontext.New(cfg.ContextPath()).Read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read context: %v\n", err)
	} else {
		fmt.Printf("Context: phase=%s focus=%v priority=%s mode=%s\n", ctx.Phase, ctx.Focus, ctx.Priority, ctx.Mode)
	}

	if _, err := os.Stat(cfg.LockPath()); err == nil {
		fmt.Printf("Lock: held (%s)\n", cfg.LockPath())
	} else {
		fmt.Println("Lock: free")
	}

	entries, err := history.New(cfg.HistoryDir()).List(1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read history: %v\n", err)
		return
	}
	if len(entries) == 0 {
		fmt.Println("History: no generations recorded yet")
		return
	}
	latest := entries[0]
	fmt.Printf("History: last generation at %s (%d sections, hash %s)\n", latest.Timestamp, latest.SectionsCount, latest.GeneratedHash)
}
