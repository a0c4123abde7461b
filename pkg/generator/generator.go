// Package generator assembles the selected fragment corpus plus a templated
// meta-instruction block into the single rendered instructions file, the
// only writer permitted to overwrite that file wholesale.
package generator

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/filestate"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/history"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/lock"
)

const title = "# Copilot Instructions"

// defaultMetaTemplate renders the meta-instruction block: a short paragraph
// telling the assistant how to treat the sections that follow, templated
// from the caller's phase/focus so it reads as context-specific rather than
// boilerplate. A caller may override it via Options.MetaTemplateSource; the
// corpus's _templates/ directory is not read for an override.
const defaultMetaTemplate = `The sections below are assembled for the current development context: phase
"{{.Phase}}"{{if .Focus}}, focused on {{join .Focus ", "}}{{end}}. Treat them as
standing project guidance, not a one-off answer — apply them to every change
you propose in this session. Where a section conflicts with a direct
instruction from the user in this conversation, the user's instruction wins.
Sections are ordered by relevance to the current focus; required sections
appear first regardless of score and always apply. If you believe a section
is stale or wrong, say so rather than silently ignoring it — this corpus is
maintained by the team and a flagged correction is more useful than a silent
workaround.`

var metaFuncs = template.FuncMap{
	"join": strings.Join,
}

// Options controls a single generation run.
type Options struct {
	LockTimeout time.Duration
	// MetaTemplateSource overrides defaultMetaTemplate when non-empty. It is
	// supplied by the caller only; nothing loads it from the corpus.
	MetaTemplateSource string
}

// Result is returned by Generate.
type Result struct {
	Success       bool
	SectionsCount int
	GeneratedHash string
}

// Generator wires together the corpus, the process lock, and the history
// store to produce and persist a single rendered instructions file.
type Generator struct {
	InstructionsPath string
	LockPath         string
	Corpus           *corpus.Corpus
	History          *history.Store
}

// New returns a Generator writing to instructionsPath and guarded by the
// lock file at lockPath.
func New(instructionsPath, lockPath string, c *corpus.Corpus, h *history.Store) *Generator {
	return &Generator{
		InstructionsPath: instructionsPath,
		LockPath:         lockPath,
		Corpus:           c,
		History:          h,
	}
}

// Generate acquires the process lock, selects fragments for ctx under rules,
// composes the output, writes it unconditionally, and records a history
// entry for it.
func (g *Generator) Generate(ctx corpus.Context, rules corpus.ScoringRules, opts Options) (*Result, error) {
	var result *Result

	err := lock.WithLock(g.LockPath, opts.LockTimeout, func() error {
		fragments, err := g.Corpus.Load()
		if err != nil {
			return err
		}

		selected := corpus.Select(fragments, ctx, rules)

		content, err := compose(ctx, selected, rules, opts.MetaTemplateSource)
		if err != nil {
			return err
		}

		if err := filestate.WriteUnconditional(g.InstructionsPath, []byte(content)); err != nil {
			return err
		}

		hash := filestate.Hash([]byte(content))
		if _, err := g.History.Record(ctx, hash, len(selected), content); err != nil {
			return err
		}

		result = &Result{
			Success:       true,
			SectionsCount: len(selected),
			GeneratedHash: hash,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// compose renders the fixed-order output: title, meta-instruction block,
// then each selected fragment's body under a derived section heading.
func compose(ctx corpus.Context, selected []corpus.ScoredFragment, rules corpus.ScoringRules, metaTemplateSource string) (string, error) {
	meta, err := renderMeta(ctx, metaTemplateSource)
	if err != nil {
		return "", err
	}

	parts := []string{title, meta}
	for _, sf := range selected {
		heading := fmt.Sprintf("## %s: %s", categoryOf(sf.Fragment), corpus.CategoryTitle(sf.Fragment))
		body := truncateIfPureList(sf.Fragment.Body, rules.MaxItemsPerSection)
		parts = append(parts, heading+"\n\n"+strings.TrimSpace(body))
	}

	return strings.Join(parts, "\n\n") + "\n", nil
}

func categoryOf(f corpus.Fragment) string {
	if f.FrontMatter.Category != "" {
		return f.FrontMatter.Category
	}
	return "General"
}

func renderMeta(ctx corpus.Context, source string) (string, error) {
	src := defaultMetaTemplate
	if source != "" {
		src = source
	}

	tmpl, err := template.New("meta").Funcs(metaFuncs).Parse(src)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, ctx); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// truncateIfPureList trims a section body to maxItems list lines when every
// non-blank line other than a Markdown heading (such as the fragment's H1
// title) is a list item; sections with any prose line are kept whole.
func truncateIfPureList(body string, maxItems int) string {
	if maxItems <= 0 {
		return body
	}

	lines := strings.Split(body, "\n")
	var listLines []int
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !isListItem(trimmed) {
			return body
		}
		listLines = append(listLines, i)
	}

	if len(listLines) <= maxItems {
		return body
	}

	cut := listLines[maxItems]
	return strings.Join(lines[:cut], "\n")
}

func isListItem(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ") || strings.HasPrefix(line, "+ ")
}
