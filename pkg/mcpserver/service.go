package mcpserver

import (
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/config"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/devcontext"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/generator"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/history"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/priorityflags"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/scoring"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/sections"
)

// Service wires the core packages together behind the three MCP tool
// surfaces. It owns no state beyond what each core package already
// persists to disk.
type Service struct {
	Config *config.Config

	Sections  *sections.Store
	Context   *devcontext.Store
	History   *history.Store
	Generator *generator.Generator
	Flags     *priorityflags.Registry
	Corpus    *corpus.Corpus
	Scoring   *scoring.Store
}

// New builds a Service from a resolved Config, constructing every core
// component it delegates to.
func New(cfg *config.Config) *Service {
	c := corpus.New(cfg.CorpusDir)
	h := history.New(cfg.HistoryDir())

	return &Service{
		Config:    cfg,
		Sections:  sections.New(cfg.InstructionsPath, cfg.LockPath(), cfg.LockTimeout),
		Context:   devcontext.New(cfg.ContextPath()),
		History:   h,
		Generator: generator.New(cfg.InstructionsPath, cfg.LockPath(), c, h),
		Flags:     priorityflags.New(cfg.CorpusDir, corpus.ScoringRules{}),
		Corpus:    c,
		Scoring:   scoring.New(cfg.ScoringRulesPath()),
	}
}

// rules loads the current scoring rules from disk, falling back to
// corpus.DefaultScoringRules() if scoring-rules.json is absent. Loaded
// fresh for every call so an operator's edits take effect without a
// process restart.
func (s *Service) rules() (corpus.ScoringRules, error) {
	return s.Scoring.Load()
}

// Close releases background resources (the corpus watcher).
func (s *Service) Close() {
	s.Corpus.Close()
}

func (s *Service) writeGuard() error {
	if s.Config.Restricted {
		return mcperr.Restricted("writes are restricted until onboarding completes")
	}
	return nil
}

// resultFromError flattens a core-package error into a Result: the
// canonical token as Error, the human message and (if any) next-action
// guidance folded into Payload alongside whatever capability-specific
// fields the caller already gathered (e.g. existingFlags on HardLimitReached).
func resultFromError(err error, extra map[string]any) *Result {
	payload := map[string]any{}
	for k, v := range extra {
		payload[k] = v
	}

	if e, ok := err.(*mcperr.Error); ok {
		payload["message"] = e.Message
		if e.NextAction != "" {
			payload["nextAction"] = e.NextAction
		}
		return &Result{Success: false, Error: string(e.Code), Payload: payload}
	}

	payload["message"] = err.Error()
	return &Result{Success: false, Error: string(mcperr.CodeIOError), Payload: payload}
}
