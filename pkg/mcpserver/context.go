package mcpserver

import (
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/devcontext"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/generator"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

// ContextState carries the partial context fields an update call may set.
type ContextState struct {
	Phase    *string   `json:"phase,omitempty"`
	Focus    *[]string `json:"focus,omitempty"`
	Priority *string   `json:"priority,omitempty"`
	Mode     *string   `json:"mode,omitempty"`
}

// ContextInput is the context tool's input, covering both the Development
// Context singleton and the history store built on top of it.
type ContextInput struct {
	Action         string        `json:"action"`
	State          *ContextState `json:"state,omitempty"`
	AutoRegenerate *bool         `json:"autoRegenerate,omitempty"`
	Timestamp      string        `json:"timestamp,omitempty"`
	From           string        `json:"from,omitempty"`
	To             string        `json:"to,omitempty"`
	DaysToKeep     int           `json:"daysToKeep,omitempty"`
	Limit          int           `json:"limit,omitempty"`
	Mode           string        `json:"mode,omitempty"`
}

// Context dispatches one context call.
func (s *Service) Context(in ContextInput) *Result {
	switch in.Action {
	case "read":
		return s.contextRead()
	case "update":
		return s.contextUpdate(in)
	case "reset":
		return s.contextReset()
	case "rollback":
		return s.contextRollback(in)
	case "list-history":
		return s.contextListHistory(in)
	case "show-diff":
		return s.contextShowDiff(in)
	case "cleanup-history":
		return s.contextCleanupHistory(in)
	default:
		return resultFromError(mcperr.NotFound("unknown context action: "+in.Action), nil)
	}
}

func contextPayload(ctx corpus.Context) map[string]any {
	return map[string]any{
		"phase":    ctx.Phase,
		"focus":    ctx.Focus,
		"priority": ctx.Priority,
		"mode":     ctx.Mode,
	}
}

func (s *Service) contextRead() *Result {
	ctx, err := s.Context.Read()
	if err != nil {
		return resultFromError(err, nil)
	}
	return Ok(contextPayload(ctx))
}

func toPartial(state *ContextState) devcontext.PartialContext {
	if state == nil {
		return devcontext.PartialContext{}
	}
	partial := devcontext.PartialContext{
		Phase: state.Phase,
		Focus: state.Focus,
		Mode:  state.Mode,
	}
	if state.Priority != nil {
		p := corpus.Priority(*state.Priority)
		partial.Priority = &p
	}
	return partial
}

func (s *Service) contextUpdate(in ContextInput) *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}

	partial := toPartial(in.State)
	if in.Mode != "" && partial.Mode == nil {
		partial.Mode = &in.Mode
	}

	ctx, err := s.Context.Update(partial)
	if err != nil {
		return resultFromError(err, nil)
	}

	payload := contextPayload(ctx)

	autoRegenerate := in.AutoRegenerate == nil || *in.AutoRegenerate
	if autoRegenerate {
		rules, err := s.rules()
		if err != nil {
			return resultFromError(err, payload)
		}
		genResult, err := s.Generator.Generate(ctx, rules, generator.Options{LockTimeout: s.Config.LockTimeout})
		if err != nil {
			return resultFromError(err, payload)
		}
		payload["sectionsCount"] = genResult.SectionsCount
		payload["generatedHash"] = genResult.GeneratedHash
	}

	return Ok(payload)
}

func (s *Service) contextReset() *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}
	ctx, err := s.Context.Reset()
	if err != nil {
		return resultFromError(err, nil)
	}
	return Ok(contextPayload(ctx))
}

func (s *Service) contextRollback(in ContextInput) *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}
	entry, err := s.History.Rollback(in.Timestamp, s.Config.InstructionsPath, s.Context)
	if err != nil {
		return resultFromError(err, nil)
	}
	return Ok(map[string]any{
		"timestamp":     entry.Timestamp,
		"sectionsCount": entry.SectionsCount,
		"generatedHash": entry.GeneratedHash,
		"context":       contextPayload(entry.Context),
	})
}

func (s *Service) contextListHistory(in ContextInput) *Result {
	entries, err := s.History.List(in.Limit)
	if err != nil {
		return resultFromError(err, nil)
	}
	out := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		out = append(out, map[string]any{
			"timestamp":     e.Timestamp,
			"sectionsCount": e.SectionsCount,
			"generatedHash": e.GeneratedHash,
			"context":       contextPayload(e.Context),
		})
	}
	return Ok(map[string]any{"entries": out})
}

func (s *Service) contextShowDiff(in ContextInput) *Result {
	diff, err := s.History.DiffEntries(in.From, in.To)
	if err != nil {
		return resultFromError(err, nil)
	}
	return Ok(map[string]any{
		"contextChanges":    diff.ContextChanges,
		"sectionsCountDiff": diff.SectionsCountDiff,
		"contentChanged":    diff.ContentChanged,
	})
}

func (s *Service) contextCleanupHistory(in ContextInput) *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}
	removed, err := s.History.Cleanup(in.DaysToKeep)
	if err != nil {
		return resultFromError(err, nil)
	}
	return Ok(map[string]any{"removed": removed})
}
