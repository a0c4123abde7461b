package mcpserver

import (
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/priorityflags"
)

// PriorityFlagsInput is the priority_flags tool's input.
type PriorityFlagsInput struct {
	Action   string `json:"action"`
	FilePath string `json:"filePath,omitempty"`
	FlagType string `json:"flagType,omitempty"`
	Reason   string `json:"reason,omitempty"`
	Filter   string `json:"filter,omitempty"`
}

// PriorityFlags dispatches one priority_flags call.
func (s *Service) PriorityFlags(in PriorityFlagsInput) *Result {
	rules, err := s.rules()
	if err != nil {
		return resultFromError(err, nil)
	}
	s.Flags.Rules = rules

	switch in.Action {
	case "add":
		return s.flagsAdd(in)
	case "remove":
		return s.flagsRemove(in)
	case "list":
		return s.flagsList(in)
	default:
		return resultFromError(mcperr.NotFound("unknown priority_flags action: "+in.Action), nil)
	}
}

func (s *Service) flagsAdd(in PriorityFlagsInput) *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}

	result, err := s.Flags.Add(in.FilePath, priorityflags.Kind(in.FlagType), in.Reason)
	if err != nil {
		return resultFromError(err, map[string]any{"existingFlags": resultOrNil(result)})
	}

	payload := map[string]any{}
	if result.Warning != "" {
		payload["warning"] = result.Warning
		payload["existingFlags"] = result.ExistingFlags
	}
	return Ok(payload)
}

func resultOrNil(r *priorityflags.AddResult) []string {
	if r == nil {
		return nil
	}
	return r.ExistingFlags
}

func (s *Service) flagsRemove(in PriorityFlagsInput) *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}

	if err := s.Flags.Remove(in.FilePath, priorityflags.Kind(in.FlagType)); err != nil {
		return resultFromError(err, nil)
	}
	return Ok(nil)
}

func (s *Service) flagsList(in PriorityFlagsInput) *Result {
	summaries, err := s.Flags.List(priorityflags.Kind(in.Filter))
	if err != nil {
		return resultFromError(err, nil)
	}

	out := make([]map[string]any, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, map[string]any{
			"kind":      sum.Kind,
			"count":     sum.Count,
			"softLimit": sum.SoftLimit,
			"hardLimit": sum.HardLimit,
			"status":    sum.Status,
			"fragments": sum.Fragments,
		})
	}
	return Ok(map[string]any{"flags": out})
}
