package mcpserver

import (
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/sections"
)

// SectionStoreInput is the section_store tool's input.
type SectionStoreInput struct {
	Action        string `json:"action"`
	Heading       string `json:"heading,omitempty"`
	Content       string `json:"content,omitempty"`
	Position      string `json:"position,omitempty"`
	Anchor        string `json:"anchor,omitempty"`
	ExpectedHash  string `json:"expectedHash,omitempty"`
	ManualContent string `json:"manualContent,omitempty"`
	Resolution    string `json:"resolution,omitempty"`
}

// SectionStore dispatches one section_store call.
func (s *Service) SectionStore(in SectionStoreInput) *Result {
	switch in.Action {
	case "read":
		return s.sectionsRead()
	case "detect-conflicts":
		return s.sectionsDetectConflicts()
	case "update":
		return s.sectionsUpdate(in)
	case "insert":
		return s.sectionsInsert(in)
	case "delete":
		return s.sectionsDelete(in)
	case "resolve-conflict":
		return s.sectionsResolveConflict(in)
	default:
		return resultFromError(mcperr.NotFound("unknown section_store action: "+in.Action), nil)
	}
}

func (s *Service) sectionsRead() *Result {
	secs, err := s.Sections.ReadSections()
	if err != nil {
		return resultFromError(err, nil)
	}
	out := make([]map[string]any, 0, len(secs))
	for _, sec := range secs {
		out = append(out, map[string]any{
			"heading": sec.Heading,
			"body":    sec.Body,
			"hash":    sec.Hash,
		})
	}
	return Ok(map[string]any{"sections": out})
}

func (s *Service) sectionsDetectConflicts() *Result {
	conflicts, err := s.Sections.DetectConflicts()
	if err != nil {
		return resultFromError(err, nil)
	}
	out := make([]map[string]any, 0, len(conflicts))
	for _, c := range conflicts {
		out = append(out, map[string]any{
			"heading":      c.Heading,
			"externalTime": c.ExternalTime,
			"externalBody": c.ExternalBody,
			"localBody":    c.LocalBody,
		})
	}
	return Ok(map[string]any{"conflicts": out})
}

// buildInitialSnapshot reconstructs the single-heading-aware "initial
// snapshot" UpdateSection needs to detect a concurrent external edit, from
// just the caller's previously observed hash for that one heading. Every
// other heading is carried over at its current hash so it never spuriously
// appears to have "changed externally" — only the target heading's hash is
// compared against expectedHash.
func buildInitialSnapshot(current []sections.Section, heading, expectedHash string) *sections.Document {
	if expectedHash == "" {
		return nil
	}
	snapshot := make([]sections.Section, len(current))
	copy(snapshot, current)
	for i := range snapshot {
		if snapshot[i].Heading == heading {
			snapshot[i].Hash = expectedHash
		}
	}
	return &sections.Document{Sections: snapshot}
}

func (s *Service) sectionsUpdate(in SectionStoreInput) *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}

	current, err := s.Sections.ReadSections()
	if err != nil {
		return resultFromError(err, nil)
	}
	initial := buildInitialSnapshot(current, in.Heading, in.ExpectedHash)

	result, err := s.Sections.UpdateSection(in.Heading, in.Content, initial)
	if err != nil {
		return resultFromError(err, nil)
	}
	return Ok(map[string]any{
		"autoMerged": result.AutoMerged,
		"conflict":   result.Conflict,
	})
}

func (s *Service) sectionsInsert(in SectionStoreInput) *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}

	if err := s.Sections.InsertSection(in.Heading, in.Content, sections.Position(in.Position), in.Anchor); err != nil {
		return resultFromError(err, nil)
	}
	return Ok(nil)
}

func (s *Service) sectionsDelete(in SectionStoreInput) *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}

	if err := s.Sections.DeleteSection(in.Heading); err != nil {
		return resultFromError(err, nil)
	}
	return Ok(nil)
}

func (s *Service) sectionsResolveConflict(in SectionStoreInput) *Result {
	if err := s.writeGuard(); err != nil {
		return resultFromError(err, nil)
	}

	if err := s.Sections.ResolveConflict(in.Heading, in.Resolution, in.ManualContent); err != nil {
		return resultFromError(err, nil)
	}
	return Ok(nil)
}
