// Package scoring persists the externally configured point schedule and
// selection limits the fragment scorer and generator apply.
package scoring

import (
	"encoding/json"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/filestate"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

// Store persists a corpus.ScoringRules record at Path.
type Store struct {
	Path string
}

// New returns a Store backed by the JSON file at path.
func New(path string) *Store {
	return &Store{Path: path}
}

// Load returns the persisted rules, or corpus.DefaultScoringRules() if the
// file is absent. Called once per generation so an operator's edits to
// scoring-rules.json take effect without a process restart.
func (s *Store) Load() (corpus.ScoringRules, error) {
	content, state, err := filestate.ReadOptional(s.Path, false)
	if err != nil {
		return corpus.ScoringRules{}, err
	}
	if state == nil {
		return corpus.DefaultScoringRules(), nil
	}

	var rules corpus.ScoringRules
	if err := json.Unmarshal(content, &rules); err != nil {
		return corpus.ScoringRules{}, mcperr.IOError(err)
	}
	return rules, nil
}

// Save persists rules, creating the state directory on demand.
func (s *Store) Save(rules corpus.ScoringRules) error {
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		return mcperr.IOError(err)
	}
	return filestate.WriteUnconditional(s.Path, data)
}
