// Package devcontext persists the single Development Context record that
// the fragment scorer matches against.
package devcontext

import (
	"encoding/json"
	"os"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/filestate"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

// Defaults is the context every Store starts from when its file is absent.
func Defaults() corpus.Context {
	return corpus.Context{
		Phase:    "development",
		Focus:    []string{},
		Priority: corpus.PriorityMedium,
		Mode:     "normal",
	}
}

// Store persists a corpus.Context singleton at Path.
type Store struct {
	Path string
}

// New returns a Store backed by the JSON file at path.
func New(path string) *Store {
	return &Store{Path: path}
}

// Read returns the persisted context, or Defaults() if the file is absent.
func (s *Store) Read() (corpus.Context, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Defaults(), nil
		}
		return corpus.Context{}, mcperr.IOError(err)
	}

	var ctx corpus.Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		return corpus.Context{}, mcperr.IOError(err)
	}
	return ctx, nil
}

func (s *Store) write(ctx corpus.Context) error {
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return mcperr.IOError(err)
	}
	return filestate.WriteUnconditional(s.Path, data)
}

// Update merges the non-nil fields of partial onto the current record and
// persists the result.
func (s *Store) Update(partial PartialContext) (corpus.Context, error) {
	current, err := s.Read()
	if err != nil {
		return corpus.Context{}, err
	}

	if partial.Phase != nil {
		current.Phase = *partial.Phase
	}
	if partial.Focus != nil {
		current.Focus = *partial.Focus
	}
	if partial.Priority != nil {
		current.Priority = *partial.Priority
	}
	if partial.Mode != nil {
		current.Mode = *partial.Mode
	}

	if err := s.write(current); err != nil {
		return corpus.Context{}, err
	}
	return current, nil
}

// Overwrite replaces the persisted record verbatim (used by history
// rollback, which restores a historical snapshot rather than merging).
func (s *Store) Overwrite(ctx corpus.Context) error {
	return s.write(ctx)
}

// Reset restores the default context.
func (s *Store) Reset() (corpus.Context, error) {
	defaults := Defaults()
	if err := s.write(defaults); err != nil {
		return corpus.Context{}, err
	}
	return defaults, nil
}

// PartialContext carries caller-supplied fields for Update; a nil field is
// left untouched.
type PartialContext struct {
	Phase    *string
	Focus    *[]string
	Priority *corpus.Priority
	Mode     *string
}
