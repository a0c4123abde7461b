package history

import (
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/devcontext"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/filestate"
)

// Rollback restores the entry identified by key: the Development Context
// singleton is overwritten with the entry's snapshot, and the entry's
// generated content is written unconditionally to instructionsPath. It does
// not itself create a new history entry — rolling back repeatedly must not
// grow the history log.
func (s *Store) Rollback(key string, instructionsPath string, contextStore *devcontext.Store) (*Entry, error) {
	entry, err := s.GetByTimestampOrIndex(key)
	if err != nil {
		return nil, err
	}

	if err := contextStore.Overwrite(entry.Context); err != nil {
		return nil, err
	}

	if err := filestate.WriteUnconditional(instructionsPath, []byte(entry.GeneratedContent)); err != nil {
		return nil, err
	}

	return entry, nil
}
