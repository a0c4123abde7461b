// Package history implements the append-only generation history: one JSON
// snapshot per successful instruction-generation run, plus rollback.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

// Entry is one immutable history snapshot.
type Entry struct {
	Timestamp        string         `json:"timestamp"`
	Context          corpus.Context `json:"context"`
	GeneratedHash    string         `json:"generatedHash"`
	SectionsCount    int            `json:"sectionsCount"`
	GeneratedContent string         `json:"generatedContent"`
}

// filename returns the entry's canonical on-disk name:
// <ISO-timestamp-with-dashes>-<8-hex-of-hash>.json.
func (e Entry) filename() string {
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(e.Timestamp)
	suffix := e.GeneratedHash
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return fmt.Sprintf("%s-%s.json", ts, suffix)
}

// Store is the history directory.
type Store struct {
	Dir string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{Dir: dir}
}

// Record appends a new history entry for a just-completed generation.
func (s *Store) Record(ctx corpus.Context, hash string, sectionsCount int, generatedContent string) (*Entry, error) {
	entry := Entry{
		Timestamp:        time.Now().UTC().Format("2006-01-02T15-04-05.000Z"),
		Context:          ctx,
		GeneratedHash:    hash,
		SectionsCount:    sectionsCount,
		GeneratedContent: generatedContent,
	}

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return nil, mcperr.IOError(err)
	}

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return nil, mcperr.IOError(err)
	}

	path := filepath.Join(s.Dir, entry.filename())
	if err := writeThenRename(path, data); err != nil {
		return nil, mcperr.IOError(err)
	}
	return &entry, nil
}

func writeThenRename(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".history-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// filenames returns every history filename, sorted newest-first (filenames
// sort lexicographically in timestamp order by construction).
func (s *Store) filenames() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, mcperr.IOError(err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (s *Store) load(name string) (*Entry, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir, name))
	if err != nil {
		return nil, mcperr.IOError(err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, mcperr.IOError(err)
	}
	return &e, nil
}

// List returns up to limit entries, newest first. limit <= 0 means no cap.
func (s *Store) List(limit int) ([]Entry, error) {
	names, err := s.filenames()
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}

	out := make([]Entry, 0, len(names))
	for _, name := range names {
		e, err := s.load(name)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, nil
}

// GetByTimestampOrIndex resolves key as a 0-based index from newest ("0" is
// the most recent entry) if it parses as an integer, otherwise as a literal
// timestamp match.
func (s *Store) GetByTimestampOrIndex(key string) (*Entry, error) {
	names, err := s.filenames()
	if err != nil {
		return nil, err
	}

	if n, convErr := strconv.Atoi(key); convErr == nil {
		if n < 0 || n >= len(names) {
			return nil, mcperr.HistoryEntryNotFound(key)
		}
		return s.load(names[n])
	}

	for _, name := range names {
		e, err := s.load(name)
		if err != nil {
			return nil, err
		}
		if e.Timestamp == key {
			return e, nil
		}
	}
	return nil, mcperr.HistoryEntryNotFound(key)
}

// Diff summarizes what changed between two history entries.
type Diff struct {
	ContextChanges   map[string][2]any `json:"contextChanges"`
	SectionsCountDiff int              `json:"sectionsCountDiff"`
	ContentChanged   bool              `json:"contentChanged"`
}

// DiffEntries compares from and to, both resolved via GetByTimestampOrIndex.
func (s *Store) DiffEntries(fromKey, toKey string) (*Diff, error) {
	from, err := s.GetByTimestampOrIndex(fromKey)
	if err != nil {
		return nil, err
	}
	to, err := s.GetByTimestampOrIndex(toKey)
	if err != nil {
		return nil, err
	}

	changes := map[string][2]any{}
	if from.Context.Phase != to.Context.Phase {
		changes["phase"] = [2]any{from.Context.Phase, to.Context.Phase}
	}
	if strings.Join(from.Context.Focus, ",") != strings.Join(to.Context.Focus, ",") {
		changes["focus"] = [2]any{from.Context.Focus, to.Context.Focus}
	}
	if from.Context.Priority != to.Context.Priority {
		changes["priority"] = [2]any{from.Context.Priority, to.Context.Priority}
	}
	if from.Context.Mode != to.Context.Mode {
		changes["mode"] = [2]any{from.Context.Mode, to.Context.Mode}
	}

	return &Diff{
		ContextChanges:    changes,
		SectionsCountDiff: to.SectionsCount - from.SectionsCount,
		ContentChanged:    from.GeneratedHash != to.GeneratedHash,
	}, nil
}

// nowFunc is the clock Cleanup measures its cutoff against.
var nowFunc = time.Now

// Cleanup deletes entries older than daysToKeep days, returning how many
// were removed.
func (s *Store) Cleanup(daysToKeep int) (int, error) {
	names, err := s.filenames()
	if err != nil {
		return 0, err
	}

	cutoff := nowFunc().UTC().AddDate(0, 0, -daysToKeep)
	removed := 0
	for _, name := range names {
		e, err := s.load(name)
		if err != nil {
			return removed, err
		}
		ts, err := time.Parse("2006-01-02T15-04-05.000Z", e.Timestamp)
		if err != nil {
			continue
		}
		if ts.Before(cutoff) {
			if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !os.IsNotExist(err) {
				return removed, mcperr.IOError(err)
			}
			removed++
		}
	}
	return removed, nil
}
