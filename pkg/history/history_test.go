package history

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
)

func writeEntryAt(t *testing.T, dir string, ts time.Time, ctx corpus.Context, hash string, sectionsCount int) Entry {
	t.Helper()
	entry := Entry{
		Timestamp:        ts.UTC().Format("2006-01-02T15-04-05.000Z"),
		Context:          ctx,
		GeneratedHash:    hash,
		SectionsCount:    sectionsCount,
		GeneratedContent: "content-" + hash,
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, entry.filename()), data, 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return entry
}

func TestCleanupRemovesOnlyEntriesStrictlyOlderThanCutoff(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	now := time.Now().UTC()
	old := writeEntryAt(t, dir, now.AddDate(0, 0, -10), corpus.Context{Phase: "old"}, "aaaaaaaa", 1)
	boundary := writeEntryAt(t, dir, now.AddDate(0, 0, -7).Add(-time.Second), corpus.Context{Phase: "boundary"}, "bbbbbbbb", 2)
	recent := writeEntryAt(t, dir, now.AddDate(0, 0, -1), corpus.Context{Phase: "recent"}, "cccccccc", 3)

	removed, err := s.Cleanup(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 entries removed, got %d", removed)
	}

	remaining, err := s.List(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(remaining) != 1 || remaining[0].Timestamp != recent.Timestamp {
		t.Fatalf("expected only the recent entry to survive, got %+v", remaining)
	}

	for _, removedEntry := range []Entry{old, boundary} {
		if _, err := os.Stat(filepath.Join(dir, removedEntry.filename())); err == nil {
			t.Fatalf("expected %s to be deleted", removedEntry.filename())
		}
	}
}

func TestCleanupKeepsEntryExactlyAtCutoff(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	// Pin Cleanup's clock so the entry sits exactly on the cutoff; with the
	// real clock the cutoff is taken later and the entry is always older.
	fixed := time.Now().UTC().Truncate(time.Millisecond)
	prevNow := nowFunc
	nowFunc = func() time.Time { return fixed }
	t.Cleanup(func() { nowFunc = prevNow })

	exact := writeEntryAt(t, dir, fixed.AddDate(0, 0, -7), corpus.Context{Phase: "exact"}, "dddddddd", 1)

	removed, err := s.Cleanup(7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected the cutoff-time entry to survive (strictly older only), got %d removed", removed)
	}

	if _, err := os.Stat(filepath.Join(dir, exact.filename())); err != nil {
		t.Fatalf("expected %s to still exist: %v", exact.filename(), err)
	}
}

func TestDiffEntriesReportsContextSectionsAndContentChanges(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	from := writeEntryAt(t, dir, time.Now().UTC().Add(-time.Minute), corpus.Context{
		Phase: "development", Focus: []string{"auth"}, Priority: corpus.PriorityMedium, Mode: "normal",
	}, "11111111", 4)
	to := writeEntryAt(t, dir, time.Now().UTC(), corpus.Context{
		Phase: "release", Focus: []string{"auth", "perf"}, Priority: corpus.PriorityHigh, Mode: "strict",
	}, "22222222", 6)

	diff, err := s.DiffEntries(from.Timestamp, to.Timestamp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff.SectionsCountDiff != 2 {
		t.Fatalf("expected sectionsCountDiff 2, got %d", diff.SectionsCountDiff)
	}
	if !diff.ContentChanged {
		t.Fatal("expected contentChanged true for differing generatedHash")
	}
	for _, key := range []string{"phase", "focus", "priority", "mode"} {
		if _, ok := diff.ContextChanges[key]; !ok {
			t.Fatalf("expected contextChanges to report %q, got %+v", key, diff.ContextChanges)
		}
	}
}

func TestDiffEntriesReportsNoChangesForIdenticalEntries(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)

	ctx := corpus.Context{Phase: "development", Focus: []string{"auth"}, Priority: corpus.PriorityMedium, Mode: "normal"}
	entry := writeEntryAt(t, dir, time.Now().UTC(), ctx, "33333333", 5)

	diff, err := s.DiffEntries(entry.Timestamp, entry.Timestamp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diff.ContextChanges) != 0 {
		t.Fatalf("expected no context changes, got %+v", diff.ContextChanges)
	}
	if diff.ContentChanged {
		t.Fatal("expected contentChanged false comparing an entry to itself")
	}
	if diff.SectionsCountDiff != 0 {
		t.Fatalf("expected sectionsCountDiff 0, got %d", diff.SectionsCountDiff)
	}
}

func TestDiffEntriesUnknownKeyReturnsHistoryEntryNotFound(t *testing.T) {
	dir := t.TempDir()
	s := New(dir)
	writeEntryAt(t, dir, time.Now().UTC(), corpus.Context{}, "44444444", 1)

	if _, err := s.DiffEntries("missing", "0"); err == nil {
		t.Fatal("expected an error for an unknown from-key")
	}
}
