package sections

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return New(filepath.Join(dir, "copilot-instructions.md"), filepath.Join(dir, ".lock"), 500*time.Millisecond)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("setup write: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(b)
}

// S1: plain update, no external change in between.
func TestUpdateSectionPlainUpdate(t *testing.T) {
	st := newStore(t)
	writeFile(t, st.Path, "# Title\n\n## A\n\none\n")

	res, err := st.UpdateSection("A", "two", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.AutoMerged {
		t.Fatalf("expected success without auto-merge, got %+v", res)
	}

	want := "# Title\n\n## A\n\ntwo\n"
	if got := readFile(t, st.Path); got != want {
		t.Fatalf("file mismatch:\n got: %q\nwant: %q", got, want)
	}
}

// S2: a disjoint section changed externally between read and write — the
// update auto-merges instead of conflicting.
func TestUpdateSectionAutoMergesDisjointChange(t *testing.T) {
	st := newStore(t)
	original := "# T\n\n## A\n\nx\n\n## B\n\ny\n"
	writeFile(t, st.Path, original)

	snapshot, err := ParseDocument(original)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	// Simulate an external editor changing section B after the snapshot was taken.
	writeFile(t, st.Path, "# T\n\n## A\n\nx\n\n## B\n\ny2\n")

	res, err := st.UpdateSection("A", "x2", snapshot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || !res.AutoMerged {
		t.Fatalf("expected auto-merged success, got %+v", res)
	}

	want := "# T\n\n## A\n\nx2\n\n## B\n\ny2\n"
	if got := readFile(t, st.Path); got != want {
		t.Fatalf("file mismatch:\n got: %q\nwant: %q", got, want)
	}
}

// S3: the target section itself changed externally — a conflict block is
// injected rather than silently overwritten.
func TestUpdateSectionInjectsConflictOnSameSectionChange(t *testing.T) {
	st := newStore(t)
	original := "# T\n\n## A\n\nx\n"
	writeFile(t, st.Path, original)

	snapshot, err := ParseDocument(original)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	writeFile(t, st.Path, "# T\n\n## A\n\nx_external\n")

	res, err := st.UpdateSection("A", "x_local", snapshot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Success {
		t.Fatalf("expected success=false when conflict markers are injected")
	}
	if res.Conflict == "" {
		t.Fatalf("expected a conflict description")
	}

	got := readFile(t, st.Path)
	for _, want := range []string{"<<<<<<< HEAD", "x_external", "=======", "x_local", ">>>>>>> MCP Update (local)"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected file to contain %q, got:\n%s", want, got)
		}
	}

	conflicts, err := st.DetectConflicts()
	if err != nil {
		t.Fatalf("DetectConflicts: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].Heading != "A" {
		t.Fatalf("expected exactly one conflict in section A, got %+v", conflicts)
	}
}

// S4: resolving a conflict with an explicit manual body clears the markers
// and leaves the file byte-exact.
func TestResolveConflictUseManual(t *testing.T) {
	st := newStore(t)
	original := "# T\n\n## A\n\nx\n"
	writeFile(t, st.Path, original)

	snapshot, err := ParseDocument(original)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	writeFile(t, st.Path, "# T\n\n## A\n\nx_external\n")

	if _, err := st.UpdateSection("A", "x_local", snapshot); err != nil {
		t.Fatalf("unexpected error injecting conflict: %v", err)
	}

	if err := st.ResolveConflict("A", "use-manual", "x_merged"); err != nil {
		t.Fatalf("unexpected error resolving conflict: %v", err)
	}

	want := "# T\n\n## A\n\nx_merged\n"
	if got := readFile(t, st.Path); got != want {
		t.Fatalf("file mismatch:\n got: %q\nwant: %q", got, want)
	}

	conflicts, err := st.DetectConflicts()
	if err != nil {
		t.Fatalf("DetectConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no remaining conflicts, got %+v", conflicts)
	}
}

func TestResolveConflictUseExternalAndLocal(t *testing.T) {
	st := newStore(t)
	original := "# T\n\n## A\n\nx\n"
	writeFile(t, st.Path, original)
	snapshot, _ := ParseDocument(original)
	writeFile(t, st.Path, "# T\n\n## A\n\nx_external\n")
	if _, err := st.UpdateSection("A", "x_local", snapshot); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := st.ResolveConflict("A", "use-external", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := "# T\n\n## A\n\nx_external\n", readFile(t, st.Path); got != want {
		t.Fatalf("mismatch:\n got: %q\nwant: %q", got, want)
	}

	// A fresh conflict on the same section, resolved with use-local, keeps
	// the local body and leaves no markers behind.
	snapshot, _ = ParseDocument(readFile(t, st.Path))
	writeFile(t, st.Path, "# T\n\n## A\n\nx_external2\n")
	if _, err := st.UpdateSection("A", "x_local", snapshot); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := st.ResolveConflict("A", "use-local", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want, got := "# T\n\n## A\n\nx_local\n", readFile(t, st.Path); got != want {
		t.Fatalf("mismatch:\n got: %q\nwant: %q", got, want)
	}
	conflicts, err := st.DetectConflicts()
	if err != nil {
		t.Fatalf("DetectConflicts: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("expected no remaining conflicts, got %+v", conflicts)
	}
}

func TestResolveConflictRequiresManualBodyForManualStrategy(t *testing.T) {
	st := newStore(t)
	original := "# T\n\n## A\n\nx\n"
	writeFile(t, st.Path, original)
	snapshot, _ := ParseDocument(original)
	writeFile(t, st.Path, "# T\n\n## A\n\nx_external\n")
	if _, err := st.UpdateSection("A", "x_local", snapshot); err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := st.ResolveConflict("A", "use-manual", ""); err == nil {
		t.Fatalf("expected error when manual body is empty")
	}
}

// Updating a heading that does not exist yet appends a new section at EOF.
func TestUpdateSectionOnMissingHeadingAppends(t *testing.T) {
	st := newStore(t)
	writeFile(t, st.Path, "# Title\n\n## A\n\none\n")

	res, err := st.UpdateSection("B", "new content", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}

	want := "# Title\n\n## A\n\none\n\n## B\n\nnew content\n"
	if got := readFile(t, st.Path); got != want {
		t.Fatalf("file mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestInsertSectionRejectsDuplicateHeading(t *testing.T) {
	st := newStore(t)
	writeFile(t, st.Path, "# Title\n\n## A\n\none\n")

	err := st.InsertSection("A", "dup", PositionLast, "")
	if err == nil {
		t.Fatalf("expected DuplicateHeading error")
	}
}

func TestInsertSectionWithUnknownAnchorLeavesFileUnchanged(t *testing.T) {
	st := newStore(t)
	original := "# Title\n\n## A\n\none\n"
	writeFile(t, st.Path, original)

	err := st.InsertSection("B", "two", PositionBefore, "does-not-exist")
	if err == nil {
		t.Fatalf("expected AnchorNotFound error")
	}
	if got := readFile(t, st.Path); got != original {
		t.Fatalf("expected file unchanged on anchor failure, got %q", got)
	}
}

func TestInsertSectionFirstAndAfter(t *testing.T) {
	st := newStore(t)
	writeFile(t, st.Path, "# Title\n\n## A\n\none\n")

	if err := st.InsertSection("Z", "zero", PositionFirst, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "# Title\n\n## Z\n\nzero\n\n## A\n\none\n"
	if got := readFile(t, st.Path); got != want {
		t.Fatalf("mismatch after first-insert:\n got: %q\nwant: %q", got, want)
	}

	if err := st.InsertSection("M", "middle", PositionAfter, "Z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want = "# Title\n\n## Z\n\nzero\n\n## M\n\nmiddle\n\n## A\n\none\n"
	if got := readFile(t, st.Path); got != want {
		t.Fatalf("mismatch after after-insert:\n got: %q\nwant: %q", got, want)
	}
}

func TestDeleteSectionRemovesHeadingAndBody(t *testing.T) {
	st := newStore(t)
	writeFile(t, st.Path, "# Title\n\n## A\n\none\n\n## B\n\ntwo\n")

	if err := st.DeleteSection("A"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := readFile(t, st.Path)
	if strings.Contains(got, "## A") {
		t.Fatalf("expected section A removed, got %q", got)
	}
	if !strings.Contains(got, "## B") {
		t.Fatalf("expected section B to survive, got %q", got)
	}
}

func TestDeleteSectionMissingHeadingReturnsNotFound(t *testing.T) {
	st := newStore(t)
	writeFile(t, st.Path, "# Title\n\n## A\n\none\n")

	if err := st.DeleteSection("nope"); err == nil {
		t.Fatalf("expected NotFound error")
	}
}

func TestDeleteSectionMissingFileReturnsNotFound(t *testing.T) {
	st := newStore(t)

	if err := st.DeleteSection("A"); err == nil {
		t.Fatalf("expected NotFound error for missing file")
	}
}

func TestReadSectionsOnMissingFileReturnsEmpty(t *testing.T) {
	st := newStore(t)

	sections, err := st.ReadSections()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sections) != 0 {
		t.Fatalf("expected no sections, got %+v", sections)
	}
}
