package sections

import (
	"fmt"
	"strings"
	"time"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/filestate"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/lock"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

// Position selects where InsertSection places a new section.
type Position string

const (
	PositionFirst  Position = "first"  // right after the H1 title line
	PositionLast   Position = "last"   // EOF
	PositionBefore Position = "before" // before an anchor heading
	PositionAfter  Position = "after"  // after an anchor heading
)

// Store performs section-level CRUD on the instructions file, guarded by a
// process lock for every writer.
type Store struct {
	Path        string
	LockPath    string
	LockTimeout time.Duration
}

// New returns a Store for the given instructions file and lock file paths.
func New(path, lockPath string, lockTimeout time.Duration) *Store {
	return &Store{Path: path, LockPath: lockPath, LockTimeout: lockTimeout}
}

// renderBody wraps content into the blank-line-framed shape a section body
// takes in the rendered file: a blank line right after the heading, the
// content, and — when another section follows — a blank line before the
// next heading. The last section in the file ends with a single newline.
func renderBody(content string, isLast bool) string {
	trimmed := strings.Trim(content, "\n")
	if isLast {
		return "\n" + trimmed + "\n"
	}
	return "\n" + trimmed + "\n\n"
}

func hashOf(s string) string {
	return filestate.Hash([]byte(s))
}

// fixPredecessorSeparator re-wraps the section immediately before idx (if
// any) as a non-last section. It's a no-op for a predecessor that already
// separates itself from the next heading with a blank line, and corrects
// the one that used to be the last section in the file (single trailing
// newline, no following blank line) when something is inserted after it.
func fixPredecessorSeparator(doc *Document, idx int) {
	if idx <= 0 {
		return
	}
	prev := &doc.Sections[idx-1]
	prev.Body = renderBody(prev.Body, false)
	prev.Hash = hashOf(prev.Body)
}

// fixTrailingSeparator re-wraps the file's last section so it ends in a
// single newline rather than a dangling blank line, restoring the EOF
// convention after the section that used to follow it is removed.
func fixTrailingSeparator(doc *Document) {
	if len(doc.Sections) == 0 {
		return
	}
	last := &doc.Sections[len(doc.Sections)-1]
	last.Body = renderBody(last.Body, true)
	last.Hash = hashOf(last.Body)
}

// ReadSections returns the ordered sections of the instructions file. A
// missing file yields an empty sequence, not an error (first-run behavior).
func (st *Store) ReadSections() ([]Section, error) {
	body, _, err := filestate.ReadOptional(st.Path, false)
	if err != nil {
		return nil, err
	}
	if body == nil {
		return []Section{}, nil
	}

	doc, err := ParseDocument(string(body))
	if err != nil {
		return nil, err
	}
	return doc.Sections, nil
}

// UpdateResult is returned by UpdateSection.
type UpdateResult struct {
	Success    bool
	AutoMerged bool
	Conflict   string
}

// UpdateSection replaces heading's body with newBody. If initialSnapshot is
// provided (the Document read before the caller started editing) and the
// current file content differs from it, sections that changed externally
// are auto-merged in unless the target heading itself is one of them, in
// which case a conflict block is injected instead of overwriting it.
func (st *Store) UpdateSection(heading, newBody string, initialSnapshot *Document) (*UpdateResult, error) {
	result := &UpdateResult{}
	err := lock.WithLock(st.LockPath, st.LockTimeout, func() error {
		body, fs, err := filestate.ReadOptional(st.Path, false)
		if err != nil {
			return err
		}
		current := ""
		expectedHash := ""
		if fs != nil {
			current = string(body)
			expectedHash = fs.Hash
		}

		doc, err := ParseDocument(current)
		if err != nil {
			return err
		}

		changedExternally := diffChangedHeadings(initialSnapshot, doc)
		targetChangedExternally := initialSnapshot != nil && changedExternally[heading]

		idx := doc.Find(heading)

		if targetChangedExternally {
			// Inject a conflict block rather than overwrite the external edit.
			var externalBody string
			if idx != -1 {
				externalBody = doc.Sections[idx].Body
			}
			marker := injectConflictMarker(strings.TrimSuffix(externalBody, "\n"), strings.TrimSuffix(newBody, "\n"), time.Now())

			if idx == -1 {
				doc.Sections = append(doc.Sections, Section{Heading: heading})
				idx = len(doc.Sections) - 1
				fixPredecessorSeparator(doc, idx)
			}
			rendered := renderBody(marker, idx == len(doc.Sections)-1)
			doc.Sections[idx].Body = rendered
			doc.Sections[idx].Hash = hashOf(rendered)

			newContent := doc.Render()
			wr, err := filestate.WriteWithExpected(st.Path, []byte(newContent), expectedHash)
			if err != nil {
				return err
			}
			if !wr.Success {
				return mcperr.Conflict("file changed concurrently while injecting conflict markers")
			}

			result.Success = false
			result.Conflict = fmt.Sprintf("Conflict markers inserted in section %s", heading)
			return nil
		}

		autoMerged := len(changedExternally) > 0

		if idx == -1 {
			doc.Sections = append(doc.Sections, Section{Heading: heading})
			idx = len(doc.Sections) - 1
			fixPredecessorSeparator(doc, idx)
		}
		rendered := renderBody(newBody, idx == len(doc.Sections)-1)
		doc.Sections[idx].Body = rendered
		doc.Sections[idx].Hash = hashOf(rendered)

		newContent := doc.Render()
		wr, err := filestate.WriteWithExpected(st.Path, []byte(newContent), expectedHash)
		if err != nil {
			return err
		}
		if !wr.Success {
			// The file changed again between our read and write, inside the
			// lock window: a genuine race, re-raised as a normal conflict.
			return mcperr.Conflict("file changed concurrently during update")
		}

		result.Success = true
		result.AutoMerged = autoMerged
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// InsertSection adds a new `## heading` section at the given position.
func (st *Store) InsertSection(heading, body string, pos Position, anchor string) error {
	return lock.WithLock(st.LockPath, st.LockTimeout, func() error {
		raw, fs, err := filestate.ReadOptional(st.Path, false)
		if err != nil {
			return err
		}
		current := ""
		expectedHash := ""
		if fs != nil {
			current = string(raw)
			expectedHash = fs.Hash
		}

		doc, err := ParseDocument(current)
		if err != nil {
			return err
		}

		if doc.Find(heading) != -1 {
			return mcperr.DuplicateHeading(heading)
		}

		newSection := Section{Heading: heading}

		switch pos {
		case PositionFirst:
			doc.Sections = append([]Section{newSection}, doc.Sections...)
		case PositionLast, "":
			doc.Sections = append(doc.Sections, newSection)
		case PositionBefore, PositionAfter:
			anchorIdx := doc.Find(anchor)
			if anchorIdx == -1 {
				return mcperr.AnchorNotFound(anchor)
			}
			insertAt := anchorIdx
			if pos == PositionAfter {
				insertAt = anchorIdx + 1
			}
			doc.Sections = append(doc.Sections[:insertAt:insertAt],
				append([]Section{newSection}, doc.Sections[insertAt:]...)...)
		default:
			return mcperr.IOError(fmt.Errorf("unknown position %q", pos))
		}

		insertedAt := doc.Find(heading)
		fixPredecessorSeparator(doc, insertedAt)
		rendered := renderBody(body, insertedAt == len(doc.Sections)-1)
		doc.Sections[insertedAt].Body = rendered
		doc.Sections[insertedAt].Hash = hashOf(rendered)

		newContent := doc.Render()
		wr, err := filestate.WriteWithExpected(st.Path, []byte(newContent), expectedHash)
		if err != nil {
			return err
		}
		if !wr.Success {
			return mcperr.Conflict("file changed concurrently during insert")
		}
		return nil
	})
}

// DeleteSection removes the `## heading` section entirely.
func (st *Store) DeleteSection(heading string) error {
	return lock.WithLock(st.LockPath, st.LockTimeout, func() error {
		raw, fs, err := filestate.ReadOptional(st.Path, false)
		if err != nil {
			return err
		}
		if raw == nil {
			return mcperr.NotFound("section not found: " + heading)
		}

		doc, err := ParseDocument(string(raw))
		if err != nil {
			return err
		}

		idx := doc.Find(heading)
		if idx == -1 {
			return mcperr.NotFound("section not found: " + heading)
		}

		wasLast := idx == len(doc.Sections)-1
		doc.Sections = append(doc.Sections[:idx], doc.Sections[idx+1:]...)
		if !wasLast {
			fixTrailingSeparator(doc)
		}

		newContent := doc.Render()
		wr, err := filestate.WriteWithExpected(st.Path, []byte(newContent), fs.Hash)
		if err != nil {
			return err
		}
		if !wr.Success {
			return mcperr.Conflict("file changed concurrently during delete")
		}
		return nil
	})
}

// DetectConflicts scans the live file for conflict marker blocks.
func (st *Store) DetectConflicts() ([]ConflictInfo, error) {
	raw, _, err := filestate.ReadOptional(st.Path, false)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return DetectConflicts(string(raw))
}

// ResolveConflict resolves every marker block in heading's section.
func (st *Store) ResolveConflict(heading, strategy, manualBody string) error {
	return lock.WithLock(st.LockPath, st.LockTimeout, func() error {
		raw, fs, err := filestate.ReadOptional(st.Path, false)
		if err != nil {
			return err
		}
		if raw == nil {
			return mcperr.NotFound("instructions file not found")
		}

		resolved, err := ResolveConflict(string(raw), heading, strategy, manualBody)
		if err != nil {
			return err
		}

		wr, err := filestate.WriteWithExpected(st.Path, []byte(resolved), fs.Hash)
		if err != nil {
			return err
		}
		if !wr.Success {
			return mcperr.Conflict("file changed concurrently during resolve")
		}
		return nil
	})
}
