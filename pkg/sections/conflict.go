package sections

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

const (
	markerHeadPrefix = "<<<<<<< HEAD"
	markerSeparator  = "======="
	markerLocalTail  = ">>>>>>> MCP Update (local)"
)

// conflictBlockRe matches one injected conflict block. The "(external
// change: ...)" suffix on the HEAD line is optional in the match so that
// markers written without a timestamp are still detected.
var conflictBlockRe = regexp.MustCompile(
	`(?s)<<<<<<< HEAD(?: \(external change: ([^)]*)\))?\n(.*?)\n=======\n(.*?)\n>>>>>>> MCP Update \(local\)\n?`,
)

// ConflictInfo describes one detected conflict block.
type ConflictInfo struct {
	Heading      string
	ExternalTime string
	ExternalBody string
	LocalBody    string
}

// injectConflictMarker builds the literal conflict-marker text embedding
// externalBody and localBody, unframed by surrounding blank lines — the
// caller wraps the result into the section body shape.
func injectConflictMarker(externalBody, localBody string, at time.Time) string {
	return fmt.Sprintf("%s (external change: %s)\n%s\n%s\n%s\n%s",
		markerHeadPrefix, at.UTC().Format(time.RFC3339Nano), externalBody, markerSeparator, localBody, markerLocalTail)
}

// DetectConflicts scans the instructions file content for conflict marker
// blocks and returns one ConflictInfo per block, tagged with its enclosing
// section heading.
func DetectConflicts(content string) ([]ConflictInfo, error) {
	doc, err := ParseDocument(content)
	if err != nil {
		return nil, err
	}

	var out []ConflictInfo
	for _, s := range doc.Sections {
		for _, m := range conflictBlockRe.FindAllStringSubmatch(s.Body, -1) {
			out = append(out, ConflictInfo{
				Heading:      s.Heading,
				ExternalTime: m[1],
				ExternalBody: m[2],
				LocalBody:    m[3],
			})
		}
	}
	return out, nil
}

// ResolveConflict replaces every conflict marker block within heading's
// section according to strategy ("use-external", "use-local", or
// "use-manual"), returning the updated file content.
func ResolveConflict(content, heading, strategy, manualBody string) (string, error) {
	doc, err := ParseDocument(content)
	if err != nil {
		return "", err
	}

	idx := doc.Find(heading)
	if idx == -1 {
		return "", mcperr.NotFound("section not found: " + heading)
	}

	body := doc.Sections[idx].Body
	if !conflictBlockRe.MatchString(body) {
		return "", mcperr.NotFound("no conflict markers found in section " + heading)
	}

	if strategy == "use-manual" && manualBody == "" {
		return "", mcperr.NotFound("manualContent is required for use-manual resolution")
	}

	resolved := conflictBlockRe.ReplaceAllStringFunc(body, func(block string) string {
		m := conflictBlockRe.FindStringSubmatch(block)
		external, local := m[2], m[3]
		var chosen string
		switch strategy {
		case "use-external":
			chosen = external
		case "use-local":
			chosen = local
		case "use-manual":
			chosen = manualBody
		default:
			return block
		}
		return strings.Trim(chosen, "\n") + "\n"
	})

	doc.Sections[idx].Body = resolved
	doc.Sections[idx].Hash = hashOf(resolved)

	return doc.Render(), nil
}
