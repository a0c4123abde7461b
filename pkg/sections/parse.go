// Package sections implements the Markdown section store and its conflict
// resolver. Both operate on the instructions file at the text level,
// anchored on `^## ` heading lines, never through a Markdown AST —
// round-tripping conflict markers through a pretty-printer would mangle
// the literal marker bytes a reader needs to see.
package sections

import (
	"regexp"
	"strings"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/filestate"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

var headingRe = regexp.MustCompile(`(?m)^## (.*)$`)

// Section is the in-memory view of one `## heading` block.
type Section struct {
	Heading string
	Body    string // everything after the heading line up to (not including) the next heading or EOF
	Hash    string
}

// Document is a parsed instructions file: everything before the first
// `## ` heading (the "preamble", usually the H1 title) plus an ordered list
// of sections.
type Document struct {
	Preamble string
	Sections []Section
}

// ParseDocument splits raw file content into a preamble and ordered
// sections, by locating `^## ` lines with a regex — never via a Markdown
// parser, so any conflict-marker text already present survives untouched.
func ParseDocument(content string) (*Document, error) {
	locs := headingRe.FindAllStringSubmatchIndex(content, -1)

	doc := &Document{}
	if len(locs) == 0 {
		doc.Preamble = content
		return doc, nil
	}

	doc.Preamble = content[:locs[0][0]]

	seen := map[string]bool{}
	for i, loc := range locs {
		headingStart, headingEnd := loc[2], loc[3]
		heading := strings.TrimSpace(content[headingStart:headingEnd])

		if seen[heading] {
			return nil, mcperr.DuplicateHeading(heading)
		}
		seen[heading] = true

		bodyStart := loc[1]
		// Skip the newline right after the heading line, if present.
		if bodyStart < len(content) && content[bodyStart] == '\n' {
			bodyStart++
		}

		bodyEnd := len(content)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}

		body := content[bodyStart:bodyEnd]

		doc.Sections = append(doc.Sections, Section{
			Heading: heading,
			Body:    body,
			Hash:    filestate.Hash([]byte(body)),
		})
	}

	return doc, nil
}

// Render reassembles a Document back into file content, byte-identically
// reproducing ParseDocument's input when no section was changed.
func (d *Document) Render() string {
	var sb strings.Builder
	sb.WriteString(d.Preamble)
	for _, s := range d.Sections {
		sb.WriteString("## ")
		sb.WriteString(s.Heading)
		sb.WriteString("\n")
		sb.WriteString(s.Body)
	}
	return sb.String()
}

// Find returns the index of the section with the given heading, or -1.
func (d *Document) Find(heading string) int {
	for i, s := range d.Sections {
		if s.Heading == heading {
			return i
		}
	}
	return -1
}
