// Package priorityflags manages the two priority flags a fragment's
// front-matter can carry — criticalFeedback and copilotEssential — subject
// to soft/hard caps on how many fragments may hold a given flag at once.
package priorityflags

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/corpus"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

// Kind is one of the two flags a fragment can carry.
type Kind string

const (
	CriticalFeedback Kind = "criticalFeedback"
	CopilotEssential Kind = "copilotEssential"
)

var reasonKey = map[Kind]string{
	CriticalFeedback: "criticalFeedbackReason",
	CopilotEssential: "copilotEssentialReason",
}

// Status summarizes a kind's current standing against its caps.
type Status string

const (
	StatusOK      Status = "ok"
	StatusWarning Status = "warning"
	StatusError   Status = "error"
)

var frontmatterRe = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?`)

// Registry operates on fragment files rooted at Root.
type Registry struct {
	Root  string
	Rules corpus.ScoringRules
}

// New returns a Registry rooted at root, enforcing the caps in rules.
func New(root string, rules corpus.ScoringRules) *Registry {
	return &Registry{Root: root, Rules: rules}
}

func (r *Registry) limits(kind Kind) corpus.FlagLimits {
	if kind == CriticalFeedback {
		return r.Rules.PriorityFlags.CriticalFeedback
	}
	return r.Rules.PriorityFlags.CopilotEssential
}

// holders returns the relative paths of every fragment currently carrying
// kind, path-sorted.
func (r *Registry) holders(kind Kind) ([]string, error) {
	fragments, err := scanAll(r.Root)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range fragments {
		if hasFlag(f.FrontMatter, kind) {
			paths = append(paths, f.Path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func hasFlag(fm corpus.FrontMatter, kind Kind) bool {
	if kind == CriticalFeedback {
		return fm.CriticalFeedback
	}
	return fm.CopilotEssential
}

// AddResult is returned by Add.
type AddResult struct {
	Applied       bool
	Warning       string
	ExistingFlags []string
}

// Add sets kind on the fragment at fragmentPath, refusing (HardLimitReached)
// once the hard cap is already met and returning the existing holder list so
// the caller can choose one to remove. Between the soft and hard cap the add
// still applies, with a warning attached.
func (r *Registry) Add(fragmentPath string, kind Kind, reason string) (*AddResult, error) {
	existing, err := r.holders(kind)
	if err != nil {
		return nil, err
	}

	limits := r.limits(kind)
	count := len(existing)
	for _, p := range existing {
		if p == fragmentPath {
			count-- // already flagged; re-adding doesn't grow the count
			break
		}
	}

	if count >= limits.HardLimit {
		return &AddResult{Applied: false, ExistingFlags: existing}, mcperr.HardLimitReached(string(kind))
	}

	if err := rewriteFrontMatter(filepath.Join(r.Root, filepath.FromSlash(fragmentPath)), func(node *yaml.Node) error {
		setBoolField(node, string(kind), true)
		if reason != "" {
			setStringField(node, reasonKey[kind], reason)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	result := &AddResult{Applied: true}
	if count >= limits.SoftLimit {
		result.Warning = fmt.Sprintf("%s is at %d/%d fragments (soft limit); consider reviewing existing holders", kind, count+1, limits.HardLimit)
		result.ExistingFlags = existing
	}
	return result, nil
}

// Remove clears kind on the fragment at fragmentPath.
func (r *Registry) Remove(fragmentPath string, kind Kind) error {
	return rewriteFrontMatter(filepath.Join(r.Root, filepath.FromSlash(fragmentPath)), func(node *yaml.Node) error {
		setBoolField(node, string(kind), false)
		deleteField(node, reasonKey[kind])
		return nil
	})
}

// KindSummary reports a kind's holders and standing against its caps.
type KindSummary struct {
	Kind      Kind
	Count     int
	SoftLimit int
	HardLimit int
	Status    Status
	Fragments []string
}

// List reports both kinds' holders and cap standing. filter, if non-empty,
// restricts the report to a single kind.
func (r *Registry) List(filter Kind) ([]KindSummary, error) {
	kinds := []Kind{CriticalFeedback, CopilotEssential}
	if filter != "" {
		kinds = []Kind{filter}
	}

	var out []KindSummary
	for _, kind := range kinds {
		holders, err := r.holders(kind)
		if err != nil {
			return nil, err
		}
		limits := r.limits(kind)

		status := StatusOK
		switch {
		case len(holders) >= limits.HardLimit:
			status = StatusError
		case len(holders) >= limits.SoftLimit:
			status = StatusWarning
		}

		out = append(out, KindSummary{
			Kind:      kind,
			Count:     len(holders),
			SoftLimit: limits.SoftLimit,
			HardLimit: limits.HardLimit,
			Status:    status,
			Fragments: holders,
		})
	}
	return out, nil
}

// scanAll loads every fragment under root via the corpus package's parser.
// A zero-value Corpus has no watcher, so this always rescans the current
// on-disk state rather than serving a stale cache — flag mutation must see
// whatever the last write actually produced.
func scanAll(root string) ([]corpus.Fragment, error) {
	c := &corpus.Corpus{Root: root}
	return c.Load()
}

// rewriteFrontMatter decodes a fragment's front-matter as a yaml.Node
// document, lets mutate adjust it in place, and re-encodes it — preserving
// key order, comments, and any keys this package doesn't know about. The
// body after the front-matter block is never touched.
func rewriteFrontMatter(path string, mutate func(*yaml.Node) error) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return mcperr.NotFound("fragment not found: " + path)
		}
		return mcperr.IOError(err)
	}

	content := string(raw)
	loc := frontmatterRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return mcperr.NotFound("fragment has no front matter: " + path)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content[loc[2]:loc[3]]), &doc); err != nil {
		return mcperr.IOError(err)
	}
	if len(doc.Content) == 0 {
		doc.Kind = yaml.DocumentNode
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}
	}
	mapping := doc.Content[0]

	if err := mutate(mapping); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(mapping); err != nil {
		return mcperr.IOError(err)
	}
	enc.Close()

	body := content[loc[1]:]
	newContent := "---\n" + buf.String() + "---\n" + body

	if err := os.WriteFile(path, []byte(newContent), 0o644); err != nil {
		return mcperr.IOError(err)
	}
	return nil
}

func findField(mapping *yaml.Node, key string) (*yaml.Node, *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i], mapping.Content[i+1]
		}
	}
	return nil, nil
}

func setBoolField(mapping *yaml.Node, key string, value bool) {
	if _, valueNode := findField(mapping, key); valueNode != nil {
		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = "!!bool"
		valueNode.Value = boolString(value)
		return
	}
	appendField(mapping, key, boolString(value), "!!bool")
}

func setStringField(mapping *yaml.Node, key, value string) {
	if _, valueNode := findField(mapping, key); valueNode != nil {
		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = "!!str"
		valueNode.Value = value
		return
	}
	appendField(mapping, key, value, "!!str")
}

func deleteField(mapping *yaml.Node, key string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content = append(mapping.Content[:i], mapping.Content[i+2:]...)
			return
		}
	}
}

func appendField(mapping *yaml.Node, key, value, tag string) {
	keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	valueNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
	mapping.Content = append(mapping.Content, keyNode, valueNode)
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
