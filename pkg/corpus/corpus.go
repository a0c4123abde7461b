package corpus

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/logger"
)

var errNoFrontMatter = errors.New("no front-matter block found")

// reservedDirs holds convention directories under the corpus root that are
// never scanned as scoreable fragments: _templates/ holds template material
// (the generator does not read it) and tools/ documents MCP tool usage;
// neither contributes instructions content.
var reservedDirs = map[string]bool{
	"_templates": true,
	"tools":      true,
}

var frontmatterRe = regexp.MustCompile(`(?s)^---\r?\n(.*?)\r?\n---\r?\n?`)

// Corpus loads and caches the fragment tree rooted at Root, invalidating
// the cache on filesystem change when a watcher is available.
type Corpus struct {
	Root string

	mu     sync.RWMutex
	cached []Fragment
	valid  bool

	// noCache is set by New when no watcher could be established; Load then
	// rescans on every call instead of keeping a listing nothing invalidates.
	noCache bool

	watcher *watcher
}

// New returns a Corpus rooted at root and starts watching it for changes.
// A watcher that cannot be established (missing directory, inotify
// exhaustion, ...) is not an error: Load falls back to scanning on demand.
func New(root string) *Corpus {
	c := &Corpus{Root: root}
	c.watcher = newWatcher(root, c.invalidate)
	c.noCache = c.watcher == nil
	return c
}

func (c *Corpus) invalidate() {
	c.mu.Lock()
	c.valid = false
	c.mu.Unlock()
}

// Close stops the background watcher, if one is running.
func (c *Corpus) Close() {
	c.watcher.close()
}

// Load returns every fragment under Root, serving the cached listing when
// it is still known valid.
func (c *Corpus) Load() ([]Fragment, error) {
	c.mu.RLock()
	if c.valid {
		cached := c.cached
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	fragments, err := scanDir(c.Root)
	if err != nil {
		return nil, err
	}
	if c.noCache {
		return fragments, nil
	}

	c.mu.Lock()
	c.cached = fragments
	c.valid = true
	c.mu.Unlock()
	return fragments, nil
}

func scanDir(root string) ([]Fragment, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return []Fragment{}, nil
		}
		return nil, err
	}

	var out []Fragment
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			rel, _ := filepath.Rel(root, path)
			if top := strings.SplitN(rel, string(filepath.Separator), 2)[0]; reservedDirs[top] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".md" {
			return nil
		}

		rel, _ := filepath.Rel(root, path)
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.WarnCF("corpus", "failed to read fragment", map[string]any{
				"path": rel, "error": err.Error(),
			})
			return nil
		}

		frag, perr := parseFragment(rel, raw)
		if perr != nil {
			logger.WarnCF("corpus", "skipping fragment with unparsable front matter", map[string]any{
				"path": rel, "error": perr.Error(),
			})
			return nil
		}
		out = append(out, *frag)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// parseFragment requires every fragment to carry a YAML front-matter block
// ("Each file has YAML front-matter followed by Markdown"). A file with no
// front-matter delimiters at all is treated the same as one whose delimited
// block fails to parse as YAML: both are not a valid fragment, and the
// caller logs and skips it rather than including it with a zero-value
// FrontMatter.
func parseFragment(relPath string, raw []byte) (*Fragment, error) {
	content := string(raw)

	loc := frontmatterRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return nil, errNoFrontMatter
	}

	var fm FrontMatter
	if err := yaml.Unmarshal([]byte(content[loc[2]:loc[3]]), &fm); err != nil {
		return nil, err
	}

	return &Fragment{
		Path:        filepath.ToSlash(relPath),
		FrontMatter: fm,
		Body:        content[loc[1]:],
	}, nil
}
