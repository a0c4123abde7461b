package corpus

import (
	"path"
	"regexp"
	"sort"
	"strings"
)

// Context is the development context the scorer matches fragments against.
type Context struct {
	Phase    string
	Focus    []string
	Priority Priority
	Mode     string
}

// FlagLimits are the soft/hard caps on how many fragments may carry a given
// priority flag at once.
type FlagLimits struct {
	SoftLimit int `yaml:"softLimit"`
	HardLimit int `yaml:"hardLimit"`
}

// ScoringRules is the externally configured point schedule and selection
// limits the scorer and generator apply.
type ScoringRules struct {
	TodoKeywordMatch int `yaml:"todoKeywordMatch"`
	TagMatch         int `yaml:"tagMatch"`
	PhaseMatch       int `yaml:"phaseMatch"`
	FilePathMatch    int `yaml:"filePathMatch"`
	PriorityHigh     int `yaml:"priorityHigh"`
	PriorityMedium   int `yaml:"priorityMedium"`
	Required         int `yaml:"required"`
	CriticalFeedback int `yaml:"criticalFeedback"`
	CopilotEssential int `yaml:"copilotEssential"`

	MaxSections        int `yaml:"maxSections"`
	MaxItemsPerSection int `yaml:"maxItemsPerSection"`

	PriorityFlags struct {
		CriticalFeedback FlagLimits `yaml:"criticalFeedback"`
		CopilotEssential FlagLimits `yaml:"copilotEssential"`
	} `yaml:"priorityFlags"`
}

// DefaultScoringRules mirrors a reasonable out-of-the-box point schedule,
// used whenever no external rules file is present.
func DefaultScoringRules() ScoringRules {
	rules := ScoringRules{
		TodoKeywordMatch: 5,
		TagMatch:         3,
		PhaseMatch:       4,
		FilePathMatch:    2,
		PriorityHigh:     6,
		PriorityMedium:   3,
		Required:         1000,
		CriticalFeedback: 20,
		CopilotEssential: 15,

		MaxSections:        12,
		MaxItemsPerSection: 20,
	}
	rules.PriorityFlags.CriticalFeedback = FlagLimits{SoftLimit: 5, HardLimit: 8}
	rules.PriorityFlags.CopilotEssential = FlagLimits{SoftLimit: 5, HardLimit: 8}
	return rules
}

var headingRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)

func firstHeading(body string) string {
	m := headingRe.FindStringSubmatch(body)
	if m == nil {
		return ""
	}
	return m[1]
}

func firstParagraph(body string) string {
	for _, para := range strings.Split(strings.TrimSpace(body), "\n\n") {
		trimmed := strings.TrimSpace(para)
		if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
			return trimmed
		}
	}
	return ""
}

// conceptualTags derives the implied tag set a context carries beyond its
// literal focus strings: the focus terms themselves plus the phase name,
// all lowercased.
func conceptualTags(ctx Context) map[string]bool {
	set := map[string]bool{}
	if ctx.Phase != "" {
		set[strings.ToLower(ctx.Phase)] = true
	}
	for _, f := range ctx.Focus {
		set[strings.ToLower(f)] = true
	}
	return set
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Score computes a fragment's relevance to ctx under rules.
func Score(f Fragment, ctx Context, rules ScoringRules) int {
	fm := f.FrontMatter
	score := 0

	if fm.Required {
		score += rules.Required
	}
	if fm.CriticalFeedback {
		score += rules.CriticalFeedback
	}
	if fm.CopilotEssential {
		score += rules.CopilotEssential
	}

	heading := firstHeading(f.Body)
	paragraph := firstParagraph(f.Body)
	for _, focus := range ctx.Focus {
		if focus == "" {
			continue
		}
		matched := false
		for _, tag := range fm.Tags {
			if containsFold(tag, focus) {
				matched = true
				break
			}
		}
		if !matched {
			matched = containsFold(fm.Category, focus) || containsFold(heading, focus) || containsFold(paragraph, focus)
		}
		if matched {
			score += rules.TodoKeywordMatch
		}
	}

	tags := conceptualTags(ctx)
	for _, tag := range fm.Tags {
		if tags[strings.ToLower(tag)] {
			score += rules.TagMatch
		}
	}

	for _, phase := range fm.Phases {
		if strings.EqualFold(phase, ctx.Phase) {
			score += rules.PhaseMatch
			break
		}
	}

	pathTokens := strings.FieldsFunc(f.Path, func(r rune) bool {
		return r == '/' || r == '-' || r == '_' || r == '.'
	})
	for _, focus := range ctx.Focus {
		for _, tok := range pathTokens {
			if strings.EqualFold(tok, focus) {
				score += rules.FilePathMatch
				break
			}
		}
	}

	switch fm.Priority {
	case PriorityHigh:
		score += rules.PriorityHigh
	case PriorityMedium:
		score += rules.PriorityMedium
	}

	return score
}

// ScoredFragment pairs a fragment with its computed relevance score.
type ScoredFragment struct {
	Fragment Fragment
	Score    int
}

// Select partitions fragments into mandatory (required == true) and scored
// optional fragments, and returns mandatory (path-sorted) followed by the
// highest-scoring optional fragments up to rules.MaxSections, dropping any
// optional fragment whose score doesn't exceed zero.
func Select(fragments []Fragment, ctx Context, rules ScoringRules) []ScoredFragment {
	var mandatory, optional []ScoredFragment
	for _, f := range fragments {
		sf := ScoredFragment{Fragment: f, Score: Score(f, ctx, rules)}
		if f.FrontMatter.Required {
			mandatory = append(mandatory, sf)
		} else {
			optional = append(optional, sf)
		}
	}

	sort.Slice(mandatory, func(i, j int) bool {
		return mandatory[i].Fragment.Path < mandatory[j].Fragment.Path
	})
	sort.Slice(optional, func(i, j int) bool {
		if optional[i].Score != optional[j].Score {
			return optional[i].Score > optional[j].Score
		}
		return optional[i].Fragment.Path < optional[j].Fragment.Path
	})

	budget := rules.MaxSections - len(mandatory)
	if budget < 0 {
		budget = 0
	}

	var picked []ScoredFragment
	for _, sf := range optional {
		if len(picked) >= budget || sf.Score <= 0 {
			break
		}
		picked = append(picked, sf)
	}

	return append(mandatory, picked...)
}

// CategoryTitle derives a selected fragment's display title from its first
// H1 heading, falling back to its filename stem.
func CategoryTitle(f Fragment) string {
	if h := firstHeading(f.Body); h != "" {
		return h
	}
	base := path.Base(f.Path)
	return strings.TrimSuffix(base, path.Ext(base))
}
