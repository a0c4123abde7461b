// Package corpus loads the fragment corpus (the pool of Markdown snippets
// the instruction generator selects from) and scores each fragment against
// a development context.
package corpus

// Priority is a fragment's own priority, independent of scoring weight.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// FrontMatter is a fragment file's YAML front-matter block.
type FrontMatter struct {
	Category               string   `yaml:"category"`
	Tags                   []string `yaml:"tags"`
	Priority               Priority `yaml:"priority"`
	Phases                 []string `yaml:"phases"`
	Required               bool     `yaml:"required"`
	CriticalFeedback       bool     `yaml:"criticalFeedback"`
	CriticalFeedbackReason string   `yaml:"criticalFeedbackReason,omitempty"`
	CopilotEssential       bool     `yaml:"copilotEssential"`
	CopilotEssentialReason string   `yaml:"copilotEssentialReason,omitempty"`
}

// Fragment is one parsed corpus file. Path is relative to the corpus root
// and serves as the fragment's identity.
type Fragment struct {
	Path        string
	FrontMatter FrontMatter
	Body        string
}
