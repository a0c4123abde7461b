// Package config loads the service's configuration: where the workspace
// root, corpus directory, state directory, and instructions output file
// live, plus the lock timeout and the restricted-mode flag.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every filesystem path the core packages need, resolved once
// at startup. Paths are always absolute.
type Config struct {
	// WorkspaceRoot is the project root that .github/ and
	// .copilot-instructions/ are relative to.
	WorkspaceRoot string `yaml:"workspace_root"`

	// InstructionsPath is the generated/edited output file
	// (.github/copilot-instructions.md).
	InstructionsPath string `yaml:"instructions_path"`

	// CorpusDir is the fragment corpus root (.copilot-instructions/).
	CorpusDir string `yaml:"corpus_dir"`

	// StateDir is where context.json, scoring-rules.json, history/, and
	// .lock live (.copilot-state/).
	StateDir string `yaml:"state_dir"`

	// LockTimeout is the default withLock timeout.
	LockTimeout time.Duration `yaml:"lock_timeout"`

	// Restricted, when true, makes every writer (context + section store)
	// refuse with Restricted until an external onboarding flow clears it.
	Restricted bool `yaml:"restricted"`
}

const (
	defaultLockTimeout = 5 * time.Second
)

// DefaultConfig returns a Config rooted at workspace, with every path
// derived from the standard layout under .github/ and .copilot-state/.
func DefaultConfig(workspace string) *Config {
	return &Config{
		WorkspaceRoot:    workspace,
		InstructionsPath: filepath.Join(workspace, ".github", "copilot-instructions.md"),
		CorpusDir:        filepath.Join(workspace, ".copilot-instructions"),
		StateDir:         filepath.Join(workspace, ".copilot-state"),
		LockTimeout:      defaultLockTimeout,
	}
}

// HistoryDir returns the history snapshot directory.
func (c *Config) HistoryDir() string {
	return filepath.Join(c.StateDir, "history")
}

// ContextPath returns the Development Context singleton path.
func (c *Config) ContextPath() string {
	return filepath.Join(c.StateDir, "context.json")
}

// ScoringRulesPath returns the scoring-rules configuration path.
func (c *Config) ScoringRulesPath() string {
	return filepath.Join(c.StateDir, "scoring-rules.json")
}

// LockPath returns the process-lock file path.
func (c *Config) LockPath() string {
	return filepath.Join(c.StateDir, ".lock")
}

// Load reads configuration overrides from path (if it exists) layered onto
// DefaultConfig(workspace); path is typically
// ~/.copilot-instructions/config.yaml or $XDG_CONFIG_HOME equivalent.
func Load(path, workspace string) (*Config, error) {
	cfg := DefaultConfig(workspace)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	var overrides struct {
		WorkspaceRoot    string        `yaml:"workspace_root"`
		InstructionsPath string        `yaml:"instructions_path"`
		CorpusDir        string        `yaml:"corpus_dir"`
		StateDir         string        `yaml:"state_dir"`
		LockTimeout      time.Duration `yaml:"lock_timeout"`
		Restricted       bool          `yaml:"restricted"`
	}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, err
	}

	if overrides.WorkspaceRoot != "" {
		cfg.WorkspaceRoot = overrides.WorkspaceRoot
	}
	if overrides.InstructionsPath != "" {
		cfg.InstructionsPath = overrides.InstructionsPath
	}
	if overrides.CorpusDir != "" {
		cfg.CorpusDir = overrides.CorpusDir
	}
	if overrides.StateDir != "" {
		cfg.StateDir = overrides.StateDir
	}
	if overrides.LockTimeout > 0 {
		cfg.LockTimeout = overrides.LockTimeout
	}
	cfg.Restricted = overrides.Restricted

	return cfg, nil
}

// DefaultConfigPath resolves ~/.copilot-instructions/config.yaml, honoring
// XDG_CONFIG_HOME like jra3-linear-fuse's config loader.
func DefaultConfigPath() string {
	return DefaultConfigPathWithEnv(os.Getenv)
}

// DefaultConfigPathWithEnv allows tests to inject an isolated environment.
func DefaultConfigPathWithEnv(getenv func(string) string) string {
	if xdg := getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "copilot-instructions", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".copilot-instructions", "config.yaml")
}
