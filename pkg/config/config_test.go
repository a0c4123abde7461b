package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigPaths(t *testing.T) {
	cfg := DefaultConfig("/work")

	if cfg.InstructionsPath != filepath.Join("/work", ".github", "copilot-instructions.md") {
		t.Fatalf("unexpected instructions path: %s", cfg.InstructionsPath)
	}
	if cfg.CorpusDir != filepath.Join("/work", ".copilot-instructions") {
		t.Fatalf("unexpected corpus dir: %s", cfg.CorpusDir)
	}
	if cfg.LockPath() != filepath.Join("/work", ".copilot-state", ".lock") {
		t.Fatalf("unexpected lock path: %s", cfg.LockPath())
	}
	if cfg.LockTimeout != defaultLockTimeout {
		t.Fatalf("unexpected default lock timeout: %v", cfg.LockTimeout)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), "/work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WorkspaceRoot != "/work" {
		t.Fatalf("expected defaults preserved, got %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := "state_dir: /custom/state\nlock_timeout: 2s\nrestricted: true\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path, "/work")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.StateDir != "/custom/state" {
		t.Fatalf("expected overridden state dir, got %s", cfg.StateDir)
	}
	if cfg.LockTimeout != 2*time.Second {
		t.Fatalf("expected overridden lock timeout, got %v", cfg.LockTimeout)
	}
	if !cfg.Restricted {
		t.Fatalf("expected restricted=true")
	}
	// Un-overridden fields keep their default derivation from workspace.
	if cfg.CorpusDir != filepath.Join("/work", ".copilot-instructions") {
		t.Fatalf("expected default corpus dir preserved, got %s", cfg.CorpusDir)
	}
}

func TestDefaultConfigPathWithEnv(t *testing.T) {
	got := DefaultConfigPathWithEnv(func(key string) string {
		if key == "XDG_CONFIG_HOME" {
			return "/xdg"
		}
		return ""
	})
	if got != filepath.Join("/xdg", "copilot-instructions", "config.yaml") {
		t.Fatalf("unexpected path: %s", got)
	}
}
