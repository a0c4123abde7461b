package internal

import (
	"os"
	"runtime"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/config"
)

const Logo = "📋"

var (
	version   = "dev"
	gitCommit string
	buildTime string
	goVersion string
)

// LoadConfig resolves the workspace config, layering the user config file
// (if any) onto the default layout rooted at the current directory.
func LoadConfig() (*config.Config, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Load(config.DefaultConfigPath(), workspace)
}

// FormatVersion returns the version string with optional git commit.
func FormatVersion() string {
	v := version
	if gitCommit != "" {
		v += " (git: " + gitCommit + ")"
	}
	return v
}

// FormatBuildInfo returns build time and go version info.
func FormatBuildInfo() (string, string) {
	build := buildTime
	goVer := goVersion
	if goVer == "" {
		goVer = runtime.Version()
	}
	return build, goVer
}

// GetVersion returns the version string.
func GetVersion() string {
	return version
}
