package filestate

import (
	"os/exec"
	"strings"
	"sync"
)

// vcsInfo reports whether dir is inside a VCS-managed tree and, if so, the
// current commit and a short status summary. The git executable is probed
// once per process (sync.Once) and the result cached, avoiding a repeated
// exec.LookPath on every call.
var (
	vcsOnce      sync.Once
	gitAvailable bool
)

func hasGit() bool {
	vcsOnce.Do(func() {
		_, err := exec.LookPath("git")
		gitAvailable = err == nil
	})
	return gitAvailable
}

// vcsInfo returns (managed, commit, status, ok). ok is false when no VCS
// executable is available or dir is not inside a repository — callers treat
// this as a signal to omit VCS metadata rather than fail the read.
func vcsInfo(dir string) (managed bool, commit string, status string, ok bool) {
	if !hasGit() {
		return false, "", "", false
	}

	if err := runGit(dir, "rev-parse", "--is-inside-work-tree"); err != nil {
		return false, "", "", false
	}

	commitOut, err := runGitOutput(dir, "rev-parse", "HEAD")
	if err != nil {
		// A repository with no commits yet is still VCS-managed.
		return true, "", "", true
	}
	commit = strings.TrimSpace(commitOut)

	statusOut, err := runGitOutput(dir, "status", "--porcelain")
	if err == nil {
		status = "clean"
		if strings.TrimSpace(statusOut) != "" {
			status = "dirty"
		}
	}

	return true, commit, status, true
}

func runGit(dir string, args ...string) error {
	_, err := runGitOutput(dir, args...)
	return err
}

func runGitOutput(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	return string(out), err
}
