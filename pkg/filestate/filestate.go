// Package filestate implements component A: content-addressed file state,
// used as an optimistic-concurrency token by every writer in this service.
package filestate

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

// State is the computed, never-persisted view of a file on disk.
type State struct {
	Path  string
	Hash  string // lowercase hex SHA-256 of the exact on-disk bytes
	MtimeMS int64

	VCSManaged bool
	VCSCommit  string
	VCSStatus  string
}

// Conflict describes a rejected write due to a hash mismatch.
type Conflict struct {
	ExpectedHash string
	CurrentHash  string
}

// WriteResult is returned by WriteWithExpected.
type WriteResult struct {
	Success  bool
	Conflict *Conflict
}

func hashBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ReadWithState reads path and returns its body plus computed State. It
// returns mcperr.NotFound if the file is absent. Callers for which an absent
// file is the normal first-run case use ReadOptional, which returns a nil
// State instead.
func ReadWithState(path string, includeVCS bool) ([]byte, *State, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, mcperr.NotFound("file not found: " + path)
		}
		return nil, nil, mcperr.IOError(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, mcperr.IOError(err)
	}

	st := &State{
		Path:    path,
		Hash:    hashBytes(body),
		MtimeMS: info.ModTime().UnixMilli(),
	}

	if includeVCS {
		if managed, commit, status, ok := vcsInfo(filepath.Dir(path)); ok {
			st.VCSManaged = managed
			st.VCSCommit = commit
			st.VCSStatus = status
		}
	}

	return body, st, nil
}

// ReadOptional behaves like ReadWithState but returns an empty body and a
// nil State (no error) when the file does not exist — the first-run case
// for a file that may not have been generated yet.
func ReadOptional(path string, includeVCS bool) ([]byte, *State, error) {
	body, st, err := ReadWithState(path, includeVCS)
	if err != nil {
		if mcperr.As(err, mcperr.CodeNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	return body, st, nil
}

// WriteWithExpected writes content to path only if the file's current hash
// still matches expectedHash. A file that does not yet exist has an
// expected hash of "" (empty string).
func WriteWithExpected(path string, content []byte, expectedHash string) (*WriteResult, error) {
	currentHash := ""
	if _, st, err := ReadOptional(path, false); err != nil {
		return nil, err
	} else if st != nil {
		currentHash = st.Hash
	}

	if currentHash != expectedHash {
		return &WriteResult{
			Success: false,
			Conflict: &Conflict{
				ExpectedHash: expectedHash,
				CurrentHash:  currentHash,
			},
		}, nil
	}

	if err := atomicWrite(path, content); err != nil {
		return nil, mcperr.IOError(err)
	}

	return &WriteResult{Success: true}, nil
}

// WriteUnconditional writes content to path without checking its current
// hash. Reserved for the instruction generator's full-rewrite path, which
// provides its own safety via the process lock and history snapshotting.
func WriteUnconditional(path string, content []byte) error {
	if err := atomicWrite(path, content); err != nil {
		return mcperr.IOError(err)
	}
	return nil
}

// atomicWrite creates parent directories on demand and writes via a
// temp-file-then-rename when possible, falling back to a single write.
func atomicWrite(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		// Fall back to a direct write if the filesystem does not support
		// the temp-file dance (e.g. some overlay filesystems).
		return os.WriteFile(path, content, 0o644)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}

	return nil
}

// Hash is exported so callers (section store, history) can compute a hash
// for content they hold in memory without writing it first.
func Hash(content []byte) string {
	return hashBytes(content)
}
