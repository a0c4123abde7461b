// Package lock implements a process-wide filesystem mutex with self-healing
// stale-lock eviction, wrapping every writer operation.
package lock

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/logger"
	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/mcperr"
)

const (
	pollInterval    = 100 * time.Millisecond
	defaultTimeout  = 5 * time.Second
	staleMultiplier = 2
)

// Record is the on-disk lock file contents.
type Record struct {
	SessionID  string `json:"sessionId"`
	AcquiredAt int64  `json:"acquiredAt"` // ms since epoch
	PID        int    `json:"pid"`
}

// monotonicCounter gives each acquisition within this process a distinct
// sessionId suffix even when two acquisitions land in the same millisecond.
var monotonicCounter int64

func newSessionID() string {
	n := atomic.AddInt64(&monotonicCounter, 1)
	return fmt.Sprintf("%d-%d", os.Getpid(), time.Now().UnixMilli()+n)
}

// Lock manages a single lock file at path.
type Lock struct {
	path string
}

// New returns a Lock bound to the given lock file path.
func New(path string) *Lock {
	return &Lock{path: path}
}

// WithLock acquires the lock (polling every 100ms up to timeout, evicting a
// stale holder whose acquiredAt is older than 2*timeout), runs fn, and
// releases the lock afterward — even if fn panics or returns an error.
func WithLock(path string, timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	l := New(path)
	sessionID, err := l.acquire(timeout)
	if err != nil {
		return err
	}
	defer l.release(sessionID)

	return fn()
}

func (l *Lock) acquire(timeout time.Duration) (string, error) {
	sessionID := newSessionID()
	deadline := time.Now().Add(timeout)
	staleAge := staleMultiplier * timeout

	for {
		if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
			return "", mcperr.IOError(err)
		}

		ok, err := l.tryCreate(sessionID)
		if err != nil {
			return "", mcperr.IOError(err)
		}
		if ok {
			return sessionID, nil
		}

		// Lock file exists. Check staleness.
		if rec, err := l.read(); err == nil {
			age := time.Since(time.UnixMilli(rec.AcquiredAt))
			if age > staleAge {
				logger.WarnCF("lock", "evicting stale lock", map[string]any{
					"session_id": rec.SessionID,
					"pid":        rec.PID,
					"age_ms":     age.Milliseconds(),
				})
				_ = os.Remove(l.path)
				continue // retry immediately in the same iteration
			}
		}

		if time.Now().After(deadline) {
			return "", mcperr.LockTimeout(int(timeout.Milliseconds()))
		}

		time.Sleep(pollInterval)
	}
}

// tryCreate attempts an exclusive create of the lock file; returns
// (true, nil) if this call created it, (false, nil) if it already exists.
func (l *Lock) tryCreate(sessionID string) (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	rec := Record{
		SessionID:  sessionID,
		AcquiredAt: time.Now().UnixMilli(),
		PID:        os.Getpid(),
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(rec); err != nil {
		return false, err
	}

	return true, nil
}

func (l *Lock) read() (*Record, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// release deletes the lock file only if it still belongs to sessionID — it
// must never delete a lock that has been re-acquired by another owner after
// a stale eviction raced with this holder's own release.
func (l *Lock) release(sessionID string) {
	rec, err := l.read()
	if err != nil {
		return
	}
	if rec.SessionID != sessionID {
		return
	}
	_ = os.Remove(l.path)
}
