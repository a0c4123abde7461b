// Package mcperr defines the canonical error tokens returned across the
// tool-dispatch boundary: NotFound, DuplicateHeading, AnchorNotFound,
// Conflict, LockTimeout, HardLimitReached, HistoryEntryNotFound,
// Restricted, IOError.
package mcperr

import "fmt"

// Code is one of the closed set of canonical error tokens.
type Code string

const (
	CodeNotFound             Code = "NotFound"
	CodeDuplicateHeading     Code = "DuplicateHeading"
	CodeAnchorNotFound       Code = "AnchorNotFound"
	CodeConflict             Code = "Conflict"
	CodeLockTimeout          Code = "LockTimeout"
	CodeHardLimitReached     Code = "HardLimitReached"
	CodeHistoryEntryNotFound Code = "HistoryEntryNotFound"
	CodeRestricted           Code = "Restricted"
	CodeIOError              Code = "IOError"
)

// Error is a canonical-token error with a human-readable message and an
// optional suggested next action, surfaced verbatim over the wire.
type Error struct {
	Code       Code
	Message    string
	NextAction string
}

func (e *Error) Error() string {
	if e.NextAction != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.NextAction)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newErr(code Code, message, nextAction string) *Error {
	return &Error{Code: code, Message: message, NextAction: nextAction}
}

func NotFound(message string) *Error {
	return newErr(CodeNotFound, message, "")
}

func DuplicateHeading(heading string) *Error {
	return newErr(CodeDuplicateHeading, fmt.Sprintf("section %q already exists", heading), "choose a different heading or use update")
}

func AnchorNotFound(anchor string) *Error {
	return newErr(CodeAnchorNotFound, fmt.Sprintf("anchor section %q not found", anchor), "")
}

func Conflict(message string) *Error {
	return newErr(CodeConflict, message, "read the file and call resolve-conflict")
}

func LockTimeout(timeoutMS int) *Error {
	return newErr(CodeLockTimeout, fmt.Sprintf("failed to acquire lock within %dms", timeoutMS), "retry shortly")
}

func HardLimitReached(kind string) *Error {
	return newErr(CodeHardLimitReached, fmt.Sprintf("hard limit reached for %s", kind), "remove an existing flag holder before adding a new one")
}

func HistoryEntryNotFound(key string) *Error {
	return newErr(CodeHistoryEntryNotFound, fmt.Sprintf("history entry %q not found", key), "")
}

func Restricted(message string) *Error {
	return newErr(CodeRestricted, message, "complete the onboarding flow")
}

func IOError(err error) *Error {
	return newErr(CodeIOError, err.Error(), "")
}

// As reports whether err is an *Error with the given code.
func As(err error, code Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == code
}
