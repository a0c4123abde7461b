// Package mcpserver exposes the section store, context/history, and
// priority-flag registry as MCP tools, dispatching each call onto the core
// packages and flattening the outcome into a single wire-friendly result.
package mcpserver

import "encoding/json"

// Result is the wire shape every tool handler returns: success/error keys
// first, plus whatever capability-specific payload the call produced.
type Result struct {
	Success bool
	Error   string
	Payload map[string]any
}

// Ok builds a successful result carrying payload fields.
func Ok(payload map[string]any) *Result {
	return &Result{Success: true, Payload: payload}
}

// MarshalJSON flattens Payload's keys alongside success/error so the wire
// form is a single flat object rather than a nested "payload" field.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := map[string]any{"success": r.Success}
	if r.Error != "" {
		out["error"] = r.Error
	}
	for k, v := range r.Payload {
		out[k] = v
	}
	return json.Marshal(out)
}
