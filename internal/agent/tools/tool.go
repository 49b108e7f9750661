// Package tools defines the tool contract and the registry that dispatches
// model-requested invocations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Result is the outcome of one tool execution. Failures are represented
// here as data; nothing past the registry boundary ever panics or returns
// an error to the loop.
type Result struct {
	Success  bool           `json:"success"`
	Output   string         `json:"output,omitempty"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`

	// Artifact references a locally produced file (e.g. a screenshot).
	// The orchestrator forwards it to the platform adapter best-effort.
	Artifact string `json:"artifact,omitempty"`
}

// Errorf builds a failed result.
func Errorf(format string, args ...any) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Text builds a successful text result.
func Text(output string) *Result {
	return &Result{Success: true, Output: output}
}

// ForModel renders the result as text fed back to the model.
func (r *Result) ForModel() string {
	if r.Success {
		return r.Output
	}
	return "ERROR: " + r.Error
}

// Tool is implemented by every capability the agent can invoke. Executors
// may return an error; the registry converts it into a failed Result.
type Tool interface {
	// Name is the dispatch key, unique within the registry.
	Name() string

	// Description tells the model what the tool does.
	Description() string

	// Schema is the JSON schema for the tool's input.
	Schema() json.RawMessage

	// Execute runs the tool with the given input.
	Execute(ctx context.Context, input json.RawMessage) (*Result, error)
}

// Description pairs a tool name with its human description for listings.
type Description struct {
	Name        string
	Description string
}
