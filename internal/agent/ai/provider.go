// Package ai defines the model-backend contract and its implementations.
package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/valetproj/valet/internal/agent/conversation"
)

// StopReason indicates why the backend stopped generating.
type StopReason string

const (
	StopEndTurn   StopReason = "end_turn"
	StopToolUse   StopReason = "tool_use"
	StopMaxTokens StopReason = "max_tokens"
)

// ToolCall is a structured tool invocation request emitted by the backend.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolChoice constrains whether the backend may invoke tools on a call.
// Definitions stay visible either way: backends reject histories carrying
// tool blocks when the request defines no tools.
type ToolChoice string

const (
	ToolChoiceAuto ToolChoice = ""     // backend decides
	ToolChoiceNone ToolChoice = "none" // invocation disabled
)

// ToolDefinition describes a tool in the schema form backends expect.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Usage reports token accounting for one call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ChatRequest is the per-call configuration for one model invocation.
// It is constructed fresh for every call and never mutated afterwards.
type ChatRequest struct {
	Turns       []conversation.Turn
	Model       string
	MaxTokens   int
	Temperature float64
	System      string
	Tools       []ToolDefinition
	ToolChoice  ToolChoice
}

// ChatResponse is the backend's reply.
type ChatResponse struct {
	Text       string
	StopReason StopReason
	ToolCalls  []ToolCall
	Usage      Usage
}

// Provider is the single contract the orchestrator depends on.
type Provider interface {
	// ID returns the provider identifier (e.g. "anthropic", "ollama").
	ID() string

	// SupportsTools reports whether the backend accepts structured tool
	// definitions. When false the orchestrator falls back to the textual
	// tool-call protocol embedded in the system prompt.
	SupportsTools() bool

	// Chat sends the conversation and returns one response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}

// ProviderError wraps a backend failure with its origin. The orchestrator
// treats any error from Chat as loop-aborting for the current message only.
type ProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
