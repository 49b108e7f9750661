// Package conversation holds per-conversation bounded message history.
package conversation

import (
	"encoding/json"
	"strings"
	"time"
)

// Role identifies who produced a turn. Tool results travel in synthetic
// user-role turns appended by the orchestrator, never by an end user.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType identifies the kind of content carried by a Block.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// Block is one typed unit of turn content.
type Block struct {
	Type BlockType `json:"type"`

	// BlockText
	Text string `json:"text,omitempty"`

	// BlockImage
	MediaType string `json:"media_type,omitempty"`
	Data      []byte `json:"data,omitempty"`

	// BlockToolUse
	ToolID   string          `json:"tool_id,omitempty"`
	ToolName string          `json:"tool_name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`

	// BlockToolResult
	ResultFor string `json:"result_for,omitempty"` // tool_use id this answers
	IsError   bool   `json:"is_error,omitempty"`
	Content   string `json:"content,omitempty"`
}

// Turn is one message-equivalent unit in a conversation's ordered history.
type Turn struct {
	Role   Role      `json:"role"`
	Blocks []Block   `json:"blocks"`
	At     time.Time `json:"at"`
}

// TextTurn builds a plain-text turn.
func TextTurn(role Role, text string) Turn {
	return Turn{
		Role:   role,
		Blocks: []Block{{Type: BlockText, Text: text}},
		At:     time.Now(),
	}
}

// Text concatenates the turn's text blocks.
func (t Turn) Text() string {
	var sb strings.Builder
	for _, b := range t.Blocks {
		if b.Type == BlockText {
			sb.WriteString(b.Text)
		}
	}
	return sb.String()
}

// HasToolUse reports whether the turn carries any tool invocation request.
func (t Turn) HasToolUse() bool {
	for _, b := range t.Blocks {
		if b.Type == BlockToolUse {
			return true
		}
	}
	return false
}
