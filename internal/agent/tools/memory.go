package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const memoryFileName = "MEMORY.md"

// MemoryTool gives the agent a persistent notebook: a single markdown
// file the agent can append dated notes to and read back. The prompt
// builder injects the same file into the system prompt so notes survive
// conversation resets.
type MemoryTool struct {
	path string
}

// NewMemoryTool creates a memory tool storing notes under dir.
func NewMemoryTool(dir string) *MemoryTool {
	return &MemoryTool{path: filepath.Join(dir, memoryFileName)}
}

// Path returns the location of the memory file.
func (t *MemoryTool) Path() string { return t.path }

type memoryInput struct {
	Action  string `json:"action"` // remember, recall
	Content string `json:"content,omitempty"`
}

func (t *MemoryTool) Name() string { return "memory" }

func (t *MemoryTool) Description() string {
	return "Remember a fact for future conversations, or recall everything " +
		"remembered so far. Use 'remember' for durable facts the user tells you."
}

func (t *MemoryTool) Schema() json.RawMessage {
	return mustSchema(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["remember", "recall"]},
			"content": {"type": "string", "description": "Fact to remember"}
		},
		"required": ["action"]
	}`)
}

func (t *MemoryTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var in memoryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Errorf("invalid memory input: %v", err), nil
	}

	switch in.Action {
	case "remember":
		content := strings.TrimSpace(in.Content)
		if content == "" {
			return Errorf("nothing to remember"), nil
		}
		if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
			return Errorf("create memory dir: %v", err), nil
		}
		f, err := os.OpenFile(t.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return Errorf("open memory file: %v", err), nil
		}
		defer f.Close()
		line := fmt.Sprintf("- %s %s\n", time.Now().Format("2006-01-02"), content)
		if _, err := f.WriteString(line); err != nil {
			return Errorf("write memory file: %v", err), nil
		}
		return Text("remembered"), nil

	case "recall":
		data, err := os.ReadFile(t.path)
		if os.IsNotExist(err) {
			return Text("no memories recorded yet"), nil
		}
		if err != nil {
			return Errorf("read memory file: %v", err), nil
		}
		return Text(string(data)), nil

	default:
		return Errorf("unknown memory action %q", in.Action), nil
	}
}

// Recall reads the memory file for prompt injection. Missing file means
// no memories.
func (t *MemoryTool) Recall() string {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
