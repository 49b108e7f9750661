package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const maxFileReadBytes = 256 * 1024

// FileTool reads, writes, and lists files under a workspace root. Paths
// are confined to the workspace; escape attempts fail as data.
type FileTool struct {
	root string
}

// NewFileTool creates a file tool confined to root.
func NewFileTool(root string) *FileTool {
	return &FileTool{root: root}
}

type fileInput struct {
	Action  string `json:"action"` // read, write, append, list
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
}

func (t *FileTool) Name() string { return "file" }

func (t *FileTool) Description() string {
	return "Read, write, append, and list files inside the agent workspace. " +
		"Paths are relative to the workspace root."
}

func (t *FileTool) Schema() json.RawMessage {
	return mustSchema(`{
		"type": "object",
		"properties": {
			"action": {"type": "string", "enum": ["read", "write", "append", "list"]},
			"path": {"type": "string", "description": "Path relative to the workspace"},
			"content": {"type": "string", "description": "Content for write/append"}
		},
		"required": ["action", "path"]
	}`)
}

// resolve confines p to the workspace root.
func (t *FileTool) resolve(p string) (string, error) {
	full := filepath.Join(t.root, filepath.Clean("/"+p))
	rel, err := filepath.Rel(t.root, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("path %q escapes the workspace", p)
	}
	return full, nil
}

func (t *FileTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var in fileInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Errorf("invalid file input: %v", err), nil
	}
	path, err := t.resolve(in.Path)
	if err != nil {
		return Errorf("%v", err), nil
	}

	switch in.Action {
	case "read":
		data, err := os.ReadFile(path)
		if err != nil {
			return Errorf("read %s: %v", in.Path, err), nil
		}
		if len(data) > maxFileReadBytes {
			data = data[:maxFileReadBytes]
			return Text(string(data) + "\n[truncated]"), nil
		}
		return Text(string(data)), nil

	case "write", "append":
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return Errorf("mkdir for %s: %v", in.Path, err), nil
		}
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if in.Action == "append" {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			return Errorf("open %s: %v", in.Path, err), nil
		}
		defer f.Close()
		if _, err := f.WriteString(in.Content); err != nil {
			return Errorf("write %s: %v", in.Path, err), nil
		}
		return Text(fmt.Sprintf("wrote %d bytes to %s", len(in.Content), in.Path)), nil

	case "list":
		entries, err := os.ReadDir(path)
		if err != nil {
			return Errorf("list %s: %v", in.Path, err), nil
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() {
				name += "/"
			}
			names = append(names, name)
		}
		sort.Strings(names)
		return Text(strings.Join(names, "\n")), nil

	default:
		return Errorf("unknown file action %q", in.Action), nil
	}
}
