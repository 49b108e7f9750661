package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"runtime"
	"time"
)

const defaultShellTimeout = 60 * time.Second

// ShellTool executes a single command through the platform shell.
type ShellTool struct {
	workdir string
}

// NewShellTool creates a shell tool rooted at workdir (empty = process cwd).
func NewShellTool(workdir string) *ShellTool {
	return &ShellTool{workdir: workdir}
}

type shellInput struct {
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"` // seconds
	Cwd     string `json:"cwd,omitempty"`
}

func (t *ShellTool) Name() string { return "shell" }

func (t *ShellTool) Description() string {
	return "Execute a shell command and return its combined output. " +
		"Use for running programs, inspecting the system, and file operations " +
		"not covered by the file tool."
}

func (t *ShellTool) Schema() json.RawMessage {
	return mustSchema(`{
		"type": "object",
		"properties": {
			"command": {"type": "string", "description": "Shell command to execute"},
			"timeout": {"type": "integer", "description": "Timeout in seconds (default 60)"},
			"cwd": {"type": "string", "description": "Working directory"}
		},
		"required": ["command"]
	}`)
}

func (t *ShellTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	var in shellInput
	if err := json.Unmarshal(input, &in); err != nil {
		return Errorf("invalid shell input: %v", err), nil
	}
	if in.Command == "" {
		return Errorf("command must not be empty"), nil
	}

	timeout := defaultShellTimeout
	if in.Timeout > 0 {
		timeout = time.Duration(in.Timeout) * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(runCtx, "powershell", "-Command", in.Command)
	} else {
		cmd = exec.CommandContext(runCtx, "sh", "-c", in.Command)
	}
	cmd.Dir = in.Cwd
	if cmd.Dir == "" {
		cmd.Dir = t.workdir
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	err := cmd.Run()

	output := buf.String()
	if runCtx.Err() == context.DeadlineExceeded {
		return Errorf("command timed out after %s\noutput so far:\n%s", timeout, output), nil
	}
	if err != nil {
		return &Result{
			Success: false,
			Output:  output,
			Error:   fmt.Sprintf("command failed: %v", err),
		}, nil
	}
	return Text(output), nil
}
