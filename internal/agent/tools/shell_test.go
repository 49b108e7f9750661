package tools

import (
	"context"
	"encoding/json"
	"runtime"
	"strings"
	"testing"
)

func runShell(t *testing.T, tool *ShellTool, input string) *Result {
	t.Helper()
	res, err := tool.Execute(context.Background(), json.RawMessage(input))
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	return res
}

func TestShellEcho(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}
	tool := NewShellTool(t.TempDir())
	res := runShell(t, tool, `{"command":"echo hello"}`)
	if !res.Success {
		t.Fatalf("expected success, got error: %s", res.Error)
	}
	if strings.TrimSpace(res.Output) != "hello" {
		t.Errorf("output: got %q", res.Output)
	}
}

func TestShellNonZeroExitFails(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}
	tool := NewShellTool(t.TempDir())
	res := runShell(t, tool, `{"command":"echo partial; exit 3"}`)
	if res.Success {
		t.Fatal("expected failure for non-zero exit")
	}
	if !strings.Contains(res.Output, "partial") {
		t.Errorf("partial output should be preserved, got %q", res.Output)
	}
}

func TestShellTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("posix shell test")
	}
	tool := NewShellTool(t.TempDir())
	res := runShell(t, tool, `{"command":"sleep 5","timeout":1}`)
	if res.Success {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(res.Error, "timed out") {
		t.Errorf("error: got %q", res.Error)
	}
}

func TestShellEmptyCommand(t *testing.T) {
	tool := NewShellTool(t.TempDir())
	res := runShell(t, tool, `{"command":""}`)
	if res.Success {
		t.Fatal("expected failure for empty command")
	}
}
