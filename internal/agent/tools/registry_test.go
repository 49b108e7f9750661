package tools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

type staticTool struct {
	name   string
	result *Result
	err    error
	panics bool
}

func (t *staticTool) Name() string            { return t.name }
func (t *staticTool) Description() string     { return "static test tool" }
func (t *staticTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }

func (t *staticTool) Execute(ctx context.Context, input json.RawMessage) (*Result, error) {
	if t.panics {
		panic("boom")
	}
	return t.result, t.err
}

func TestExecuteUnknownToolFailsAsData(t *testing.T) {
	r := NewRegistry()
	r.Register(&staticTool{name: "alpha", result: Text("ok")})
	r.Register(&staticTool{name: "beta", result: Text("ok")})

	res := r.Execute(context.Background(), "gamma", nil)
	if res.Success {
		t.Fatal("expected failure for unknown tool")
	}
	if !strings.Contains(res.Error, "alpha, beta") {
		t.Errorf("error should list available tools, got: %s", res.Error)
	}
}

func TestExecuteContainsPanic(t *testing.T) {
	r := NewRegistry()
	r.Register(&staticTool{name: "bad", panics: true})

	res := r.Execute(context.Background(), "bad", nil)
	if res.Success {
		t.Fatal("expected failure from panicking tool")
	}
	if !strings.Contains(res.Error, "boom") {
		t.Errorf("panic value should surface in error, got: %s", res.Error)
	}
}

func TestExecuteConvertsExecutorError(t *testing.T) {
	r := NewRegistry()
	r.Register(&staticTool{name: "flaky", err: context.DeadlineExceeded})

	res := r.Execute(context.Background(), "flaky", nil)
	if res.Success {
		t.Fatal("expected failure")
	}
	if res.Error == "" {
		t.Error("expected error message")
	}
}

func TestDefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	r.Register(&staticTool{name: "zeta", result: Text("")})
	r.Register(&staticTool{name: "alpha", result: Text("")})

	defs := r.Definitions()
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "alpha" || defs[1].Name != "zeta" {
		t.Errorf("definitions not sorted: %s, %s", defs[0].Name, defs[1].Name)
	}
}

func TestResultForModel(t *testing.T) {
	if got := Text("hello").ForModel(); got != "hello" {
		t.Errorf("success result: got %q", got)
	}
	if got := Errorf("it broke").ForModel(); got != "ERROR: it broke" {
		t.Errorf("failed result: got %q", got)
	}
}
