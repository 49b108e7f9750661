package prompt

import (
	"strings"
	"testing"

	"github.com/valetproj/valet/internal/agent/tools"
)

func TestBuildIncludesBaseAndMemory(t *testing.T) {
	b := NewBuilder("You are a test agent.", func() string {
		return "- 2026-01-01 user prefers metric units"
	})
	got := b.Build()
	if !strings.Contains(got, "You are a test agent.") {
		t.Error("base prompt missing")
	}
	if !strings.Contains(got, "prefers metric units") {
		t.Error("memory notes missing")
	}
	if !strings.Contains(got, "Current date:") {
		t.Error("date context missing")
	}
}

func TestBuildSkipsEmptyMemory(t *testing.T) {
	b := NewBuilder("base", func() string { return "  " })
	if strings.Contains(b.Build(), "## Memory") {
		t.Error("empty memory should not produce a section")
	}
	b = NewBuilder("base", nil)
	if strings.Contains(b.Build(), "## Memory") {
		t.Error("nil recall should not produce a section")
	}
}

func TestBuildTextualDescribesTools(t *testing.T) {
	b := NewBuilder("base", nil)
	got := b.BuildTextual([]tools.Description{
		{Name: "shell", Description: "run commands"},
		{Name: "file", Description: "read files"},
	})
	if !strings.Contains(got, "- shell: run commands") {
		t.Error("tool listing missing")
	}
	if !strings.Contains(got, "```tool_call") {
		t.Error("directive format instructions missing")
	}
}

func TestBuildTextualNoToolsOmitsProtocol(t *testing.T) {
	b := NewBuilder("base", nil)
	got := b.BuildTextual(nil)
	if strings.Contains(got, "tool_call") {
		t.Error("no tools registered, protocol section should be omitted")
	}
}

func TestDefaultBasePrompt(t *testing.T) {
	b := NewBuilder("", nil)
	if !strings.Contains(b.Build(), "Valet") {
		t.Error("default persona missing")
	}
}
