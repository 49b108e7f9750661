// Package prompt assembles the system prompt sent with every model call.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/valetproj/valet/internal/agent/tools"
)

const defaultBasePrompt = `You are Valet, a personal assistant agent. You run on the user's own
machine and talk to them over chat. Be concise and direct. Use your tools
when a request needs real information or a real action; answer from
knowledge when it does not.`

// Builder produces system prompts. The base prompt and memory source are
// fixed at construction; tool instructions vary per call depending on the
// protocol in use.
type Builder struct {
	base   string
	recall func() string
}

// NewBuilder creates a prompt builder. An empty base selects the default
// persona. recall may be nil when no memory store is wired.
func NewBuilder(base string, recall func() string) *Builder {
	if base == "" {
		base = defaultBasePrompt
	}
	return &Builder{base: base, recall: recall}
}

// Build assembles the system prompt for a backend with native tool
// support. Tool schemas travel separately in the request, so the prompt
// carries only persona, context, and memory.
func (b *Builder) Build() string {
	var sb strings.Builder
	sb.WriteString(b.base)
	b.writeContext(&sb)
	b.writeMemory(&sb)
	return sb.String()
}

// BuildTextual assembles the system prompt for a backend without native
// tool support. Tools are described inline and the model is instructed to
// emit fenced tool_call directives.
func (b *Builder) BuildTextual(descs []tools.Description) string {
	var sb strings.Builder
	sb.WriteString(b.base)
	b.writeContext(&sb)
	b.writeMemory(&sb)

	if len(descs) == 0 {
		return sb.String()
	}

	sb.WriteString("\n\n## Tools\n\nYou can use the following tools:\n\n")
	for _, d := range descs {
		fmt.Fprintf(&sb, "- %s: %s\n", d.Name, d.Description)
	}
	sb.WriteString(`
To use a tool, reply with ONLY a fenced block in this exact form:

` + "```tool_call" + `
{"tool": "<name>", "arguments": {...}}
` + "```" + `

Rules:
- One tool call per reply, nothing else in the message.
- After the tool result comes back, continue the task or answer the user.
- When no tool is needed, reply with your final answer as plain text.`)
	return sb.String()
}

func (b *Builder) writeContext(sb *strings.Builder) {
	fmt.Fprintf(sb, "\n\nCurrent date: %s", time.Now().Format("Monday, January 2, 2006"))
}

func (b *Builder) writeMemory(sb *strings.Builder) {
	if b.recall == nil {
		return
	}
	notes := strings.TrimSpace(b.recall())
	if notes == "" {
		return
	}
	sb.WriteString("\n\n## Memory\n\nNotes from previous conversations:\n\n")
	sb.WriteString(notes)
}
