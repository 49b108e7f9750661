package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/valetproj/valet/internal/agent/ai"
	"github.com/valetproj/valet/internal/logging"
)

// Registry maps tool names to implementations. Tools are registered once
// at startup and the set is immutable for the process lifetime, but the
// registry is still safe for concurrent reads from multiple loops.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, overwriting any previous tool with the same name.
func (r *Registry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tools[tool.Name()]; ok {
		logging.Warnf("registry", "tool %q already registered, overwriting", tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Describe returns name/description pairs for user-facing listings,
// sorted by name.
func (r *Registry) Describe() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Description, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, Description{Name: tool.Name(), Description: tool.Description()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Definitions returns schema-form descriptors for tool-capable backends.
func (r *Registry) Definitions() []ai.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ai.ToolDefinition, 0, len(r.tools))
	for _, tool := range r.tools {
		defs = append(defs, ai.ToolDefinition{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tool.Schema(),
		})
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute looks up and runs a tool. Unknown names, executor errors, and
// executor panics all come back as failed Results, never as control flow.
func (r *Registry) Execute(ctx context.Context, name string, input json.RawMessage) (result *Result) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Errorf("registry", "tool %s panicked: %v", name, rec)
			result = Errorf("tool %s panicked: %v", name, rec)
		}
	}()

	r.mu.RLock()
	tool, ok := r.tools[name]
	r.mu.RUnlock()

	if !ok {
		available := make([]string, 0, len(r.tools))
		r.mu.RLock()
		for n := range r.tools {
			available = append(available, n)
		}
		r.mu.RUnlock()
		sort.Strings(available)
		logging.Warnf("registry", "unknown tool requested: %s", name)
		return Errorf("tool %q does not exist; available tools: %s",
			name, strings.Join(available, ", "))
	}

	logging.Infof("registry", "executing tool: %s", name)
	res, err := tool.Execute(ctx, input)
	if err != nil {
		return Errorf("tool %s failed: %v", name, err)
	}
	if res == nil {
		return Errorf("tool %s returned no result", name)
	}
	return res
}

// mustSchema parses a schema literal at registration time.
func mustSchema(s string) json.RawMessage {
	var check map[string]any
	if err := json.Unmarshal([]byte(s), &check); err != nil {
		panic(fmt.Sprintf("invalid tool schema: %v", err))
	}
	return json.RawMessage(s)
}
