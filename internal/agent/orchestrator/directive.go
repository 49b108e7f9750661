package orchestrator

import (
	"encoding/json"
	"regexp"
	"strings"
)

// directiveKind classifies what a textual model reply contained.
type directiveKind int

const (
	// noDirective means the reply is plain text, treated as the final answer.
	noDirective directiveKind = iota
	// hasDirective means a well-formed tool call was found.
	hasDirective
	// malformedDirective means a fence was present but its payload did not
	// parse. The loop fails open and returns the raw text to the user.
	malformedDirective
)

// directive is one parsed textual tool call.
type directive struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// key returns a normalized identity for repeat detection: tool name plus
// arguments with keys sorted and whitespace collapsed, so the same call
// written two ways still matches.
func (d *directive) key() string {
	var args any
	if len(d.Arguments) > 0 {
		if err := json.Unmarshal(d.Arguments, &args); err == nil {
			if canon, err := json.Marshal(args); err == nil {
				return d.Tool + ":" + string(canon)
			}
		}
	}
	return d.Tool + ":" + strings.TrimSpace(string(d.Arguments))
}

var directiveFence = regexp.MustCompile("(?s)```tool_call\\s*\\n(.*?)```")

// parseDirective scans a model reply for a fenced tool_call block.
func parseDirective(text string) (*directive, directiveKind) {
	m := directiveFence.FindStringSubmatch(text)
	if m == nil {
		return nil, noDirective
	}

	payload := strings.TrimSpace(m[1])
	var d directive
	if err := json.Unmarshal([]byte(payload), &d); err != nil {
		return nil, malformedDirective
	}
	if d.Tool == "" {
		return nil, malformedDirective
	}
	if len(d.Arguments) == 0 {
		d.Arguments = json.RawMessage(`{}`)
	}
	return &d, hasDirective
}

// stripDirective removes the fenced block from a reply, leaving any
// surrounding prose the model wrote alongside the call.
func stripDirective(text string) string {
	return strings.TrimSpace(directiveFence.ReplaceAllString(text, ""))
}
