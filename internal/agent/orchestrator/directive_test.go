package orchestrator

import "testing"

func TestParseDirectivePlainText(t *testing.T) {
	d, kind := parseDirective("Just a normal answer with no tool use.")
	if kind != noDirective || d != nil {
		t.Fatalf("got kind=%v d=%v", kind, d)
	}
}

func TestParseDirectiveWellFormed(t *testing.T) {
	text := "Let me check.\n```tool_call\n{\"tool\": \"shell\", \"arguments\": {\"command\": \"uptime\"}}\n```"
	d, kind := parseDirective(text)
	if kind != hasDirective {
		t.Fatalf("kind: got %v", kind)
	}
	if d.Tool != "shell" {
		t.Errorf("tool: got %q", d.Tool)
	}
	if string(d.Arguments) != `{"command": "uptime"}` {
		t.Errorf("arguments: got %s", d.Arguments)
	}
}

func TestParseDirectiveMalformedJSON(t *testing.T) {
	text := "```tool_call\n{\"tool\": \"shell\", \n```"
	if _, kind := parseDirective(text); kind != malformedDirective {
		t.Errorf("got %v, want malformedDirective", kind)
	}
}

func TestParseDirectiveMissingTool(t *testing.T) {
	text := "```tool_call\n{\"arguments\": {}}\n```"
	if _, kind := parseDirective(text); kind != malformedDirective {
		t.Errorf("got %v, want malformedDirective", kind)
	}
}

func TestParseDirectiveDefaultsArguments(t *testing.T) {
	text := "```tool_call\n{\"tool\": \"screenshot\"}\n```"
	d, kind := parseDirective(text)
	if kind != hasDirective {
		t.Fatalf("kind: got %v", kind)
	}
	if string(d.Arguments) != "{}" {
		t.Errorf("arguments: got %s", d.Arguments)
	}
}

func TestDirectiveKeyNormalizesArguments(t *testing.T) {
	a, _ := parseDirective("```tool_call\n{\"tool\":\"shell\",\"arguments\":{\"a\":1,\"b\":2}}\n```")
	b, _ := parseDirective("```tool_call\n{\"tool\": \"shell\", \"arguments\": { \"b\": 2, \"a\": 1 }}\n```")
	if a.key() != b.key() {
		t.Errorf("keys differ: %q vs %q", a.key(), b.key())
	}

	c, _ := parseDirective("```tool_call\n{\"tool\":\"shell\",\"arguments\":{\"a\":3}}\n```")
	if a.key() == c.key() {
		t.Error("different arguments should yield different keys")
	}
}

func TestStripDirective(t *testing.T) {
	text := "Running it now.\n```tool_call\n{\"tool\": \"shell\", \"arguments\": {}}\n```\nStand by."
	got := stripDirective(text)
	if got != "Running it now.\n\nStand by." {
		t.Errorf("got %q", got)
	}
}
