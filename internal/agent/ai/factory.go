package ai

import "fmt"

// Options selects and configures a concrete provider.
type Options struct {
	Type    string // "anthropic", "openai", "ollama"
	APIKey  string
	Model   string
	BaseURL string // ollama only
}

// NewProvider builds a provider from its type tag. The orchestrator only
// ever sees the Provider interface; this is the one place concrete
// variants are named.
func NewProvider(opts Options) (Provider, error) {
	switch opts.Type {
	case "anthropic":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		return NewAnthropicProvider(opts.APIKey, opts.Model), nil
	case "openai":
		if opts.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		return NewOpenAIProvider(opts.APIKey, opts.Model), nil
	case "ollama":
		return NewOllamaProvider(opts.BaseURL, opts.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", opts.Type)
	}
}
