package ai

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/valetproj/valet/internal/logging"
)

// OllamaProvider implements Provider for local models served by Ollama.
// It reports SupportsTools() == false: many local models cannot be relied
// on for structured tool use, so the orchestrator drives them through the
// textual tool-call protocol instead.
type OllamaProvider struct {
	client *api.Client
	model  string
}

// NewOllamaProvider creates an Ollama provider. An empty baseURL selects
// the local default.
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		parsedURL, _ = url.Parse("http://localhost:11434")
	}
	httpClient := &http.Client{
		Timeout: 5 * time.Minute, // local inference can be slow
	}
	return &OllamaProvider{
		client: api.NewClient(parsedURL, httpClient),
		model:  model,
	}
}

func (p *OllamaProvider) ID() string { return "ollama" }

func (p *OllamaProvider) SupportsTools() bool { return false }

// Chat sends one non-streaming request.
func (p *OllamaProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	messages := make([]api.Message, 0, len(req.Turns)+1)
	if req.System != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	for _, turn := range req.Turns {
		text := turn.Text()
		if text == "" {
			// Tool-use and tool-result blocks never reach this provider:
			// the textual strategy keeps everything as plain text turns.
			continue
		}
		messages = append(messages, api.Message{Role: string(turn.Role), Content: text})
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
	}
	if req.Temperature > 0 || req.MaxTokens > 0 {
		chatReq.Options = make(map[string]any)
		if req.Temperature > 0 {
			chatReq.Options["temperature"] = req.Temperature
		}
		if req.MaxTokens > 0 {
			chatReq.Options["num_predict"] = req.MaxTokens
		}
	}

	logging.Debugf("ollama", "request: model=%s messages=%d", model, len(messages))

	var resp *ChatResponse
	err := p.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		resp = &ChatResponse{
			Text:       r.Message.Content,
			StopReason: StopEndTurn,
			Usage: Usage{
				InputTokens:  r.PromptEvalCount,
				OutputTokens: r.EvalCount,
			},
		}
		return nil
	})
	if err != nil {
		return nil, &ProviderError{Provider: "ollama", Message: "chat request failed", Err: err}
	}
	if resp == nil {
		return nil, &ProviderError{Provider: "ollama", Message: "no response received"}
	}
	return resp, nil
}

var _ Provider = (*OllamaProvider)(nil)
