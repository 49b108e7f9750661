package ai

import (
	"context"
	"encoding/json"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/valetproj/valet/internal/agent/conversation"
	"github.com/valetproj/valet/internal/logging"
)

// OpenAIProvider implements Provider on the official OpenAI SDK.
// It supports native structured tool use via function calling.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI provider for the given model.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *OpenAIProvider) ID() string { return "openai" }

func (p *OpenAIProvider) SupportsTools() bool { return true }

// Chat sends one non-streaming chat completion request.
func (p *OpenAIProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: buildOpenAIMessages(req.System, req.Turns),
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, tool := range req.Tools {
			var schema map[string]interface{}
			if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
				logging.Warnf("openai", "skipping tool %s: bad schema: %v", tool.Name, err)
				continue
			}
			tools = append(tools, openai.ChatCompletionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters:  shared.FunctionParameters(schema),
				},
			})
		}
		params.Tools = tools
		if req.ToolChoice == ToolChoiceNone {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String("none"),
			}
		}
	}

	logging.Debugf("openai", "request: model=%s turns=%d tools=%d",
		model, len(req.Turns), len(req.Tools))

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, &ProviderError{Provider: "openai", Message: "chat request failed", Err: err}
	}
	if len(completion.Choices) == 0 {
		return nil, &ProviderError{Provider: "openai", Message: "empty choices in response"}
	}

	choice := completion.Choices[0]
	resp := &ChatResponse{
		Text: choice.Message.Content,
		Usage: Usage{
			InputTokens:  int(completion.Usage.PromptTokens),
			OutputTokens: int(completion.Usage.CompletionTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		resp.ToolCalls = append(resp.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: json.RawMessage(tc.Function.Arguments),
		})
	}
	switch choice.FinishReason {
	case "tool_calls":
		resp.StopReason = StopToolUse
	case "length":
		resp.StopReason = StopMaxTokens
	default:
		resp.StopReason = StopEndTurn
	}
	return resp, nil
}

// buildOpenAIMessages converts turns to the chat-completions message shape.
// Image blocks are dropped: vision input is only carried on the Anthropic
// path for now.
func buildOpenAIMessages(system string, turns []conversation.Turn) []openai.ChatCompletionMessageParamUnion {
	var out []openai.ChatCompletionMessageParamUnion
	if system != "" {
		out = append(out, openai.SystemMessage(system))
	}

	for _, turn := range turns {
		if turn.Role == conversation.RoleAssistant {
			var toolCalls []openai.ChatCompletionMessageToolCallParam
			for _, b := range turn.Blocks {
				if b.Type == conversation.BlockToolUse {
					toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
						ID:   b.ToolID,
						Type: "function",
						Function: openai.ChatCompletionMessageToolCallFunctionParam{
							Name:      b.ToolName,
							Arguments: string(b.Input),
						},
					})
				}
			}
			text := turn.Text()
			if text == "" && len(toolCalls) == 0 {
				continue
			}
			assistantMsg := openai.ChatCompletionAssistantMessageParam{Role: "assistant"}
			if text != "" {
				assistantMsg.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
					OfString: openai.String(text),
				}
			}
			assistantMsg.ToolCalls = toolCalls
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistantMsg})
			continue
		}

		// User turn: tool results become tool messages, text becomes a
		// user message.
		for _, b := range turn.Blocks {
			if b.Type == conversation.BlockToolResult {
				out = append(out, openai.ToolMessage(b.Content, b.ResultFor))
			}
		}
		if text := turn.Text(); text != "" {
			out = append(out, openai.UserMessage(text))
		}
	}
	return out
}

var _ Provider = (*OpenAIProvider)(nil)
