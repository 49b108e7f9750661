package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/valetproj/valet/internal/agent/conversation"
	"github.com/valetproj/valet/internal/logging"
)

const defaultMaxTokens = 4096

// AnthropicProvider implements Provider on the official Anthropic SDK.
// It supports native structured tool use.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider creates an Anthropic provider for the given model.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (p *AnthropicProvider) ID() string { return "anthropic" }

func (p *AnthropicProvider) SupportsTools() bool { return true }

// Chat sends one non-streaming request.
func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	model := p.model
	if req.Model != "" {
		model = req.Model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: int64(defaultMaxTokens),
		Messages:  buildAnthropicMessages(req.Turns),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = int64(req.MaxTokens)
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = buildAnthropicTools(req.Tools)
		if req.ToolChoice == ToolChoiceNone {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfNone: &anthropic.ToolChoiceNoneParam{},
			}
		}
	}

	logging.Debugf("anthropic", "request: model=%s turns=%d tools=%d",
		model, len(req.Turns), len(req.Tools))

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, &ProviderError{Provider: "anthropic", Message: "chat request failed", Err: err}
	}

	resp := &ChatResponse{
		StopReason: mapAnthropicStop(msg.StopReason),
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
		},
	}
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Text += b.Text
		case anthropic.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:    b.ID,
				Name:  b.Name,
				Input: json.RawMessage(b.JSON.Input.Raw()),
			})
		}
	}
	return resp, nil
}

func mapAnthropicStop(reason anthropic.StopReason) StopReason {
	switch reason {
	case anthropic.StopReasonToolUse:
		return StopToolUse
	case anthropic.StopReasonMaxTokens:
		return StopMaxTokens
	default:
		return StopEndTurn
	}
}

func buildAnthropicTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		var schema map[string]interface{}
		if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
			logging.Warnf("anthropic", "skipping tool %s: bad schema: %v", tool.Name, err)
			continue
		}
		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			Description: anthropic.String(tool.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: schema["properties"],
			},
		}
		if required, ok := schema["required"].([]interface{}); ok {
			reqStrings := make([]string, 0, len(required))
			for _, r := range required {
				if s, ok := r.(string); ok {
					reqStrings = append(reqStrings, s)
				}
			}
			toolParam.InputSchema.Required = reqStrings
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &toolParam})
	}
	return out
}

func buildAnthropicMessages(turns []conversation.Turn) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for _, turn := range turns {
		var blocks []anthropic.ContentBlockParamUnion
		for _, b := range turn.Blocks {
			switch b.Type {
			case conversation.BlockText:
				if b.Text != "" {
					blocks = append(blocks, anthropic.NewTextBlock(b.Text))
				}
			case conversation.BlockImage:
				blocks = append(blocks, anthropic.NewImageBlockBase64(
					b.MediaType, base64.StdEncoding.EncodeToString(b.Data)))
			case conversation.BlockToolUse:
				var input map[string]interface{}
				if err := json.Unmarshal(b.Input, &input); err != nil {
					input = map[string]interface{}{}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    b.ToolID,
						Name:  b.ToolName,
						Input: input,
					},
				})
			case conversation.BlockToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(
					b.ResultFor, b.Content, b.IsError))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		role := anthropic.MessageParamRoleUser
		if turn.Role == conversation.RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

var _ Provider = (*AnthropicProvider)(nil)

// String renders a short identity for logs.
func (p *AnthropicProvider) String() string {
	return fmt.Sprintf("anthropic(%s)", p.model)
}
