// Package orchestrator runs the agent loop: admission, history, model
// calls, tool dispatch, and replies.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valetproj/valet/internal/agent/ai"
	"github.com/valetproj/valet/internal/agent/conversation"
	"github.com/valetproj/valet/internal/agent/prompt"
	"github.com/valetproj/valet/internal/agent/tools"
	"github.com/valetproj/valet/internal/channels"
	"github.com/valetproj/valet/internal/logging"
	"github.com/valetproj/valet/internal/pairing"
)

// DefaultMaxToolRounds bounds tool use per inbound message. The model
// gets one extra call after the cap, with tools withheld, to summarize.
const DefaultMaxToolRounds = 10

const summaryInstruction = "You have used all available tool calls for this " +
	"request. Do not attempt any more tool use. Summarize what you have " +
	"done and learned so far and give the user your best answer now."

// Options configures an Orchestrator.
type Options struct {
	Provider      ai.Provider
	Store         *conversation.Store
	Prompts       *prompt.Builder
	Registry      *tools.Registry
	Gate          *pairing.Gate
	Adapter       channels.Adapter
	Model         string
	MaxTokens     int
	Temperature   float64
	MaxToolRounds int
	OwnerID       string // platform user ID allowed to manage pairings
}

// Orchestrator ties one provider, one tool registry, and one chat
// adapter into the message-handling loop.
type Orchestrator struct {
	provider ai.Provider
	store    *conversation.Store
	prompts  *prompt.Builder
	registry *tools.Registry
	gate     *pairing.Gate
	adapter  channels.Adapter

	model         string
	maxTokens     int
	temperature   float64
	maxToolRounds int
	ownerID       string
}

// New creates an orchestrator from options, applying defaults.
func New(opts Options) *Orchestrator {
	rounds := opts.MaxToolRounds
	if rounds <= 0 {
		rounds = DefaultMaxToolRounds
	}
	return &Orchestrator{
		provider:      opts.Provider,
		store:         opts.Store,
		prompts:       opts.Prompts,
		registry:      opts.Registry,
		gate:          opts.Gate,
		adapter:       opts.Adapter,
		model:         opts.Model,
		maxTokens:     opts.MaxTokens,
		temperature:   opts.Temperature,
		maxToolRounds: rounds,
		ownerID:       opts.OwnerID,
	}
}

// HandleMessage processes one inbound message end to end. It is the
// outer recovery boundary: nothing below it takes the process down.
func (o *Orchestrator) HandleMessage(ctx context.Context, msg channels.Message) {
	defer func() {
		if rec := recover(); rec != nil {
			logging.Errorf("orchestrator", "panic handling message %s: %v", msg.ID, rec)
			o.reply(ctx, msg, "Something went wrong handling that message.")
		}
	}()

	allowed, err := o.admit(ctx, msg)
	if err != nil {
		logging.Errorf("orchestrator", "admission check failed: %v", err)
		o.reply(ctx, msg, "Something went wrong, please try again.")
		return
	}
	if !allowed {
		return
	}

	// Commands are admission-gated too: strangers see only the pairing
	// flow, never status or the tool inventory.
	if handled := o.handleCommand(ctx, msg); handled {
		return
	}

	convID := conversationKey(msg)
	if !o.store.Acquire(ctx, convID) {
		return
	}
	defer o.store.Release(convID)

	o.store.Append(convID, userTurn(msg))
	o.adapter.SendTyping(ctx, msg.ConversationID)

	var text string
	if o.provider.SupportsTools() {
		text, err = o.runStructured(ctx, msg, convID)
	} else {
		text, err = o.runTextual(ctx, msg, convID)
	}
	if err != nil {
		logging.Errorf("orchestrator", "agent loop failed: %v", err)
		o.reply(ctx, msg, "Something went wrong, please try again.")
		return
	}
	o.reply(ctx, msg, text)
}

// admit checks pairing. Unknown users get a fresh code and instructions
// instead of agent access.
func (o *Orchestrator) admit(ctx context.Context, msg channels.Message) (bool, error) {
	if o.isOwner(msg) {
		return true, nil
	}
	ok, err := o.gate.IsApproved(msg.Platform, msg.Sender)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	code, err := o.gate.IssueCode(msg.Platform, msg.Sender, msg.SenderName)
	if err != nil {
		return false, err
	}
	o.reply(ctx, msg, fmt.Sprintf(
		"You are not paired with this agent yet.\n"+
			"Pairing code: %s\n"+
			"Ask the owner to approve it with /approve %s. "+
			"The code expires in 10 minutes.", code, code))
	return false, nil
}

func (o *Orchestrator) isOwner(msg channels.Message) bool {
	return o.ownerID != "" && msg.Sender == o.ownerID
}

// handleCommand intercepts slash commands. Returns true when the message
// was a command, whether or not it succeeded.
func (o *Orchestrator) handleCommand(ctx context.Context, msg channels.Message) bool {
	text := strings.TrimSpace(msg.Content)
	if !strings.HasPrefix(text, "/") {
		return false
	}
	fields := strings.Fields(text)
	cmd := fields[0]
	args := fields[1:]

	switch cmd {
	case "/reset":
		o.store.Clear(conversationKey(msg))
		o.reply(ctx, msg, "Conversation cleared.")

	case "/status":
		o.reply(ctx, msg, fmt.Sprintf(
			"provider: %s\nmodel: %s\nhistory: %d turns\ntool rounds: %d",
			o.provider.ID(), o.model,
			o.store.Len(conversationKey(msg)), o.maxToolRounds))

	case "/tools":
		var sb strings.Builder
		sb.WriteString("Available tools:\n")
		for _, d := range o.registry.Describe() {
			fmt.Fprintf(&sb, "- %s: %s\n", d.Name, d.Description)
		}
		o.reply(ctx, msg, strings.TrimRight(sb.String(), "\n"))

	case "/approve":
		if !o.isOwner(msg) {
			o.reply(ctx, msg, "Only the owner can approve pairings.")
			return true
		}
		if len(args) != 1 {
			o.reply(ctx, msg, "Usage: /approve CODE")
			return true
		}
		rec, err := o.gate.Approve(strings.ToUpper(args[0]), msg.Sender)
		if err != nil {
			o.reply(ctx, msg, fmt.Sprintf("Approval failed: %v", err))
			return true
		}
		o.reply(ctx, msg, fmt.Sprintf("Paired %s user %s.", rec.Platform, rec.UserID))

	case "/revoke":
		if !o.isOwner(msg) {
			o.reply(ctx, msg, "Only the owner can revoke pairings.")
			return true
		}
		if len(args) != 1 {
			o.reply(ctx, msg, "Usage: /revoke USER_ID")
			return true
		}
		if err := o.gate.Revoke(msg.Platform, args[0]); err != nil {
			o.reply(ctx, msg, fmt.Sprintf("Revoke failed: %v", err))
			return true
		}
		o.reply(ctx, msg, fmt.Sprintf("Revoked %s user %s.", msg.Platform, args[0]))

	case "/pairings":
		if !o.isOwner(msg) {
			o.reply(ctx, msg, "Only the owner can list pairings.")
			return true
		}
		recs, err := o.gate.List()
		if err != nil {
			o.reply(ctx, msg, fmt.Sprintf("Listing failed: %v", err))
			return true
		}
		if len(recs) == 0 {
			o.reply(ctx, msg, "No paired users.")
			return true
		}
		var sb strings.Builder
		sb.WriteString("Paired users:\n")
		for _, r := range recs {
			fmt.Fprintf(&sb, "- %s %s (%s) since %s\n",
				r.Platform, r.UserID, r.Display, r.ApprovedAt.Format("2006-01-02"))
		}
		o.reply(ctx, msg, strings.TrimRight(sb.String(), "\n"))

	default:
		return false
	}
	return true
}

// runStructured drives providers with native tool support. Each round is
// one model call; tool_use stops feed results back until the model stops
// on its own or the round cap forces a summary.
func (o *Orchestrator) runStructured(ctx context.Context, msg channels.Message, convID string) (string, error) {
	for round := 0; ; round++ {
		final := round >= o.maxToolRounds

		// Definitions stay on every call: the history carries tool_use and
		// tool_result blocks, and backends reject those without tools. The
		// summary call disables invocation via tool choice instead.
		req := &ai.ChatRequest{
			Turns:       o.store.Get(convID),
			Model:       o.model,
			MaxTokens:   o.maxTokens,
			Temperature: o.temperature,
			System:      o.prompts.Build(),
			Tools:       o.registry.Definitions(),
		}
		if final {
			req.System += "\n\n" + summaryInstruction
			req.ToolChoice = ai.ToolChoiceNone
		}

		resp, err := o.provider.Chat(ctx, req)
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}

		assistant := conversation.Turn{Role: conversation.RoleAssistant, At: time.Now()}
		if resp.Text != "" {
			assistant.Blocks = append(assistant.Blocks, conversation.Block{
				Type: conversation.BlockText, Text: resp.Text,
			})
		}
		if !final {
			// Tool calls from the summary round are never executed, so
			// recording them would leave tool_use blocks with no results
			// in the history.
			for _, call := range resp.ToolCalls {
				assistant.Blocks = append(assistant.Blocks, conversation.Block{
					Type:     conversation.BlockToolUse,
					ToolID:   call.ID,
					ToolName: call.Name,
					Input:    call.Input,
				})
			}
		}
		o.store.Append(convID, assistant)

		if final || resp.StopReason != ai.StopToolUse || len(resp.ToolCalls) == 0 {
			return resp.Text, nil
		}

		results := conversation.Turn{Role: conversation.RoleUser, At: time.Now()}
		for _, call := range resp.ToolCalls {
			res := o.registry.Execute(ctx, call.Name, call.Input)
			o.forwardArtifact(ctx, msg, res)
			results.Blocks = append(results.Blocks, conversation.Block{
				Type:      conversation.BlockToolResult,
				ResultFor: call.ID,
				IsError:   !res.Success,
				Content:   res.ForModel(),
			})
		}
		o.store.Append(convID, results)
		o.adapter.SendTyping(ctx, msg.ConversationID)
	}
}

// runTextual drives providers without native tool support through the
// fenced tool_call protocol. A malformed directive fails open: the raw
// text goes to the user. An exact repeat of the previous directive skips
// execution and forces the summary call early.
func (o *Orchestrator) runTextual(ctx context.Context, msg channels.Message, convID string) (string, error) {
	lastKey := ""
	forceSummary := false

	for round := 0; ; round++ {
		final := forceSummary || round >= o.maxToolRounds

		req := &ai.ChatRequest{
			Turns:       o.store.Get(convID),
			Model:       o.model,
			MaxTokens:   o.maxTokens,
			Temperature: o.temperature,
		}
		if final {
			req.System = o.prompts.Build() + "\n\n" + summaryInstruction
		} else {
			req.System = o.prompts.BuildTextual(o.registry.Describe())
		}

		resp, err := o.provider.Chat(ctx, req)
		if err != nil {
			return "", fmt.Errorf("model call failed: %w", err)
		}

		o.store.Append(convID, conversation.TextTurn(conversation.RoleAssistant, resp.Text))

		if final {
			return stripDirective(resp.Text), nil
		}

		d, kind := parseDirective(resp.Text)
		switch kind {
		case noDirective:
			return resp.Text, nil
		case malformedDirective:
			logging.Warnf("orchestrator", "malformed tool directive, failing open")
			return resp.Text, nil
		}

		if key := d.key(); key == lastKey {
			logging.Warnf("orchestrator", "repeated directive %s, forcing summary", d.Tool)
			forceSummary = true
			continue
		} else {
			lastKey = key
		}

		res := o.registry.Execute(ctx, d.Tool, d.Arguments)
		o.forwardArtifact(ctx, msg, res)
		o.store.Append(convID, conversation.TextTurn(conversation.RoleUser,
			fmt.Sprintf("Tool result for %s:\n%s", d.Tool, res.ForModel())))
		o.adapter.SendTyping(ctx, msg.ConversationID)
	}
}

// forwardArtifact sends a tool-produced file to the chat. Best effort;
// a delivery failure never fails the loop.
func (o *Orchestrator) forwardArtifact(ctx context.Context, msg channels.Message, res *tools.Result) {
	if res.Artifact == "" {
		return
	}
	if err := o.adapter.SendPhoto(ctx, msg.ConversationID, res.Artifact, ""); err != nil {
		logging.Warnf("orchestrator", "failed to forward artifact %s: %v", res.Artifact, err)
	}
}

func (o *Orchestrator) reply(ctx context.Context, msg channels.Message, text string) {
	if text == "" {
		text = "(no response)"
	}
	if err := o.adapter.SendMessage(ctx, msg.ConversationID, text); err != nil {
		logging.Errorf("orchestrator", "failed to send reply: %v", err)
	}
}

// conversationKey scopes history per platform conversation.
func conversationKey(msg channels.Message) string {
	return msg.Platform + ":" + msg.ConversationID
}

// userTurn converts an inbound message into a history turn, inlining any
// attached images.
func userTurn(msg channels.Message) conversation.Turn {
	turn := conversation.Turn{Role: conversation.RoleUser, At: msg.Timestamp}
	if msg.Content != "" {
		turn.Blocks = append(turn.Blocks, conversation.Block{
			Type: conversation.BlockText, Text: msg.Content,
		})
	}
	for _, img := range msg.Images {
		turn.Blocks = append(turn.Blocks, conversation.Block{
			Type:      conversation.BlockImage,
			MediaType: img.MediaType,
			Data:      img.Data,
		})
	}
	return turn
}

// Describe returns a one-line summary for logs and status surfaces.
func (o *Orchestrator) Describe() string {
	mode := "textual"
	if o.provider.SupportsTools() {
		mode = "structured"
	}
	data, _ := json.Marshal(map[string]any{
		"provider": o.provider.ID(),
		"model":    o.model,
		"mode":     mode,
	})
	return string(data)
}
