package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/valetproj/valet/internal/admin"
	"github.com/valetproj/valet/internal/agent/ai"
	"github.com/valetproj/valet/internal/agent/conversation"
	"github.com/valetproj/valet/internal/agent/orchestrator"
	"github.com/valetproj/valet/internal/agent/prompt"
	"github.com/valetproj/valet/internal/agent/tools"
	"github.com/valetproj/valet/internal/channels"
	"github.com/valetproj/valet/internal/config"
	"github.com/valetproj/valet/internal/logging"
	"github.com/valetproj/valet/internal/pairing"
	"github.com/valetproj/valet/internal/schedule"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the agent daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func runDaemon() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.SetDebug(cfg.Logging.Debug)

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token not configured (set telegram.token or TELEGRAM_BOT_TOKEN)")
	}

	provider, err := ai.NewProvider(ai.Options{
		Type:    cfg.Agent.Provider,
		APIKey:  cfg.Agent.APIKey,
		Model:   cfg.Agent.Model,
		BaseURL: cfg.Agent.BaseURL,
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.Agent.Workspace, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}

	pstore, err := pairing.OpenStore(cfg.Pairing.DBPath)
	if err != nil {
		return err
	}
	defer pstore.Close()
	gate := pairing.NewGate(pstore)

	memory := tools.NewMemoryTool(cfg.Agent.Workspace)
	registry := tools.NewRegistry()
	registry.Register(tools.NewShellTool(cfg.Agent.Workspace))
	registry.Register(tools.NewFileTool(cfg.Agent.Workspace))
	registry.Register(tools.NewScreenshotTool(filepath.Join(cfg.Agent.Workspace, "screenshots")))
	registry.Register(memory)

	store := conversation.NewStore(cfg.Agent.MaxHistory)
	prompts := prompt.NewBuilder(cfg.Agent.SystemPrompt, memory.Recall)

	adapter, err := channels.NewTelegramAdapter(cfg.Telegram.Token)
	if err != nil {
		return err
	}

	orch := orchestrator.New(orchestrator.Options{
		Provider:      provider,
		Store:         store,
		Prompts:       prompts,
		Registry:      registry,
		Gate:          gate,
		Adapter:       adapter,
		Model:         cfg.Agent.Model,
		MaxTokens:     cfg.Agent.MaxTokens,
		Temperature:   cfg.Agent.Temperature,
		MaxToolRounds: cfg.Agent.MaxToolRounds,
		OwnerID:       cfg.Telegram.OwnerID,
	})
	logging.Infof("valet", "agent ready: %s", orch.Describe())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := adapter.Start(ctx); err != nil {
		return err
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-adapter.Messages():
				go orch.HandleMessage(ctx, msg)
			}
		}
	}()

	sched, err := schedule.New(cfg.Schedule, func(name, conversationID, promptText string) {
		if conversationID == "" {
			conversationID = cfg.Telegram.OwnerID
		}
		if conversationID == "" {
			logging.Warnf("schedule", "job %q has no conversation target, skipping", name)
			return
		}
		orch.HandleMessage(ctx, channels.Message{
			ID:             "job:" + name + ":" + uuid.NewString(),
			Platform:       adapter.Platform(),
			Sender:         cfg.Telegram.OwnerID,
			Content:        promptText,
			ConversationID: conversationID,
			Timestamp:      time.Now(),
		})
	})
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	server := admin.NewServer(cfg.Admin.Addr, gate)
	go func() {
		if err := server.Start(); err != nil {
			logging.Errorf("admin", "server stopped: %v", err)
		}
	}()
	defer server.Shutdown()

	// Hot reload covers log verbosity; anything deeper needs a restart.
	if err := config.Watch(ctx, configPath, func(fresh *config.Config) {
		logging.SetDebug(fresh.Logging.Debug)
	}); err != nil {
		logging.Warnf("valet", "config watch unavailable: %v", err)
	}

	<-ctx.Done()
	logging.Infof("valet", "shutting down")
	return nil
}
