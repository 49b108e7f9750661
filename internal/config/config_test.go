package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Agent.Provider != "anthropic" {
		t.Errorf("provider: got %q", cfg.Agent.Provider)
	}
	if cfg.Agent.MaxToolRounds != 10 {
		t.Errorf("max tool rounds: got %d", cfg.Agent.MaxToolRounds)
	}
	if cfg.Agent.MaxHistory != 50 {
		t.Errorf("max history: got %d", cfg.Agent.MaxHistory)
	}
	if cfg.Admin.Addr == "" {
		t.Error("admin addr default missing")
	}
	if cfg.Pairing.DBPath == "" {
		t.Error("pairing db default missing")
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
agent:
  provider: ollama
  model: qwen3
  max_tool_rounds: 3
telegram:
  token: abc
  owner_id: "7"
schedule:
  - name: morning
    cron: "0 8 * * *"
    prompt: "good morning briefing"
    conversation_id: "7"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Agent.Provider != "ollama" || cfg.Agent.Model != "qwen3" {
		t.Errorf("agent: %+v", cfg.Agent)
	}
	if cfg.Agent.MaxToolRounds != 3 {
		t.Errorf("max tool rounds: got %d", cfg.Agent.MaxToolRounds)
	}
	if cfg.Telegram.OwnerID != "7" {
		t.Errorf("owner: got %q", cfg.Telegram.OwnerID)
	}
	if len(cfg.Schedule) != 1 || cfg.Schedule[0].Cron != "0 8 * * *" {
		t.Errorf("schedule: %+v", cfg.Schedule)
	}
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, "agent:\n  provider: cohere\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLoadRejectsIncompleteJob(t *testing.T) {
	path := writeConfig(t, `
schedule:
  - name: broken
    cron: "* * * * *"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for job without prompt")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("ANTHROPIC_API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("token: got %q", cfg.Telegram.Token)
	}
	if cfg.Agent.APIKey != "env-key" {
		t.Errorf("api key: got %q", cfg.Agent.APIKey)
	}
}

func TestFileBeatsEnv(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	path := writeConfig(t, "telegram:\n  token: file-token\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.Token != "file-token" {
		t.Errorf("token: got %q", cfg.Telegram.Token)
	}
}
