// Package config loads the YAML configuration file and environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full daemon configuration.
type Config struct {
	Agent    AgentConfig    `yaml:"agent"`
	Telegram TelegramConfig `yaml:"telegram"`
	Admin    AdminConfig    `yaml:"admin"`
	Pairing  PairingConfig  `yaml:"pairing"`
	Schedule []JobConfig    `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AgentConfig selects and tunes the model backend.
type AgentConfig struct {
	Provider      string  `yaml:"provider"` // anthropic, openai, ollama
	Model         string  `yaml:"model"`
	APIKey        string  `yaml:"api_key"`
	BaseURL       string  `yaml:"base_url"`
	MaxTokens     int     `yaml:"max_tokens"`
	Temperature   float64 `yaml:"temperature"`
	MaxHistory    int     `yaml:"max_history"`
	MaxToolRounds int     `yaml:"max_tool_rounds"`
	SystemPrompt  string  `yaml:"system_prompt"`
	Workspace     string  `yaml:"workspace"`
}

// TelegramConfig connects the Telegram adapter.
type TelegramConfig struct {
	Token   string `yaml:"token"`
	OwnerID string `yaml:"owner_id"`
}

// AdminConfig places the local management API.
type AdminConfig struct {
	Addr string `yaml:"addr"`
}

// PairingConfig places the pairing database.
type PairingConfig struct {
	DBPath string `yaml:"db_path"`
}

// JobConfig is one scheduled prompt.
type JobConfig struct {
	Name           string `yaml:"name"`
	Cron           string `yaml:"cron"`
	Prompt         string `yaml:"prompt"`
	ConversationID string `yaml:"conversation_id"`
}

// LoggingConfig tunes log output.
type LoggingConfig struct {
	Debug bool `yaml:"debug"`
}

// Load reads the config file at path and applies environment overrides.
// A missing file yields defaults plus environment.
func Load(path string) (*Config, error) {
	// .env is optional; real environment always wins.
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" && c.Telegram.Token == "" {
		c.Telegram.Token = v
	}
	if v := os.Getenv("TELEGRAM_OWNER_ID"); v != "" && c.Telegram.OwnerID == "" {
		c.Telegram.OwnerID = v
	}
	if c.Agent.APIKey == "" {
		switch c.Agent.Provider {
		case "openai":
			c.Agent.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			c.Agent.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Agent.Provider == "" {
		c.Agent.Provider = "anthropic"
	}
	if c.Agent.Model == "" {
		switch c.Agent.Provider {
		case "openai":
			c.Agent.Model = "gpt-4o"
		case "ollama":
			c.Agent.Model = "llama3.2"
		default:
			c.Agent.Model = "claude-sonnet-4-20250514"
		}
	}
	if c.Agent.MaxTokens <= 0 {
		c.Agent.MaxTokens = 4096
	}
	if c.Agent.MaxHistory <= 0 {
		c.Agent.MaxHistory = 50
	}
	if c.Agent.MaxToolRounds <= 0 {
		c.Agent.MaxToolRounds = 10
	}
	if c.Agent.Workspace == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		c.Agent.Workspace = filepath.Join(home, ".valet", "workspace")
	}
	if c.Admin.Addr == "" {
		c.Admin.Addr = "127.0.0.1:8790"
	}
	if c.Pairing.DBPath == "" {
		c.Pairing.DBPath = filepath.Join(filepath.Dir(c.Agent.Workspace), "pairing.db")
	}
}

func (c *Config) validate() error {
	switch c.Agent.Provider {
	case "anthropic", "openai", "ollama":
	default:
		return fmt.Errorf("unknown provider %q", c.Agent.Provider)
	}
	for _, job := range c.Schedule {
		if job.Cron == "" || job.Prompt == "" {
			return fmt.Errorf("schedule job %q needs both cron and prompt", job.Name)
		}
	}
	return nil
}
