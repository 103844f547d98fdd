package app_test

import (
	"strings"
	"testing"

	"github.com/bdobrica/gptbot/internal/gptbot/app"
	"github.com/bdobrica/gptbot/internal/gptbot/llm"
	"github.com/bdobrica/gptbot/internal/gptbot/store"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("IRC_CHANNEL", "#test")
	t.Setenv("IRC_NICK", "Zorg")
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := app.ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.IRC.Server != "irc.elisa.fi" || cfg.IRC.Port != 6667 || cfg.IRC.TLS {
		t.Errorf("unexpected IRC defaults: %+v", cfg.IRC)
	}
	if cfg.IRC.MaxPayload != 492 || cfg.IRC.Encoding != "utf-8" {
		t.Errorf("unexpected wire defaults: %+v", cfg.IRC)
	}
	if cfg.BufferSize != 5 {
		t.Errorf("expected buffer size 5, got %d", cfg.BufferSize)
	}
	if cfg.OpenAI.Model != "gpt-3.5-turbo" || cfg.OpenAI.MaxTokens != 2000 || cfg.OpenAI.Temperature != 0.8 {
		t.Errorf("unexpected OpenAI defaults: %+v", cfg.OpenAI)
	}
	if cfg.DatabasePath != store.MemoryPath {
		t.Errorf("expected in-memory ledger, got %q", cfg.DatabasePath)
	}
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("IRC_PORT", "6697")
	t.Setenv("IRC_TLS", "true")
	t.Setenv("IRC_ENCODING", "iso-8859-15")
	t.Setenv("GPTBOT_BUFFER_SIZE", "8")
	t.Setenv("OPENAI_TEMPERATURE", "0.2")

	cfg, err := app.ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv: %v", err)
	}
	if cfg.IRC.Port != 6697 || !cfg.IRC.TLS || cfg.IRC.Encoding != "iso-8859-15" {
		t.Errorf("unexpected IRC config: %+v", cfg.IRC)
	}
	if cfg.BufferSize != 8 || cfg.OpenAI.Temperature != 0.2 {
		t.Errorf("unexpected overrides: buffer=%d temperature=%v", cfg.BufferSize, cfg.OpenAI.Temperature)
	}
}

func TestConfigFromEnv_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := app.ConfigFromEnv(); err == nil {
		t.Fatal("expected error without OPENAI_API_KEY")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *app.Config {
		return &app.Config{
			IRC:        app.IRCConfig{Channel: "#test", Nick: "Zorg", Port: 6667, MaxPayload: 492},
			BufferSize: 5,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *app.Config)
		want   string
	}{
		{"missing channel", func(c *app.Config) { c.IRC.Channel = "" }, "IRC_CHANNEL is required"},
		{"bad channel", func(c *app.Config) { c.IRC.Channel = "test" }, "not a channel name"},
		{"missing nick", func(c *app.Config) { c.IRC.Nick = "" }, "IRC_NICK is required"},
		{"bad nick", func(c *app.Config) { c.IRC.Nick = "Zo rg" }, "invalid characters"},
		{"bad port", func(c *app.Config) { c.IRC.Port = 70000 }, "out of range"},
		{"negative buffer", func(c *app.Config) { c.BufferSize = -1 }, "must not be negative"},
		{"zero payload", func(c *app.Config) { c.IRC.MaxPayload = 0 }, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			c.OpenAI.APIKey = "sk-test"
			tt.mutate(c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}

	c := valid()
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Errorf("expected missing API key error, got %v", err)
	}
}

func TestNew_RejectsUnknownEncoding(t *testing.T) {
	cfg := &app.Config{
		IRC:          app.IRCConfig{Channel: "#test", Nick: "Zorg", Port: 6667, MaxPayload: 492, Encoding: "klingon-1"},
		OpenAI:       llmConfig(),
		DatabasePath: store.MemoryPath,
	}
	if _, err := app.New(cfg); err == nil {
		t.Fatal("expected error for unknown encoding")
	}
}

func TestNew_BotStatusBeforeRun(t *testing.T) {
	cfg := &app.Config{
		IRC:          app.IRCConfig{Channel: "#test", Nick: "Zorg", Port: 6667, MaxPayload: 492, Encoding: "utf-8"},
		OpenAI:       llmConfig(),
		DatabasePath: store.MemoryPath,
	}
	a, err := app.New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Stop()

	if _, ok := a.BotStatus(); ok {
		t.Error("expected no bot status before Run")
	}
	totals, err := a.LedgerTotals(t.Context())
	if err != nil {
		t.Fatalf("LedgerTotals: %v", err)
	}
	if totals != (store.Totals{}) {
		t.Errorf("expected empty ledger, got %+v", totals)
	}
}

func llmConfig() llm.Config {
	return llm.Config{APIKey: "sk-test", BaseURL: "http://127.0.0.1:0"}
}
