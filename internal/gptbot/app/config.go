package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bdobrica/gptbot/common/environment"
	"github.com/bdobrica/gptbot/internal/gptbot/history"
	"github.com/bdobrica/gptbot/internal/gptbot/ircconn"
	"github.com/bdobrica/gptbot/internal/gptbot/llm"
	"github.com/bdobrica/gptbot/internal/gptbot/prompt"
	"github.com/bdobrica/gptbot/internal/gptbot/store"
)

// IRCConfig holds connection settings.
type IRCConfig struct {
	Server        string
	Port          int
	TLS           bool
	Password      string
	Channel       string
	Nick          string
	Encoding      string
	MaxPayload    int
	PingFrequency time.Duration
}

// Config holds the complete application configuration.
type Config struct {
	IRC IRCConfig

	// BufferSize bounds the per-sender history and, plus five, the ambient
	// memory.
	BufferSize int
	// PersonaFile is an optional YAML persona. Empty uses the built-in one.
	PersonaFile string

	OpenAI llm.Config
	// Tokenizer enables tiktoken prompt estimates. When false a character
	// heuristic is used and no BPE ranks are fetched.
	Tokenizer bool

	// DatabasePath locates the completion ledger. Defaults to in-memory.
	DatabasePath string
	// HTTPAddr enables /health, /status and /metrics when non-empty.
	HTTPAddr string

	LogLevel  string
	LogFormat string
}

// ConfigFromEnv reads the configuration from the environment. Channel and
// nick may still be empty; Validate reports them after flag overrides.
func ConfigFromEnv() (*Config, error) {
	apiKey, err := environment.RequiredString("OPENAI_API_KEY")
	if err != nil {
		return nil, err
	}

	return &Config{
		IRC: IRCConfig{
			Server:        environment.StringOr("IRC_SERVER", ircconn.DefaultServer),
			Port:          environment.IntOr("IRC_PORT", ircconn.DefaultPort),
			TLS:           environment.BoolOr("IRC_TLS", false),
			Password:      environment.StringOr("IRC_PASSWORD", ""),
			Channel:       environment.StringOr("IRC_CHANNEL", ""),
			Nick:          environment.StringOr("IRC_NICK", ""),
			Encoding:      environment.StringOr("IRC_ENCODING", "utf-8"),
			MaxPayload:    environment.IntOr("IRC_MAX_PAYLOAD", prompt.DefaultMaxPayload),
			PingFrequency: environment.DurationOr("IRC_PING_FREQUENCY", 0),
		},
		BufferSize:  environment.IntOr("GPTBOT_BUFFER_SIZE", history.DefaultBufferSize),
		PersonaFile: environment.StringOr("GPTBOT_PERSONA_FILE", ""),
		OpenAI: llm.Config{
			APIKey:      apiKey,
			BaseURL:     environment.StringOr("OPENAI_BASE_URL", ""),
			Model:       environment.StringOr("OPENAI_MODEL", llm.DefaultModel),
			MaxTokens:   environment.IntOr("OPENAI_MAX_TOKENS", llm.DefaultMaxTokens),
			Temperature: environment.FloatOr("OPENAI_TEMPERATURE", llm.DefaultTemperature),
			Timeout:     environment.DurationOr("OPENAI_TIMEOUT", time.Minute),
		},
		Tokenizer:    environment.BoolOr("GPTBOT_TOKENIZER", true),
		DatabasePath: environment.StringOr("DATABASE_PATH", store.MemoryPath),
		HTTPAddr:     environment.StringOr("HTTP_ADDR", ""),
		LogLevel:     environment.StringOr("LOG_LEVEL", "info"),
		LogFormat:    environment.StringOr("LOG_FORMAT", "text"),
	}, nil
}

// Validate checks the configuration for values the bot cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.IRC.Channel == "" {
		errs = append(errs, errors.New("IRC_CHANNEL is required"))
	} else if !strings.ContainsRune("#&+!", rune(c.IRC.Channel[0])) {
		errs = append(errs, fmt.Errorf("IRC_CHANNEL %q is not a channel name", c.IRC.Channel))
	}
	if c.IRC.Nick == "" {
		errs = append(errs, errors.New("IRC_NICK is required"))
	} else if strings.ContainsAny(c.IRC.Nick, " ,*?!@") {
		errs = append(errs, fmt.Errorf("IRC_NICK %q contains invalid characters", c.IRC.Nick))
	}
	if c.IRC.Port <= 0 || c.IRC.Port > 65535 {
		errs = append(errs, fmt.Errorf("IRC_PORT %d out of range", c.IRC.Port))
	}
	if c.IRC.MaxPayload <= 0 {
		errs = append(errs, fmt.Errorf("IRC_MAX_PAYLOAD must be positive, got %d", c.IRC.MaxPayload))
	}
	if c.BufferSize < 0 {
		errs = append(errs, fmt.Errorf("GPTBOT_BUFFER_SIZE must not be negative, got %d", c.BufferSize))
	}
	if c.OpenAI.APIKey == "" {
		errs = append(errs, errors.New("OPENAI_API_KEY is required"))
	}
	return errors.Join(errs...)
}
