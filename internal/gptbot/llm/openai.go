package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/bdobrica/gptbot/common/version"
)

const (
	DefaultModel       = "gpt-3.5-turbo"
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.8
	defaultTimeout     = 60 * time.Second
)

// Config configures the OpenAI-compatible provider.
type Config struct {
	// APIKey authenticates against the API. It is passed to the client at
	// construction and never stored globally.
	APIKey string
	// BaseURL overrides the API endpoint for compatible services.
	BaseURL string
	// Model defaults to DefaultModel.
	Model string
	// MaxTokens caps the reply length in tokens. Defaults to DefaultMaxTokens.
	MaxTokens int
	// Temperature defaults to DefaultTemperature. Use a negative value to
	// request 0.
	Temperature float64
	// Timeout bounds each request. Defaults to 60s.
	Timeout time.Duration
	// HTTPClient replaces the default HTTP client (tests).
	HTTPClient *http.Client
}

// OpenAI implements Provider on the chat completions API.
type OpenAI struct {
	cfg    Config
	client openai.Client
}

// NewOpenAI returns a provider for cfg. Requests are not retried: a failed
// completion becomes an apology, not a delayed answer.
func NewOpenAI(cfg Config) *OpenAI {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = DefaultTemperature
	} else if cfg.Temperature < 0 {
		cfg.Temperature = 0
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
		option.WithHeader("User-Agent", version.UserAgent()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &OpenAI{cfg: cfg, client: openai.NewClient(opts...)}
}

// Model returns the configured default model.
func (p *OpenAI) Model() string { return p.cfg.Model }

// Complete sends req as a single-candidate chat completion without stop
// sequences.
func (p *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxTokens
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = p.cfg.Temperature
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(m.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		MaxTokens:   openai.Int(int64(maxTokens)),
		N:           openai.Int(1),
		Temperature: openai.Float(temperature),
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, params)
	latency := time.Since(start)
	if err != nil {
		return nil, classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		// An answer with no candidate is the service misbehaving.
		return nil, &detailError{kind: ErrService, detail: "no choices returned", err: ErrNoChoices}
	}

	choice := resp.Choices[0]
	slog.Debug("llm: completion received",
		"model", resp.Model,
		"finish_reason", choice.FinishReason,
		"latency_ms", latency.Milliseconds(),
	)

	return &Response{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		FinishReason: choice.FinishReason,
		Usage: TokenUsage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
		Latency: latency,
	}, nil
}

// classify maps API errors onto ErrRateLimit and ErrService. Requests that
// never got an answer (timeouts, refused or reset connections, DNS
// failures) are service errors too. Errors caused by ctx ending are
// returned unchanged so that shutdown is not reported as an outage.
func classify(ctx context.Context, err error) error {
	wrapped := fmt.Errorf("openai chat completion: %w", err)

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		kind := ErrService
		if isRateLimit(apiErr) {
			kind = ErrRateLimit
		}
		return &detailError{kind: kind, detail: apiErr.Message, err: wrapped}
	}
	if ctx.Err() != nil {
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &detailError{kind: ErrService, detail: "request timed out", err: wrapped}
	case errors.As(err, &netErr):
		detail := "service unreachable"
		if netErr.Timeout() {
			detail = "request timed out"
		}
		return &detailError{kind: ErrService, detail: detail, err: wrapped}
	}
	return err
}

func isRateLimit(apiErr *openai.Error) bool {
	if apiErr.StatusCode == http.StatusTooManyRequests {
		return true
	}
	switch strings.ToLower(apiErr.Code) {
	case "rate_limit_exceeded", "insufficient_quota":
		return true
	}
	return false
}
