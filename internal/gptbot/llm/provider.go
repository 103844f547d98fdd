// Package llm is the bot's view of the remote completion service: a
// Provider that turns an ordered list of role-tagged messages into a single
// reply, and the error taxonomy the bot uses to decide when to apologise
// instead of answering.
package llm

import (
	"context"
	"errors"
	"time"
)

// ErrRateLimit is returned when the service refuses the request because a
// rate limit or quota has been exhausted.
var ErrRateLimit = errors.New("llm: upstream rate limit exceeded")

// ErrService is returned for any other error the service itself reports.
var ErrService = errors.New("llm: upstream service error")

// ErrNoChoices is returned when the service answers without a candidate.
var ErrNoChoices = errors.New("llm: no choices returned")

// Role is the role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role/content pair.
type Message struct {
	Role    Role
	Content string
}

// Request is the input to a single completion. Zero-valued tuning fields
// fall back to the provider's configuration.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// TokenUsage reports token consumption for one completion.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Response is the single candidate returned by the service.
type Response struct {
	Text         string
	Model        string
	FinishReason string
	Usage        TokenUsage
	Latency      time.Duration
}

// Provider sends one completion request. Implementations return errors
// wrapping ErrRateLimit or ErrService for the two recoverable failure
// categories; anything else is returned as-is.
type Provider interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
