package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bdobrica/gptbot/common/trace"
	"github.com/bdobrica/gptbot/internal/gptbot/llm"
	"github.com/bdobrica/gptbot/internal/gptbot/metrics"
	"github.com/bdobrica/gptbot/internal/gptbot/observability"
	"github.com/bdobrica/gptbot/internal/gptbot/prompt"
	"github.com/bdobrica/gptbot/internal/gptbot/store"
)

// respond answers one directed message. Rate-limit and service failures
// are answered with an apology; any other provider error is returned.
func (b *Bot) respond(ctx context.Context, sender, text string) error {
	ctx = trace.WithTraceID(ctx, trace.GenerateID())
	log := observability.WithTrace(ctx).With("sender", sender)

	b.history.RecordDirected(sender, prompt.StripAddress(text, b.nick))

	budget := prompt.Budget(b.cfg.MaxPayload, b.cfg.Channel, b.transport.CurrentNick())
	userTurns, assistantTurns := b.history.Turns(sender)
	doc := prompt.Assemble(prompt.Input{
		Nick:           b.nick,
		Sender:         sender,
		Participants:   b.registry.RenderSorted(),
		Persona:        b.cfg.Persona,
		Ambient:        b.history.Ambient(),
		UserTurns:      userTurns,
		AssistantTurns: assistantTurns,
		Budget:         budget,
	})

	msgs := make([]llm.Message, 0, len(doc.Segments))
	for _, seg := range doc.Segments {
		msgs = append(msgs, llm.Message{Role: llm.Role(seg.Role), Content: seg.Content})
	}
	estimate := b.cfg.EstimateTokens(b.cfg.Model, msgs)
	log.Debug("prompt assembled",
		"segments", len(msgs),
		"turns", len(doc.Turns()),
		"estimated_tokens", estimate,
		"budget", budget,
	)
	for i, m := range msgs {
		log.Debug("prompt segment", "index", i, "role", m.Role, "content", m.Content)
	}

	entry := store.Completion{
		TraceID:               trace.FromContext(ctx),
		Sender:                sender,
		Model:                 b.cfg.Model,
		EstimatedPromptTokens: estimate,
	}

	start := time.Now()
	resp, err := b.provider.Complete(ctx, llm.Request{Model: b.cfg.Model, Messages: msgs})
	entry.Latency = time.Since(start)

	var raw string
	switch {
	case err == nil:
		raw = resp.Text
		entry.Outcome = store.OutcomeOK
		if resp.Model != "" {
			entry.Model = resp.Model
		}
		entry.PromptTokens = resp.Usage.PromptTokens
		entry.CompletionTokens = resp.Usage.CompletionTokens
		entry.TotalTokens = resp.Usage.TotalTokens
		metrics.AddTokens(resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		log.Info("completion usage",
			"model", entry.Model,
			"prompt_tokens", resp.Usage.PromptTokens,
			"completion_tokens", resp.Usage.CompletionTokens,
			"total_tokens", resp.Usage.TotalTokens,
			"estimated_prompt_tokens", estimate,
			"finish_reason", resp.FinishReason,
			"latency_ms", entry.Latency.Milliseconds(),
		)
	default:
		apology, ok := b.fallbacks.For(err)
		if !ok {
			entry.Outcome = store.OutcomeFailed
			entry.ErrorMessage = err.Error()
			metrics.ObserveCompletion(entry.Outcome, entry.Latency)
			b.record(ctx, entry)
			return fmt.Errorf("completion for %s: %w", sender, err)
		}
		entry.Outcome = store.OutcomeServiceErr
		if errors.Is(err, llm.ErrRateLimit) {
			entry.Outcome = store.OutcomeRateLimited
		}
		entry.ErrorMessage = llm.Detail(err)
		log.Warn("completion failed, apologising", "outcome", entry.Outcome, "err", err)
		raw = apology
	}
	metrics.ObserveCompletion(entry.Outcome, entry.Latency)

	line, truncated := b.shaper.ShapeReport(raw, b.nick, budget)
	if truncated {
		metrics.ObserveTruncation()
		log.Debug("reply truncated", "budget", budget)
	}
	entry.ReplyBytes = len(line)

	if line == "" {
		log.Warn("empty reply, nothing sent")
	} else if err := b.transport.Privmsg(b.cfg.Channel, line); err != nil {
		return fmt.Errorf("send reply to %s: %w", b.cfg.Channel, err)
	}
	b.history.RecordReply(sender, line)
	b.answered++
	b.record(ctx, entry)
	return nil
}

func (b *Bot) record(ctx context.Context, entry store.Completion) {
	if b.cfg.Ledger == nil {
		return
	}
	if err := b.cfg.Ledger.RecordCompletion(ctx, entry); err != nil {
		observability.WithTrace(ctx).Warn("failed to record completion", "err", err)
	}
}
