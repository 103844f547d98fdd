package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Outcome values recorded in the ledger.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeServiceErr  = "service_error"
	OutcomeFailed      = "failed"
)

// Completion is one ledger row.
type Completion struct {
	ID                    string        `json:"id"`
	Timestamp             time.Time     `json:"ts"`
	TraceID               string        `json:"trace_id"`
	Sender                string        `json:"sender"`
	Model                 string        `json:"model"`
	Outcome               string        `json:"outcome"`
	EstimatedPromptTokens int           `json:"estimated_prompt_tokens"`
	PromptTokens          int           `json:"prompt_tokens"`
	CompletionTokens      int           `json:"completion_tokens"`
	TotalTokens           int           `json:"total_tokens"`
	Latency               time.Duration `json:"latency_ns"`
	ReplyBytes            int           `json:"reply_bytes"`
	ErrorMessage          string        `json:"error,omitempty"`
}

// Totals aggregates the ledger.
type Totals struct {
	Completions      int `json:"completions"`
	Fallbacks        int `json:"fallbacks"`
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// RecordCompletion inserts c. ID and Timestamp are filled in when empty.
func (s *Store) RecordCompletion(ctx context.Context, c Completion) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now()
	}
	var errMsg sql.NullString
	if c.ErrorMessage != "" {
		errMsg = sql.NullString{String: c.ErrorMessage, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO completions (id, ts, trace_id, sender, model, outcome,
			estimated_prompt_tokens, prompt_tokens, completion_tokens, total_tokens,
			latency_ms, reply_bytes, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Timestamp, c.TraceID, c.Sender, c.Model, c.Outcome,
		c.EstimatedPromptTokens, c.PromptTokens, c.CompletionTokens, c.TotalTokens,
		c.Latency.Milliseconds(), c.ReplyBytes, errMsg)
	if err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}
	return nil
}

// Totals returns ledger-wide counts.
func (s *Store) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN outcome IN (?, ?) THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(prompt_tokens), 0),
			COALESCE(SUM(completion_tokens), 0),
			COALESCE(SUM(total_tokens), 0)
		FROM completions
	`, OutcomeRateLimited, OutcomeServiceErr).Scan(
		&t.Completions, &t.Fallbacks, &t.PromptTokens, &t.CompletionTokens, &t.TotalTokens,
	)
	if err != nil {
		return Totals{}, fmt.Errorf("failed to query completion totals: %w", err)
	}
	return t, nil
}

// Recent returns the newest completions, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Completion, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, trace_id, sender, model, outcome,
			estimated_prompt_tokens, prompt_tokens, completion_tokens, total_tokens,
			latency_ms, reply_bytes, error_message
		FROM completions
		ORDER BY ts DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query completions: %w", err)
	}
	defer rows.Close()

	var out []Completion
	for rows.Next() {
		var (
			c         Completion
			latencyMS int64
			errMsg    sql.NullString
		)
		if err := rows.Scan(
			&c.ID, &c.Timestamp, &c.TraceID, &c.Sender, &c.Model, &c.Outcome,
			&c.EstimatedPromptTokens, &c.PromptTokens, &c.CompletionTokens, &c.TotalTokens,
			&latencyMS, &c.ReplyBytes, &errMsg,
		); err != nil {
			return nil, fmt.Errorf("failed to scan completion: %w", err)
		}
		c.Latency = time.Duration(latencyMS) * time.Millisecond
		c.ErrorMessage = errMsg.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating completions: %w", err)
	}
	return out, nil
}
