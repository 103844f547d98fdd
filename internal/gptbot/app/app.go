// Package app wires the bot together: configuration, the IRC session, the
// completion provider, the usage ledger and the optional HTTP surface.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/text/encoding"

	"github.com/bdobrica/gptbot/internal/gptbot/bot"
	"github.com/bdobrica/gptbot/internal/gptbot/ircconn"
	"github.com/bdobrica/gptbot/internal/gptbot/llm"
	"github.com/bdobrica/gptbot/internal/gptbot/metrics"
	"github.com/bdobrica/gptbot/internal/gptbot/persona"
	"github.com/bdobrica/gptbot/internal/gptbot/reply"
	"github.com/bdobrica/gptbot/internal/gptbot/store"
)

// App is the main application.
type App struct {
	config       *Config
	persona      persona.Persona
	charset      encoding.Encoding
	store        *store.Store
	provider     llm.Provider
	healthServer *HealthServer

	bot atomic.Pointer[bot.Bot]
}

// New validates config and prepares every component that does not need the
// network.
func New(config *Config) (*App, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p, err := persona.Load(config.PersonaFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load persona: %w", err)
	}

	charset, err := reply.LookupCharset(config.IRC.Encoding)
	if err != nil {
		return nil, fmt.Errorf("invalid IRC encoding: %w", err)
	}

	st, err := store.New(config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	slog.Info("ledger ready", "path", config.DatabasePath)

	metrics.Init()

	a := &App{
		config:   config,
		persona:  p,
		charset:  charset,
		store:    st,
		provider: llm.NewOpenAI(config.OpenAI),
	}

	if config.HTTPAddr != "" {
		a.healthServer = NewHealthServer(config.HTTPAddr, a)
		a.healthServer.Handle("/metrics", promhttp.Handler())
	}
	return a, nil
}

// Run connects to the server and serves the channel until the connection
// is lost, a fatal error occurs, or the process receives SIGINT/SIGTERM.
// A signal-initiated shutdown returns nil.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.healthServer != nil {
		if err := a.healthServer.Start(ctx); err != nil {
			slog.Warn("health server failed to start; continuing without it", "err", err)
		}
	}

	estimate := llm.HeuristicTokens
	if a.config.Tokenizer {
		estimate = llm.EstimateTokens
		go func() {
			if !llm.WarmTokenizer(a.config.OpenAI.Model) {
				slog.Warn("tokenizer unavailable; prompt estimates use a character heuristic", "model", a.config.OpenAI.Model)
			}
		}()
	}

	ircCfg := a.config.IRC
	conn, err := ircconn.Dial(ctx, ircconn.Config{
		Server:        ircCfg.Server,
		Port:          ircCfg.Port,
		TLS:           ircCfg.TLS,
		Password:      ircCfg.Password,
		Nick:          ircCfg.Nick,
		Charset:       a.charset,
		PingFrequency: ircCfg.PingFrequency,
	})
	if err != nil {
		return err
	}
	defer conn.Close()

	b := bot.New(bot.Config{
		Channel:        ircCfg.Channel,
		Nick:           ircCfg.Nick,
		MaxPayload:     ircCfg.MaxPayload,
		BufferSize:     a.config.BufferSize,
		Model:          a.config.OpenAI.Model,
		Persona:        a.persona,
		Charset:        a.charset,
		Ledger:         a.store,
		EstimateTokens: estimate,
	}, conn, a.provider)
	a.bot.Store(b)

	slog.Info("gptbot is running; press Ctrl+C to stop",
		"server", a.config.IRC.Server,
		"channel", ircCfg.Channel,
		"nick", ircCfg.Nick,
		"model", a.config.OpenAI.Model,
	)

	if err := conn.Run(ctx, b.Handle); err != nil {
		return err
	}
	slog.Info("shutting down")
	return nil
}

// Stop releases resources held by the application.
func (a *App) Stop() {
	if a.healthServer != nil {
		slog.Info("stopping health server")
		a.healthServer.Stop()
	}

	slog.Info("closing database")
	a.store.Close()
}

// BotStatus returns the bot's latest snapshot once a session exists.
func (a *App) BotStatus() (bot.Status, bool) {
	b := a.bot.Load()
	if b == nil {
		return bot.Status{}, false
	}
	return b.Status(), true
}

// LedgerTotals returns the completion ledger totals.
func (a *App) LedgerTotals(ctx context.Context) (store.Totals, error) {
	return a.store.Totals(ctx)
}
