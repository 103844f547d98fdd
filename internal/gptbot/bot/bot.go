// Package bot holds the conversation logic: it classifies channel messages,
// keeps the per-sender and ambient memory, and answers directed messages
// through the completion provider.
//
// All event handling happens on a single goroutine (the connection's read
// loop). Directed messages are answered strictly in arrival order, and a
// message arriving while a completion is outstanding waits for it.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"golang.org/x/text/encoding"

	"github.com/bdobrica/gptbot/internal/gptbot/history"
	"github.com/bdobrica/gptbot/internal/gptbot/llm"
	"github.com/bdobrica/gptbot/internal/gptbot/metrics"
	"github.com/bdobrica/gptbot/internal/gptbot/nicks"
	"github.com/bdobrica/gptbot/internal/gptbot/persona"
	"github.com/bdobrica/gptbot/internal/gptbot/prompt"
	"github.com/bdobrica/gptbot/internal/gptbot/reply"
	"github.com/bdobrica/gptbot/internal/gptbot/store"
)

// ErrDisconnected is returned by Handle when the connection is lost.
var ErrDisconnected = errors.New("bot: disconnected from server")

// Transport is the outbound side of the IRC connection.
type Transport interface {
	Join(channel string) error
	Names(channel string) error
	Nick(nick string) error
	Privmsg(target, text string) error
	// CurrentNick is the nickname the connection is registered under.
	CurrentNick() string
}

// Ledger records one row per answered message. Failures are logged, never
// fatal.
type Ledger interface {
	RecordCompletion(ctx context.Context, c store.Completion) error
}

// Config configures a Bot.
type Config struct {
	// Channel is the single channel the bot lives in.
	Channel string
	// Nick is the desired nickname.
	Nick string
	// MaxPayload is the usable line length in bytes.
	MaxPayload int
	// BufferSize bounds the per-sender history.
	BufferSize int
	// Model names the completion model for token estimates and the ledger.
	Model string
	// Persona supplies prompt directives and apologies.
	Persona persona.Persona
	// Charset measures reply lengths. nil means UTF-8.
	Charset encoding.Encoding
	// Ledger is optional.
	Ledger Ledger
	// EstimateTokens sizes the prompt for logs and the ledger. Defaults to
	// llm.EstimateTokens.
	EstimateTokens func(model string, msgs []llm.Message) int
}

// Status is a point-in-time view of the bot for the status endpoint.
type Status struct {
	Nick         string   `json:"nick"`
	Channel      string   `json:"channel"`
	Connected    bool     `json:"connected"`
	Participants []string `json:"participants"`
	Senders      int      `json:"senders"`
	Ambient      int      `json:"ambient"`
	Answered     int      `json:"answered"`
}

type handlerFunc func(ctx context.Context, ev Event) error

// Bot reacts to connection events.
type Bot struct {
	cfg       Config
	transport Transport
	provider  llm.Provider
	fallbacks llm.Fallbacks
	shaper    *reply.Shaper

	history  *history.Store
	registry *nicks.Registry

	// nick is the bot's own nickname as far as the conversation is
	// concerned. It follows collisions and confirmed renames.
	nick      string
	connected bool
	answered  int

	handlers map[EventKind]handlerFunc
	status   atomic.Pointer[Status]
}

// New returns a bot talking through t and answering with p.
func New(cfg Config, t Transport, p llm.Provider) *Bot {
	if cfg.MaxPayload <= 0 {
		cfg.MaxPayload = prompt.DefaultMaxPayload
	}
	if cfg.EstimateTokens == nil {
		cfg.EstimateTokens = llm.EstimateTokens
	}
	b := &Bot{
		cfg:       cfg,
		transport: t,
		provider:  p,
		fallbacks: llm.FallbacksFrom(cfg.Persona),
		shaper:    reply.NewShaper(cfg.Charset),
		history:   history.NewStore(cfg.BufferSize),
		registry:  nicks.NewRegistry(),
		nick:      cfg.Nick,
	}
	b.handlers = map[EventKind]handlerFunc{
		EventWelcome:    b.onWelcome,
		EventJoin:       b.onJoin,
		EventNames:      b.onNames,
		EventMessage:    b.onMessage,
		EventNick:       b.onNick,
		EventNickInUse:  b.onNickInUse,
		EventDisconnect: b.onDisconnect,
	}
	b.publish()
	return b
}

// Handle dispatches one event. A non-nil error is fatal for the session.
func (b *Bot) Handle(ctx context.Context, ev Event) error {
	h, ok := b.handlers[ev.Kind]
	if !ok {
		return nil
	}
	err := h(ctx, ev)
	b.publish()
	return err
}

// Status returns the latest published snapshot. Safe for concurrent use.
func (b *Bot) Status() Status {
	return *b.status.Load()
}

// Nick returns the bot's nickname. Only call from the event goroutine.
func (b *Bot) Nick() string { return b.nick }

func (b *Bot) publish() {
	b.status.Store(&Status{
		Nick:         b.nick,
		Channel:      b.cfg.Channel,
		Connected:    b.connected,
		Participants: b.registry.Sorted(),
		Senders:      b.history.Senders(),
		Ambient:      len(b.history.Ambient()),
		Answered:     b.answered,
	})
	metrics.SetParticipants(b.registry.Len())
}

func (b *Bot) onWelcome(_ context.Context, _ Event) error {
	b.connected = true
	if current := b.transport.CurrentNick(); current != "" {
		b.nick = current
	}
	metrics.SetConnected(true)
	slog.Info("registered with server", "nick", b.nick, "channel", b.cfg.Channel)
	if err := b.transport.Join(b.cfg.Channel); err != nil {
		return fmt.Errorf("join %s: %w", b.cfg.Channel, err)
	}
	return nil
}

func (b *Bot) onJoin(_ context.Context, ev Event) error {
	if !sameChannel(ev.Channel, b.cfg.Channel) {
		return nil
	}
	if ev.Nick != b.nick {
		b.registry.Ingest(ev.Nick)
		return nil
	}
	slog.Info("joined channel", "channel", ev.Channel, "nick", ev.Nick)
	b.registry.Reset()
	if err := b.transport.Names(b.cfg.Channel); err != nil {
		return fmt.Errorf("request names for %s: %w", b.cfg.Channel, err)
	}
	return nil
}

func (b *Bot) onNames(_ context.Context, ev Event) error {
	if !sameChannel(ev.Channel, b.cfg.Channel) {
		return nil
	}
	b.registry.Ingest(ev.Names...)
	slog.Debug("names received", "channel", ev.Channel, "count", len(ev.Names), "participants", b.registry.Len())
	return nil
}

func (b *Bot) onNick(_ context.Context, ev Event) error {
	if ev.NewNick == "" {
		return nil
	}
	if ev.Nick == b.nick {
		slog.Info("nickname changed", "from", b.nick, "to", ev.NewNick)
		b.nick = ev.NewNick
	}
	b.registry.Ingest(ev.NewNick)
	return nil
}

func (b *Bot) onNickInUse(_ context.Context, _ Event) error {
	// During registration the connection retries with a new nickname by
	// itself; adopt it rather than sending a second NICK.
	if !b.connected {
		if current := b.transport.CurrentNick(); current != "" && current != b.nick {
			slog.Warn("nickname in use", "nick", b.nick, "next", current)
			b.nick = current
			return nil
		}
	}
	next := b.nick + "_"
	slog.Warn("nickname in use", "nick", b.nick, "next", next)
	b.nick = next
	if err := b.transport.Nick(next); err != nil {
		return fmt.Errorf("change nick to %s: %w", next, err)
	}
	return nil
}

func (b *Bot) onDisconnect(_ context.Context, ev Event) error {
	b.connected = false
	metrics.SetConnected(false)
	slog.Warn("disconnected from server", "reason", ev.Text)
	if ev.Text != "" {
		return fmt.Errorf("%w: %s", ErrDisconnected, ev.Text)
	}
	return ErrDisconnected
}

func (b *Bot) onMessage(ctx context.Context, ev Event) error {
	if !sameChannel(ev.Channel, b.cfg.Channel) {
		return nil
	}
	if ev.Nick == b.nick {
		metrics.ObserveMessage(metrics.KindOwn)
		return nil
	}
	if !isDirected(ev.Text, b.nick) {
		metrics.ObserveMessage(metrics.KindAmbient)
		b.history.RecordAmbient(ev.Nick, ev.Text)
		return nil
	}
	metrics.ObserveMessage(metrics.KindDirected)
	return b.respond(ctx, ev.Nick, ev.Text)
}

// isDirected reports whether text starts or ends with nick. The match is
// case-sensitive and does not look for word boundaries.
func isDirected(text, nick string) bool {
	if nick == "" {
		return false
	}
	return strings.HasPrefix(text, nick) || strings.HasSuffix(text, nick)
}

func sameChannel(a, b string) bool {
	return strings.EqualFold(a, b)
}
