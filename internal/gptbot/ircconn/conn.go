// Package ircconn connects the bot to an IRC server. It owns the socket and
// the protocol client, turns inbound protocol messages into bot events, and
// implements the bot's outbound Transport.
package ircconn

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding"
	"gopkg.in/irc.v4"

	"github.com/bdobrica/gptbot/internal/gptbot/bot"
)

const (
	DefaultServer = "irc.elisa.fi"
	DefaultPort   = 6667

	defaultDialTimeout = 30 * time.Second
)

// Config configures the connection.
type Config struct {
	Server   string
	Port     int
	TLS      bool
	Password string
	Nick     string
	// User and Name default to Nick.
	User string
	Name string
	// Charset is the wire encoding. nil means UTF-8.
	Charset     encoding.Encoding
	DialTimeout time.Duration
	// PingFrequency enables client-side keepalive pings when non-zero.
	PingFrequency time.Duration
	PingTimeout   time.Duration
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

// Handler receives decoded events on the connection's read goroutine. A
// returned error ends the session.
type Handler func(ctx context.Context, ev bot.Event) error

// Conn is one IRC session. It satisfies bot.Transport.
type Conn struct {
	rwc    io.ReadWriteCloser
	client *irc.Client

	mu       sync.Mutex
	dispatch func(bot.Event)
}

var _ bot.Transport = (*Conn)(nil)

// Dial opens the socket (TLS when configured) and prepares the session.
// Registration starts when Run is called.
func Dial(ctx context.Context, cfg Config) (*Conn, error) {
	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}

	dialer := &net.Dialer{Timeout: cfg.DialTimeout}
	var (
		conn net.Conn
		err  error
	)
	if cfg.TLS {
		tlsDialer := &tls.Dialer{
			NetDialer: dialer,
			Config:    &tls.Config{ServerName: cfg.Server, MinVersion: tls.VersionTLS12},
		}
		conn, err = tlsDialer.DialContext(ctx, "tcp", cfg.Addr())
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", cfg.Addr())
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", cfg.Addr(), err)
	}
	slog.Info("connected to IRC server", "addr", cfg.Addr(), "tls", cfg.TLS)
	return newConn(conn, cfg), nil
}

// newConn wraps an established connection.
func newConn(rwc io.ReadWriteCloser, cfg Config) *Conn {
	if cfg.User == "" {
		cfg.User = cfg.Nick
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Nick
	}
	c := &Conn{rwc: withCharset(rwc, cfg.Charset)}
	c.client = irc.NewClient(c.rwc, irc.ClientConfig{
		Nick:          cfg.Nick,
		Pass:          cfg.Password,
		User:          cfg.User,
		Name:          cfg.Name,
		PingFrequency: cfg.PingFrequency,
		PingTimeout:   cfg.PingTimeout,
		Handler:       irc.HandlerFunc(c.onMessage),
	})
	return c
}

// Run registers with the server and feeds events to h until the connection
// drops, h fails, or ctx is cancelled. A lost connection is reported to h
// as an EventDisconnect; Run then returns h's error. Cancelling ctx returns
// nil.
func (c *Conn) Run(ctx context.Context, h Handler) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		fatalMu sync.Mutex
		fatal   error
	)
	failed := func() error {
		fatalMu.Lock()
		defer fatalMu.Unlock()
		return fatal
	}
	dispatch := func(ev bot.Event) {
		if runCtx.Err() != nil {
			return
		}
		if err := h(runCtx, ev); err != nil {
			fatalMu.Lock()
			if fatal == nil {
				fatal = err
			}
			fatalMu.Unlock()
			cancel()
		}
	}
	c.mu.Lock()
	c.dispatch = dispatch
	c.mu.Unlock()

	go func() {
		<-runCtx.Done()
		c.rwc.Close()
	}()

	err := c.client.RunContext(runCtx)

	if ferr := failed(); ferr != nil {
		return ferr
	}
	if ctx.Err() != nil {
		return nil
	}

	reason := "connection closed"
	if err != nil && !errors.Is(err, io.EOF) {
		reason = err.Error()
	}
	dispatch(bot.Event{Kind: bot.EventDisconnect, Text: reason})
	if ferr := failed(); ferr != nil {
		return ferr
	}
	return fmt.Errorf("irc session ended: %s", reason)
}

// Close tears down the socket.
func (c *Conn) Close() error {
	return c.rwc.Close()
}

func (c *Conn) onMessage(_ *irc.Client, m *irc.Message) {
	ev, ok := translate(m)
	if !ok {
		return
	}
	c.mu.Lock()
	dispatch := c.dispatch
	c.mu.Unlock()
	if dispatch != nil {
		dispatch(ev)
	}
}

// Join requests channel membership.
func (c *Conn) Join(channel string) error {
	return c.client.WriteMessage(&irc.Message{Command: "JOIN", Params: []string{channel}})
}

// Names requests the channel membership list.
func (c *Conn) Names(channel string) error {
	return c.client.WriteMessage(&irc.Message{Command: "NAMES", Params: []string{channel}})
}

// Nick requests a nickname change.
func (c *Conn) Nick(nick string) error {
	return c.client.WriteMessage(&irc.Message{Command: "NICK", Params: []string{nick}})
}

// Privmsg sends one line of text to target. Line breaks must already have
// been removed.
func (c *Conn) Privmsg(target, text string) error {
	if strings.ContainsAny(text, "\r\n") {
		return fmt.Errorf("privmsg to %s: text contains a line break", target)
	}
	return c.client.WriteMessage(&irc.Message{Command: "PRIVMSG", Params: []string{target, text}})
}

// CurrentNick returns the nickname the server knows us by.
func (c *Conn) CurrentNick() string {
	return c.client.CurrentNick()
}
