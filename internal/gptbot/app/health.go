package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bdobrica/gptbot/common/version"
	"github.com/bdobrica/gptbot/internal/gptbot/bot"
	"github.com/bdobrica/gptbot/internal/gptbot/store"
)

// HealthServer exposes /health, /status, and any additionally registered
// HTTP endpoints (e.g. /metrics).
// It is optional; the bot runs without it when HTTPAddr is empty.
type HealthServer struct {
	addr      string
	status    statusProvider
	startedAt time.Time
	server    *http.Server
	mux       *http.ServeMux
}

// statusProvider is the minimal interface the health server needs from App.
type statusProvider interface {
	BotStatus() (bot.Status, bool)
	LedgerTotals(ctx context.Context) (store.Totals, error)
}

// healthResponse is returned by GET /health.
type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// statusResponse is returned by GET /status.
type statusResponse struct {
	Status     string        `json:"status"`
	Version    string        `json:"version"`
	Commit     string        `json:"commit"`
	BuildTime  string        `json:"build_time"`
	StartedAt  time.Time     `json:"started_at"`
	UptimeSecs float64       `json:"uptime_seconds"`
	Bot        *bot.Status   `json:"bot,omitempty"`
	Ledger     *store.Totals `json:"ledger,omitempty"`
}

// NewHealthServer creates and configures the HTTP server (does not start it).
func NewHealthServer(addr string, sp statusProvider) *HealthServer {
	mux := http.NewServeMux()
	hs := &HealthServer{
		addr:      addr,
		status:    sp,
		startedAt: time.Now(),
		mux:       mux,
	}
	mux.HandleFunc("/health", hs.handleHealth)
	mux.HandleFunc("/status", hs.handleStatus)
	return hs
}

// ServeHTTP implements http.Handler so the server can be tested without a
// live network listener (e.g. with httptest.NewRecorder).
func (h *HealthServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// Handle registers a handler for the given URL pattern. Call this before
// Start.
func (h *HealthServer) Handle(pattern string, handler http.Handler) {
	h.mux.Handle(pattern, handler)
}

// Start begins listening in the background. Blocks until the listener is
// established so the caller knows the port is open before returning.
func (h *HealthServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("health server: listen %s: %w", h.addr, err)
	}

	h.server = &http.Server{
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("health server listening", "addr", ln.Addr().String())
		if err := h.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("health server stopped", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		h.Stop()
	}()

	return nil
}

// Stop shuts down the HTTP server.
func (h *HealthServer) Stop() {
	if h.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.server.Shutdown(ctx); err != nil {
		slog.Warn("health server shutdown error", "err", err)
	}
}

func (h *HealthServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: version.Version,
		Commit:  version.GitCommit,
	})
}

// handleStatus reports the bot's view of the channel and the ledger totals.
// Status is "connecting" until the server has welcomed the bot.
func (h *HealthServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Status:     "connecting",
		Version:    version.Version,
		Commit:     version.GitCommit,
		BuildTime:  version.BuildTime,
		StartedAt:  h.startedAt,
		UptimeSecs: time.Since(h.startedAt).Seconds(),
	}
	if h.status != nil {
		if st, ok := h.status.BotStatus(); ok {
			resp.Bot = &st
			if st.Connected {
				resp.Status = "ok"
			}
		}
		if totals, err := h.status.LedgerTotals(r.Context()); err == nil {
			resp.Ledger = &totals
		} else {
			slog.Warn("status: ledger totals unavailable", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON serialises v as JSON and writes it to w with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("health: failed to encode JSON response", "err", err)
	}
}
