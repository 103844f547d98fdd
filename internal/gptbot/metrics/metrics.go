// Package metrics exposes the bot's Prometheus metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Message kinds.
const (
	KindAmbient  = "ambient"
	KindDirected = "directed"
	KindOwn      = "own"
)

var (
	once sync.Once

	// MessagesTotal counts channel messages by kind.
	MessagesTotal *prometheus.CounterVec
	// CompletionsTotal counts completion attempts by outcome.
	CompletionsTotal *prometheus.CounterVec
	// TokensTotal counts tokens reported by the service, by direction.
	TokensTotal *prometheus.CounterVec
	// TruncatedReplies counts replies cut to fit the line budget.
	TruncatedReplies prometheus.Counter

	// CompletionDuration observes completion round trips in seconds.
	CompletionDuration prometheus.Observer

	// Participants is the current size of the channel nickname registry.
	Participants prometheus.Gauge
	// Connected is 1 while registered with the server.
	Connected prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "gptbot_messages_total", Help: "Channel messages seen, by kind"}, []string{"kind"})
		CompletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "gptbot_completions_total", Help: "Completion attempts, by outcome"}, []string{"outcome"})
		TokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{Name: "gptbot_tokens_total", Help: "Tokens reported by the completion service"}, []string{"direction"})
		TruncatedReplies = promauto.NewCounter(prometheus.CounterOpts{Name: "gptbot_replies_truncated_total", Help: "Replies truncated to the line budget"})
		CompletionDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "gptbot_completion_duration_seconds", Help: "Completion round trip seconds", Buckets: prometheus.DefBuckets})
		Participants = promauto.NewGauge(prometheus.GaugeOpts{Name: "gptbot_participants", Help: "Known channel participants"})
		Connected = promauto.NewGauge(prometheus.GaugeOpts{Name: "gptbot_connected", Help: "Registered with the IRC server=1"})
	})
}

// ObserveMessage counts one channel message of kind.
func ObserveMessage(kind string) {
	if MessagesTotal != nil {
		MessagesTotal.WithLabelValues(kind).Inc()
	}
}

// ObserveCompletion records one completion attempt.
func ObserveCompletion(outcome string, d time.Duration) {
	if CompletionsTotal != nil {
		CompletionsTotal.WithLabelValues(outcome).Inc()
	}
	if CompletionDuration != nil {
		CompletionDuration.Observe(d.Seconds())
	}
}

// AddTokens adds the service-reported usage.
func AddTokens(prompt, completion int) {
	if TokensTotal == nil {
		return
	}
	TokensTotal.WithLabelValues("prompt").Add(float64(prompt))
	TokensTotal.WithLabelValues("completion").Add(float64(completion))
}

// ObserveTruncation counts a truncated reply.
func ObserveTruncation() {
	if TruncatedReplies != nil {
		TruncatedReplies.Inc()
	}
}

// SetParticipants records the registry size.
func SetParticipants(n int) {
	if Participants != nil {
		Participants.Set(float64(n))
	}
}

// SetConnected sets the connection gauge.
func SetConnected(up bool) {
	if Connected == nil {
		return
	}
	if up {
		Connected.Set(1)
	} else {
		Connected.Set(0)
	}
}
