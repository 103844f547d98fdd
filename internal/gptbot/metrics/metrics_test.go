package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := MessagesTotal
	Init()
	if MessagesTotal != first {
		t.Error("expected second Init to keep the registered collectors")
	}
	if CompletionDuration == nil || Participants == nil || Connected == nil {
		t.Fatal("expected all collectors to be initialized")
	}
}

func TestHelpersUpdateCollectors(t *testing.T) {
	Init()

	before := testutil.ToFloat64(MessagesTotal.WithLabelValues(KindDirected))
	ObserveMessage(KindDirected)
	if got := testutil.ToFloat64(MessagesTotal.WithLabelValues(KindDirected)); got != before+1 {
		t.Errorf("expected directed counter %v, got %v", before+1, got)
	}

	beforeOK := testutil.ToFloat64(CompletionsTotal.WithLabelValues("ok"))
	ObserveCompletion("ok", 250*time.Millisecond)
	if got := testutil.ToFloat64(CompletionsTotal.WithLabelValues("ok")); got != beforeOK+1 {
		t.Errorf("expected ok completions %v, got %v", beforeOK+1, got)
	}

	beforePrompt := testutil.ToFloat64(TokensTotal.WithLabelValues("prompt"))
	AddTokens(120, 30)
	if got := testutil.ToFloat64(TokensTotal.WithLabelValues("prompt")); got != beforePrompt+120 {
		t.Errorf("expected prompt tokens %v, got %v", beforePrompt+120, got)
	}

	SetParticipants(4)
	if got := testutil.ToFloat64(Participants); got != 4 {
		t.Errorf("expected 4 participants, got %v", got)
	}

	SetConnected(true)
	if got := testutil.ToFloat64(Connected); got != 1 {
		t.Errorf("expected connected=1, got %v", got)
	}
	SetConnected(false)
	if got := testutil.ToFloat64(Connected); got != 0 {
		t.Errorf("expected connected=0, got %v", got)
	}
}
