package llm

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

// stubLoader replaces loadEncoder for the duration of a test.
func stubLoader(t *testing.T, fn func(model string) (*tiktoken.Tiktoken, error)) {
	t.Helper()
	prev := loadEncoder
	loadEncoder = fn
	t.Cleanup(func() { loadEncoder = prev })
}

func TestEstimateTokens_DoesNotWaitForLoad(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	stubLoader(t, func(string) (*tiktoken.Tiktoken, error) {
		started <- struct{}{}
		<-release
		return nil, errors.New("offline")
	})
	defer close(release)

	msgs := []Message{{Role: RoleUser, Content: "how are you?"}}
	done := make(chan int, 1)
	go func() { done <- EstimateTokens("stalled-model", msgs) }()

	select {
	case got := <-done:
		if want := HeuristicTokens("", msgs); got != want {
			t.Errorf("EstimateTokens() = %d, want heuristic %d", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("EstimateTokens blocked on a stalled tokenizer load")
	}

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("expected a background load to start")
	}

	// A second estimate while the load is still stalled is just as quick.
	go func() { done <- EstimateTokens("stalled-model", msgs) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second EstimateTokens blocked on a stalled tokenizer load")
	}
}

func TestWarmTokenizer_RetriesAfterFailure(t *testing.T) {
	calls := make(chan struct{}, 4)
	stubLoader(t, func(string) (*tiktoken.Tiktoken, error) {
		calls <- struct{}{}
		return nil, errors.New("offline")
	})

	if WarmTokenizer("flaky-model") {
		t.Fatal("expected WarmTokenizer to report no encoder")
	}
	if WarmTokenizer("flaky-model") {
		t.Fatal("expected WarmTokenizer to report no encoder")
	}
	if len(calls) != 2 {
		t.Errorf("expected a failed load to be retried, got %d loads", len(calls))
	}
}

func TestBpeLoader(t *testing.T) {
	t.Setenv("TIKTOKEN_CACHE_DIR", t.TempDir())

	// "YQ==" is "a", "Yg==" is "b".
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("YQ== 0\nYg== 1\n"))
	}))
	loader := &bpeLoader{client: srv.Client()}

	ranks, err := loader.LoadTiktokenBpe(srv.URL + "/test.tiktoken")
	if err != nil {
		t.Fatalf("LoadTiktokenBpe() error: %v", err)
	}
	if ranks["a"] != 0 || ranks["b"] != 1 || len(ranks) != 2 {
		t.Errorf("unexpected ranks: %v", ranks)
	}

	// The second load is served from the cache.
	srv.Close()
	if _, err := loader.LoadTiktokenBpe(srv.URL + "/test.tiktoken"); err != nil {
		t.Errorf("expected cached ranks after server shutdown, got %v", err)
	}

	local := filepath.Join(t.TempDir(), "local.tiktoken")
	if err := os.WriteFile(local, []byte("YQ== 7\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	ranks, err = loader.LoadTiktokenBpe(local)
	if err != nil || ranks["a"] != 7 {
		t.Errorf("local file: ranks=%v err=%v", ranks, err)
	}
}

func TestBpeLoader_Timeout(t *testing.T) {
	t.Setenv("TIKTOKEN_CACHE_DIR", t.TempDir())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	loader := &bpeLoader{client: &http.Client{Timeout: 50 * time.Millisecond}}
	start := time.Now()
	if _, err := loader.LoadTiktokenBpe(srv.URL + "/slow.tiktoken"); err == nil {
		t.Fatal("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("fetch was not bounded, took %s", elapsed)
	}
}
