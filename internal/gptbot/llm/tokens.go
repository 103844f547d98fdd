package llm

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// bpeFetchTimeout bounds the download of a BPE rank file.
	bpeFetchTimeout = 30 * time.Second
	// retryLoadAfter is how long a failed load is remembered before the
	// next estimate tries again.
	retryLoadAfter = time.Minute
)

var (
	encoders sync.Map // model -> *encoderSlot

	// loadEncoder builds the encoder for a model. It may block on network
	// I/O and is only ever called off the request path.
	loadEncoder = func(model string) (*tiktoken.Tiktoken, error) {
		tkm, err := tiktoken.EncodingForModel(model)
		if err != nil {
			tkm, err = tiktoken.GetEncoding("cl100k_base")
		}
		return tkm, err
	}
)

func init() {
	tiktoken.SetBpeLoader(&bpeLoader{client: &http.Client{Timeout: bpeFetchTimeout}})
}

// encoderSlot holds the encoder for one model once it has loaded.
type encoderSlot struct {
	tkm      atomic.Pointer[tiktoken.Tiktoken]
	loading  atomic.Bool
	failedAt atomic.Int64
}

func slotFor(model string) *encoderSlot {
	v, _ := encoders.LoadOrStore(model, &encoderSlot{})
	return v.(*encoderSlot)
}

// load runs loadEncoder unless another load is already in flight. It
// reports whether an encoder is available afterwards.
func (s *encoderSlot) load(model string) bool {
	if s.tkm.Load() != nil {
		return true
	}
	if !s.loading.CompareAndSwap(false, true) {
		return false
	}
	defer s.loading.Store(false)

	tkm, err := loadEncoder(model)
	if err != nil || tkm == nil {
		s.failedAt.Store(time.Now().UnixNano())
		slog.Debug("llm: tokenizer unavailable; using character heuristic", "model", model, "err", err)
		return false
	}
	s.tkm.Store(tkm)
	return true
}

// loadInBackground starts a load unless one is running or the last
// failure is too recent.
func (s *encoderSlot) loadInBackground(model string) {
	if s.loading.Load() {
		return
	}
	if failed := s.failedAt.Load(); failed != 0 && time.Since(time.Unix(0, failed)) < retryLoadAfter {
		return
	}
	go s.load(model)
}

// EstimateTokens estimates the prompt size of msgs for model. It never
// waits for the tokenizer: until the encoder has loaded, the character
// heuristic is used and a load is started in the background. The estimate
// is only used for logging and the usage ledger; the service's own count is
// authoritative.
func EstimateTokens(model string, msgs []Message) int {
	s := slotFor(model)
	tkm := s.tkm.Load()
	if tkm == nil {
		s.loadInBackground(model)
	}
	return estimateWith(tkm, msgs)
}

// HeuristicTokens estimates without a tokenizer, at about four characters
// per token.
func HeuristicTokens(_ string, msgs []Message) int {
	return estimateWith(nil, msgs)
}

// WarmTokenizer loads the encoder for model so that estimates can use it.
// It blocks for the duration of the load and reports whether an encoder is
// available.
func WarmTokenizer(model string) bool {
	return slotFor(model).load(model)
}

func estimateWith(tkm *tiktoken.Tiktoken, msgs []Message) int {
	const (
		perMessageOverhead = 3 // role framing
		replyPriming       = 3
		charsPerToken      = 4
	)
	if len(msgs) == 0 {
		return 0
	}
	total := replyPriming
	for _, m := range msgs {
		total += perMessageOverhead
		if tkm != nil {
			total += len(tkm.Encode(m.Content, nil, nil)) + len(tkm.Encode(string(m.Role), nil, nil))
			continue
		}
		total += len(m.Content)/charsPerToken + 1
	}
	return total
}

// bpeLoader reads BPE rank files like tiktoken's default loader, sharing
// its on-disk cache, but downloads through a client with a timeout.
type bpeLoader struct {
	client *http.Client
}

func (l *bpeLoader) LoadTiktokenBpe(file string) (map[string]int, error) {
	contents, err := l.readCached(file)
	if err != nil {
		return nil, err
	}
	ranks := make(map[string]int)
	for _, line := range strings.Split(string(contents), "\n") {
		if line == "" {
			continue
		}
		token, rank, ok := strings.Cut(line, " ")
		if !ok {
			return nil, fmt.Errorf("malformed bpe line %q", line)
		}
		raw, err := base64.StdEncoding.DecodeString(token)
		if err != nil {
			return nil, fmt.Errorf("decode bpe token: %w", err)
		}
		n, err := strconv.Atoi(strings.TrimSpace(rank))
		if err != nil {
			return nil, fmt.Errorf("parse bpe rank: %w", err)
		}
		ranks[string(raw)] = n
	}
	return ranks, nil
}

func (l *bpeLoader) readCached(file string) ([]byte, error) {
	if !strings.HasPrefix(file, "http://") && !strings.HasPrefix(file, "https://") {
		return os.ReadFile(file)
	}

	dir := strings.TrimSpace(os.Getenv("TIKTOKEN_CACHE_DIR"))
	if dir == "" {
		dir = strings.TrimSpace(os.Getenv("DATA_GYM_CACHE_DIR"))
	}
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "data-gym-cache")
	}
	path := filepath.Join(dir, fmt.Sprintf("%x", sha1.Sum([]byte(file))))
	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	}

	resp, err := l.client.Get(file)
	if err != nil {
		return nil, fmt.Errorf("fetch bpe ranks: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch bpe ranks: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch bpe ranks: %w", err)
	}

	// A failed cache write only costs a download next time.
	if err := os.MkdirAll(dir, 0o755); err == nil {
		tmp := path + ".tmp"
		if err := os.WriteFile(tmp, data, 0o644); err == nil {
			if err := os.Rename(tmp, path); err != nil {
				_ = os.Remove(tmp)
			}
		}
	}
	return data, nil
}
