package bot_test

import (
	"context"
	"errors"

	"github.com/bdobrica/gptbot/internal/gptbot/llm"
	"github.com/bdobrica/gptbot/internal/gptbot/store"
)

type sentLine struct {
	Target string
	Text   string
}

type fakeTransport struct {
	nick    string
	joined  []string
	names   []string
	nicks   []string
	sent    []sentLine
	sendErr error
}

func (f *fakeTransport) Join(channel string) error {
	f.joined = append(f.joined, channel)
	return nil
}

func (f *fakeTransport) Names(channel string) error {
	f.names = append(f.names, channel)
	return nil
}

func (f *fakeTransport) Nick(nick string) error {
	f.nicks = append(f.nicks, nick)
	return nil
}

func (f *fakeTransport) Privmsg(target, text string) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, sentLine{Target: target, Text: text})
	return nil
}

func (f *fakeTransport) CurrentNick() string { return f.nick }

// fakeProvider answers from a queue of canned results. An empty queue
// answers "ok".
type fakeProvider struct {
	results  []fakeResult
	requests []llm.Request
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (*llm.Response, error) {
	f.requests = append(f.requests, req)
	res := fakeResult{text: "ok"}
	if len(f.results) > 0 {
		res, f.results = f.results[0], f.results[1:]
	}
	if res.err != nil {
		return nil, res.err
	}
	return &llm.Response{
		Text:  res.text,
		Model: "gpt-test",
		Usage: llm.TokenUsage{PromptTokens: 100, CompletionTokens: 10, TotalTokens: 110},
	}, nil
}

func (f *fakeProvider) lastRequest() llm.Request {
	if len(f.requests) == 0 {
		return llm.Request{}
	}
	return f.requests[len(f.requests)-1]
}

type fakeLedger struct {
	entries []store.Completion
	err     error
}

func (f *fakeLedger) RecordCompletion(_ context.Context, c store.Completion) error {
	f.entries = append(f.entries, c)
	return f.err
}

var errBoom = errors.New("boom")
