package history_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bdobrica/gptbot/internal/gptbot/history"
)

func TestStore_AmbientCapacity(t *testing.T) {
	s := history.NewStore(5)
	capacity := 5 + 5

	for i := 0; i <= capacity; i++ {
		s.RecordAmbient("bob", fmt.Sprintf("msg-%d", i))
	}

	got := s.Ambient()
	if len(got) != capacity {
		t.Fatalf("expected %d ambient entries, got %d", capacity, len(got))
	}
	if got[0].Text == "msg-0" {
		t.Error("oldest entry should have been evicted")
	}
	if last := got[len(got)-1]; last.Text != fmt.Sprintf("msg-%d", capacity) || last.Sender != "bob" {
		t.Errorf("expected newest entry to be present, got %+v", last)
	}
}

func TestStore_UserHistoryCapacities(t *testing.T) {
	s := history.NewStore(2)
	for i := 0; i < 10; i++ {
		s.RecordDirected("alice", fmt.Sprintf("q%d", i))
		s.RecordReply("alice", fmt.Sprintf("a%d", i))
	}

	user, assistant := s.Turns("alice")
	if diff := cmp.Diff([]string{"q7", "q8", "q9"}, user); diff != "" {
		t.Errorf("user messages mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a8", "a9"}, assistant); diff != "" {
		t.Errorf("assistant messages mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_UnknownSenderIsEmpty(t *testing.T) {
	s := history.NewStore(5)
	user, assistant := s.Turns("nobody")
	if user == nil || assistant == nil {
		t.Fatal("expected empty, non-nil slices")
	}
	if len(user) != 0 || len(assistant) != 0 {
		t.Errorf("expected no turns, got %v / %v", user, assistant)
	}
	if s.Senders() != 0 {
		t.Errorf("reading turns must not create a history record, got %d senders", s.Senders())
	}
}

func TestStore_SendersAreIsolated(t *testing.T) {
	s := history.NewStore(5)
	s.RecordDirected("alice", "hi from alice")
	s.RecordDirected("bob", "hi from bob")
	s.RecordReply("bob", "hello bob")

	aUser, aAssistant := s.Turns("alice")
	if len(aUser) != 1 || aUser[0] != "hi from alice" {
		t.Errorf("unexpected alice user turns: %v", aUser)
	}
	if len(aAssistant) != 0 {
		t.Errorf("alice should have no replies, got %v", aAssistant)
	}
	if s.Senders() != 2 {
		t.Errorf("expected 2 senders, got %d", s.Senders())
	}
}

func TestNewStore_NegativeBufferFallsBack(t *testing.T) {
	s := history.NewStore(-1)
	if s.BufferSize() != history.DefaultBufferSize {
		t.Errorf("expected default buffer size %d, got %d", history.DefaultBufferSize, s.BufferSize())
	}
}
