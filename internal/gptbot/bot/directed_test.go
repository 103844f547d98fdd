package bot

import "testing"

func TestIsDirected(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Zorg, how are you?", true},
		{"how are you Zorg", true},
		{"Zorg", true},
		{"zorg, hello", false},
		{"I think Zorg is asleep.", false},
		{"Zorgon is here", true},
		{"", false},
	}
	for _, tt := range tests {
		if got := isDirected(tt.text, "Zorg"); got != tt.want {
			t.Errorf("isDirected(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
	if isDirected("anything", "") {
		t.Error("an empty nick never matches")
	}
}

func TestEventKindString(t *testing.T) {
	if got := EventNickInUse.String(); got != "nick_in_use" {
		t.Errorf("EventNickInUse.String() = %q", got)
	}
	if got := EventKind(99).String(); got != "unknown" {
		t.Errorf("EventKind(99).String() = %q", got)
	}
}
