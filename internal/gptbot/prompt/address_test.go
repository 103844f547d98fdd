package prompt

import "testing"

func TestStripAddress(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"comma", "Zorg, how are you?", "how are you?"},
		{"colon", "Zorg: hi", "hi"},
		{"lower case", "zorg: hi", "hi"},
		{"upper case", "ZORG hi", "hi"},
		{"several spaces", "Zorg,   hi", "hi"},
		{"no separator whitespace", "Zorg:hi", "Zorg:hi"},
		{"name only", "Zorg", "Zorg"},
		{"name at end", "how are you Zorg", "how are you Zorg"},
		{"interior", "hey Zorg, hi", "hey Zorg, hi"},
		{"longer word", "Zorgon is here", "Zorgon is here"},
		{"two punctuation", "Zorg,, hi", "Zorg,, hi"},
		{"multibyte rest", "Zorg: hyvää päivää", "hyvää päivää"},
		{"empty after address", "Zorg: ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripAddress(tt.message, "Zorg"); got != tt.want {
				t.Errorf("StripAddress(%q) = %q, want %q", tt.message, got, tt.want)
			}
		})
	}
}

func TestStripAddress_EmptyName(t *testing.T) {
	if got := StripAddress(" hi", ""); got != " hi" {
		t.Errorf("empty name must not strip anything, got %q", got)
	}
}

func TestBudget(t *testing.T) {
	tests := []struct {
		channel, nick string
		want          int
	}{
		{"#chan", "Zorg", 492 - (7 + 4 + 5 + 4)},
		{"#chan", "Zorg_", 492 - (7 + 4 + 5 + 5)},
	}
	for _, tt := range tests {
		if got := Budget(DefaultMaxPayload, tt.channel, tt.nick); got != tt.want {
			t.Errorf("Budget(%q, %q) = %d, want %d", tt.channel, tt.nick, got, tt.want)
		}
	}
	if got := Budget(10, "#a-very-long-channel", "nick"); got != 0 {
		t.Errorf("expected budget floor of 0, got %d", got)
	}
}
