package ircconn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/irc.v4"

	"github.com/bdobrica/gptbot/internal/gptbot/bot"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		line string
		want bot.Event
		ok   bool
	}{
		{
			name: "welcome",
			line: ":irc.test 001 Zorg :Welcome to the network",
			want: bot.Event{Kind: bot.EventWelcome},
			ok:   true,
		},
		{
			name: "join",
			line: ":Zorg!zorg@example.org JOIN #test",
			want: bot.Event{Kind: bot.EventJoin, Nick: "Zorg", Channel: "#test"},
			ok:   true,
		},
		{
			name: "names",
			line: ":irc.test 353 Zorg = #test :@Zorg +Alice Bob_",
			want: bot.Event{Kind: bot.EventNames, Channel: "#test", Names: []string{"@Zorg", "+Alice", "Bob_"}},
			ok:   true,
		},
		{
			name: "channel message",
			line: ":Alice!alice@example.org PRIVMSG #test :Zorg, how are you?",
			want: bot.Event{Kind: bot.EventMessage, Nick: "Alice", Channel: "#test", Text: "Zorg, how are you?"},
			ok:   true,
		},
		{
			name: "nick change",
			line: ":Alice!alice@example.org NICK Alicia",
			want: bot.Event{Kind: bot.EventNick, Nick: "Alice", NewNick: "Alicia"},
			ok:   true,
		},
		{
			name: "nick in use",
			line: ":irc.test 433 * Zorg :Nickname is already in use",
			want: bot.Event{Kind: bot.EventNickInUse, NewNick: "Zorg"},
			ok:   true,
		},
		{
			name: "nick temporarily unavailable",
			line: ":irc.test 437 * Zorg :Nick/channel is temporarily unavailable",
			want: bot.Event{Kind: bot.EventNickInUse, NewNick: "Zorg"},
			ok:   true,
		},
		{
			name: "channel temporarily unavailable",
			line: ":irc.test 437 Zorg #test :Nick/channel is temporarily unavailable",
			ok:   false,
		},
		{
			name: "error",
			line: "ERROR :Closing Link: example.org (Ping timeout)",
			want: bot.Event{Kind: bot.EventDisconnect, Text: "Closing Link: example.org (Ping timeout)"},
			ok:   true,
		},
		{
			name: "ignored notice",
			line: ":irc.test NOTICE * :*** Looking up your hostname",
			ok:   false,
		},
		{
			name: "malformed privmsg",
			line: ":Alice!alice@example.org PRIVMSG #test",
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := irc.ParseMessage(tt.line)
			if err != nil {
				t.Fatalf("ParseMessage(%q): %v", tt.line, err)
			}
			got, ok := translate(m)
			if ok != tt.ok {
				t.Fatalf("translate() ok = %v, want %v", ok, tt.ok)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("translate() (-want +got):\n%s", diff)
			}
		})
	}
}
