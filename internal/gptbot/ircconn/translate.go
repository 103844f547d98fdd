package ircconn

import (
	"strings"

	"gopkg.in/irc.v4"

	"github.com/bdobrica/gptbot/internal/gptbot/bot"
)

// Numeric replies the bot reacts to.
const (
	rplWelcome         = "001"
	rplNamReply        = "353"
	errNicknameInUse   = "433"
	errUnavailResource = "437"
)

// channelPrefixes are the characters a channel name can start with.
const channelPrefixes = "#&+!"

// translate maps a protocol message onto a bot event. Messages the bot does
// not care about report false.
func translate(m *irc.Message) (bot.Event, bool) {
	last := func() string {
		if len(m.Params) == 0 {
			return ""
		}
		return m.Params[len(m.Params)-1]
	}
	source := ""
	if m.Prefix != nil {
		source = m.Prefix.Name
	}

	switch m.Command {
	case rplWelcome:
		return bot.Event{Kind: bot.EventWelcome}, true

	case "JOIN":
		if len(m.Params) == 0 {
			return bot.Event{}, false
		}
		return bot.Event{Kind: bot.EventJoin, Nick: source, Channel: m.Params[0]}, true

	case rplNamReply:
		// <me> [=*@] <channel> :<names>
		if len(m.Params) < 3 {
			return bot.Event{}, false
		}
		return bot.Event{
			Kind:    bot.EventNames,
			Channel: m.Params[len(m.Params)-2],
			Names:   strings.Fields(last()),
		}, true

	case "PRIVMSG":
		if len(m.Params) < 2 {
			return bot.Event{}, false
		}
		return bot.Event{Kind: bot.EventMessage, Nick: source, Channel: m.Params[0], Text: last()}, true

	case "NICK":
		if len(m.Params) == 0 {
			return bot.Event{}, false
		}
		return bot.Event{Kind: bot.EventNick, Nick: source, NewNick: m.Params[0]}, true

	case errNicknameInUse, errUnavailResource:
		ev := bot.Event{Kind: bot.EventNickInUse}
		if len(m.Params) >= 2 {
			ev.NewNick = m.Params[1]
		}
		// 437 also reports a channel that cannot be joined yet.
		if m.Command == errUnavailResource && isChannel(ev.NewNick) {
			return bot.Event{}, false
		}
		return ev, true

	case "ERROR":
		return bot.Event{Kind: bot.EventDisconnect, Text: last()}, true
	}
	return bot.Event{}, false
}

func isChannel(name string) bool {
	return name != "" && strings.ContainsRune(channelPrefixes, rune(name[0]))
}
