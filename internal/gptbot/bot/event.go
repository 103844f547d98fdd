package bot

// EventKind identifies a connection event the bot reacts to.
type EventKind int

const (
	// EventWelcome: registration with the server completed.
	EventWelcome EventKind = iota + 1
	// EventJoin: someone, possibly the bot, joined a channel.
	EventJoin
	// EventNames: a batch of channel membership tokens arrived.
	EventNames
	// EventMessage: a PRIVMSG was received.
	EventMessage
	// EventNick: someone, possibly the bot, changed nickname.
	EventNick
	// EventNickInUse: the server rejected our nickname.
	EventNickInUse
	// EventDisconnect: the connection is gone.
	EventDisconnect
)

func (k EventKind) String() string {
	switch k {
	case EventWelcome:
		return "welcome"
	case EventJoin:
		return "join"
	case EventNames:
		return "names"
	case EventMessage:
		return "message"
	case EventNick:
		return "nick"
	case EventNickInUse:
		return "nick_in_use"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is one decoded connection event. Which fields are set depends on
// Kind:
//
//	Join        Nick, Channel
//	Names       Channel, Names
//	Message     Nick, Channel, Text
//	Nick        Nick (old), NewNick
//	NickInUse   NewNick (the rejected nickname, when known)
//	Disconnect  Text (reason)
type Event struct {
	Kind    EventKind
	Nick    string
	NewNick string
	Channel string
	Text    string
	Names   []string
}
