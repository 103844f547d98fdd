// Package history keeps the bot's conversational memory: a shared buffer of
// ambient channel chatter and, per sender, the most recent directed messages
// and the bot's replies to them. All buffers are bounded; the oldest entry is
// dropped when a new one arrives at capacity. Nothing survives a restart.
package history

// DefaultBufferSize is the rolling-history capacity used when none is
// configured.
const DefaultBufferSize = 5

// Ambient is a channel message that was not addressed to the bot.
type Ambient struct {
	Sender string
	Text   string
}

// UserHistory holds one sender's alternating turns. userMessages keeps one
// more entry than assistantMessages so the message currently being answered
// always fits alongside a full set of previous replies.
type UserHistory struct {
	userMessages      *Ring[string]
	assistantMessages *Ring[string]
}

// Store is the bounded history for a single channel.
//
// Store is not safe for concurrent use; the bot handles one event at a time.
type Store struct {
	bufferSize int
	ambient    *Ring[Ambient]
	users      map[string]*UserHistory
}

// NewStore creates a Store whose per-sender buffers hold bufferSize replies
// (bufferSize+1 user messages) and whose ambient buffer holds bufferSize+5
// messages. bufferSize < 0 falls back to DefaultBufferSize.
func NewStore(bufferSize int) *Store {
	if bufferSize < 0 {
		bufferSize = DefaultBufferSize
	}
	return &Store{
		bufferSize: bufferSize,
		ambient:    NewRing[Ambient](bufferSize + 5),
		users:      make(map[string]*UserHistory),
	}
}

// BufferSize returns the configured rolling-history capacity.
func (s *Store) BufferSize() int { return s.bufferSize }

// RecordAmbient appends a message not directed at the bot.
func (s *Store) RecordAmbient(sender, text string) {
	s.ambient.Push(Ambient{Sender: sender, Text: text})
}

// RecordDirected appends a message the sender addressed to the bot.
func (s *Store) RecordDirected(sender, text string) {
	s.historyFor(sender).userMessages.Push(text)
}

// RecordReply appends the bot's reply to sender.
func (s *Store) RecordReply(sender, text string) {
	s.historyFor(sender).assistantMessages.Push(text)
}

// Ambient returns the ambient buffer, oldest first.
func (s *Store) Ambient() []Ambient {
	return s.ambient.Items()
}

// Turns returns copies of sender's user messages and assistant replies,
// oldest first. An unknown sender yields two empty slices.
func (s *Store) Turns(sender string) (user, assistant []string) {
	h, ok := s.users[sender]
	if !ok {
		return []string{}, []string{}
	}
	return h.userMessages.Items(), h.assistantMessages.Items()
}

// Senders returns the number of senders with a history record.
func (s *Store) Senders() int { return len(s.users) }

// historyFor returns sender's history, creating it on first use.
func (s *Store) historyFor(sender string) *UserHistory {
	h, ok := s.users[sender]
	if !ok {
		h = &UserHistory{
			userMessages:      NewRing[string](s.bufferSize + 1),
			assistantMessages: NewRing[string](s.bufferSize),
		}
		s.users[sender] = h
	}
	return h
}
