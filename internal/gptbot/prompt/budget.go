package prompt

// DefaultMaxPayload is the usable size of an IRC line once the server has
// prefixed it with the sender's full hostmask.
const DefaultMaxPayload = 492

// commandOverhead is the framing around a PRIVMSG: the keyword, the spaces
// between fields, the ':' before the text and the trailing CRLF.
const commandOverhead = len("PRIVMSG") + 4

// Budget returns how many encoded bytes of reply text fit in one PRIVMSG to
// channel sent by nick. The nick can change after a collision rename, so
// callers recompute this for every send. The result is never negative.
func Budget(maxPayload int, channel, nick string) int {
	return max(maxPayload-(commandOverhead+len(channel)+len(nick)), 0)
}
