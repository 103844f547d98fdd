package prompt

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// StripAddress removes a leading address to the bot from message: name
// (compared case-insensitively), at most one punctuation or symbol character,
// then one or more whitespace characters. "Zorg, how are you?" becomes
// "how are you?". A message that does not start that way is returned
// unchanged.
func StripAddress(message, name string) string {
	if name == "" || len(message) < len(name) {
		return message
	}
	if !strings.EqualFold(message[:len(name)], name) {
		return message
	}

	rest := message[len(name):]
	if r, size := utf8.DecodeRuneInString(rest); size > 0 && (unicode.IsPunct(r) || unicode.IsSymbol(r)) {
		rest = rest[size:]
	}
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if len(trimmed) == len(rest) {
		return message
	}
	return trimmed
}
