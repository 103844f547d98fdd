// Package reply makes completion output safe to send as a single IRC line.
package reply

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	xunicode "golang.org/x/text/encoding/unicode"
)

// LookupCharset resolves a wire charset name such as "utf-8",
// "iso-8859-15" or "windows-1252". UTF-8 (and the empty name) resolves to a
// nil Encoding, meaning strings go on the wire unchanged.
func LookupCharset(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown charset %q: %w", name, err)
	}
	if enc == xunicode.UTF8 {
		return nil, nil
	}
	return enc, nil
}

// Shaper sanitizes and truncates replies. The zero value shapes for UTF-8.
type Shaper struct {
	enc encoding.Encoding
}

// NewShaper returns a Shaper measuring lengths in enc. A nil enc means UTF-8.
func NewShaper(enc encoding.Encoding) *Shaper {
	return &Shaper{enc: enc}
}

// Shape turns raw completion text into a reply line for selfName:
//   - surrounding whitespace is trimmed, CR is dropped and LF becomes a space;
//   - a leading "selfName:" echo (any case, followed by whitespace) is removed;
//   - the text is cut to at most budget encoded bytes on a character boundary.
//
// Shape never fails; the worst case is an empty string.
func (s *Shaper) Shape(raw, selfName string, budget int) string {
	out, _ := s.ShapeReport(raw, selfName, budget)
	return out
}

// ShapeReport is Shape that also reports whether the text had to be cut.
func (s *Shaper) ShapeReport(raw, selfName string, budget int) (string, bool) {
	text := strings.TrimSpace(raw)
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\n", " ")
	text = stripSelfEcho(text, selfName)
	out := s.Truncate(text, budget)
	return out, len(out) < len(text)
}

// Truncate cuts text to at most budget encoded bytes without leaving a
// partial character behind.
func (s *Shaper) Truncate(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if s == nil || s.enc == nil {
		return truncateUTF8(text, budget)
	}
	return s.truncateEncoded(text, budget)
}

func truncateUTF8(text string, budget int) string {
	text = strings.ToValidUTF8(text, "")
	if len(text) <= budget {
		return text
	}
	cut := text[:budget]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// truncateEncoded keeps whole runes while their encoded size fits. Runes the
// charset cannot represent are counted at the size of their replacement.
func (s *Shaper) truncateEncoded(text string, budget int) string {
	enc := encoding.ReplaceUnsupported(s.enc.NewEncoder())
	var b strings.Builder
	used := 0
	for _, r := range text {
		size := 1
		if e, err := enc.String(string(r)); err == nil {
			size = len(e)
		}
		if used+size > budget {
			break
		}
		used += size
		b.WriteRune(r)
	}
	return b.String()
}

// stripSelfEcho removes a leading "name:" plus the whitespace after it, the
// way models sometimes start a reply by addressing themselves.
func stripSelfEcho(text, name string) string {
	if name == "" || len(text) <= len(name) || !strings.EqualFold(text[:len(name)], name) {
		return text
	}
	rest := text[len(name):]
	if !strings.HasPrefix(rest, ":") {
		return text
	}
	rest = rest[1:]
	trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
	if len(trimmed) == len(rest) {
		return text
	}
	return trimmed
}
