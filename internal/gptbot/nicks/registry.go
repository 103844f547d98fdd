// Package nicks tracks who is present on the bot's channel.
package nicks

import (
	"sort"
	"strings"
)

// Normalize strips IRC membership prefixes (@ for operators, + for voiced
// users) and the trailing underscores clients append when their preferred
// nick is taken. Case is preserved.
func Normalize(token string) string {
	return strings.TrimRight(strings.TrimLeft(token, "@+"), "_")
}

// Registry is the deduplicated set of normalized participant nicknames.
type Registry struct {
	names map[string]struct{}
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// Ingest normalizes and adds every token from a membership listing.
// Re-adding a known name is a no-op. Tokens that normalize to "" are skipped.
func (r *Registry) Ingest(tokens ...string) {
	for _, tok := range tokens {
		name := Normalize(tok)
		if name == "" {
			continue
		}
		r.names[name] = struct{}{}
	}
}

// Reset forgets every name. Called before the listing is rebuilt on rejoin.
func (r *Registry) Reset() {
	clear(r.names)
}

// Contains reports whether the normalized form of name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.names[Normalize(name)]
	return ok
}

// Len returns the number of distinct names.
func (r *Registry) Len() int { return len(r.names) }

// Sorted returns the names in lexicographic order.
func (r *Registry) Sorted() []string {
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// RenderSorted returns the names sorted and joined with ", ". The output
// depends only on the set contents, never on arrival order. An empty
// registry renders as "".
func (r *Registry) RenderSorted() string {
	return strings.Join(r.Sorted(), ", ")
}
