// Package redact strips secrets from strings before they are logged.
//
// The OpenAI API key and the IRC server password must never appear in log
// output. Redaction is best-effort: it works on string representations and
// relies on callers to pass the right values.
package redact

import (
	"strings"
)

const placeholder = "[REDACTED]"

// String replaces every occurrence of each sensitive value in s with
// [REDACTED]. Values shorter than 4 characters are skipped to avoid
// spurious redaction of common substrings.
//
// Example:
//
//	safe := redact.String(err.Error(), apiKey)
func String(s string, sensitiveValues ...string) string {
	for _, v := range sensitiveValues {
		if len(v) < 4 {
			continue
		}
		s = strings.ReplaceAll(s, v, placeholder)
	}
	return s
}
