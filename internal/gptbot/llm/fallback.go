package llm

import (
	"errors"

	"github.com/bdobrica/gptbot/internal/gptbot/persona"
)

// Fallbacks holds the apology templates used in place of a real reply.
// Templates may contain {error}, replaced by the upstream error detail.
type Fallbacks struct {
	RateLimit string
	Service   string
}

// FallbacksFrom takes the apology wording from a persona.
func FallbacksFrom(p persona.Persona) Fallbacks {
	return Fallbacks{RateLimit: p.Apologies.RateLimit, Service: p.Apologies.Service}
}

// For returns the apology for err and true when err is one of the two
// recoverable categories. Other errors return "", false.
func (f Fallbacks) For(err error) (string, bool) {
	var tmpl string
	switch {
	case errors.Is(err, ErrRateLimit):
		tmpl = f.RateLimit
	case errors.Is(err, ErrService):
		tmpl = f.Service
	default:
		return "", false
	}
	return persona.Render(tmpl, persona.Vars{Error: Detail(err)}), true
}

// Detail returns the most human-readable description of a provider error:
// the service's own message when there is one, else the error text.
func Detail(err error) string {
	var de *detailError
	if errors.As(err, &de) && de.detail != "" {
		return de.detail
	}
	return err.Error()
}

// detailError attaches the service's message to a classified error.
type detailError struct {
	kind   error
	detail string
	err    error
}

func (e *detailError) Error() string { return e.kind.Error() + ": " + e.err.Error() }

func (e *detailError) Unwrap() []error { return []error{e.kind, e.err} }
