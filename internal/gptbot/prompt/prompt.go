// Package prompt turns the bot's memory into the ordered instruction
// sequence sent to the completion service, and computes how long a reply may
// be before it stops fitting in a single IRC line.
package prompt

import (
	"strconv"

	"github.com/bdobrica/gptbot/internal/gptbot/history"
	"github.com/bdobrica/gptbot/internal/gptbot/persona"
)

// Role tags a segment for the completion service.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Segment is one role-tagged piece of text.
type Segment struct {
	Role    Role
	Content string
}

// Document is the assembled prompt. It is built per request and discarded.
type Document struct {
	Segments []Segment
}

// Count returns the number of segments with the given role.
func (d Document) Count(role Role) int {
	n := 0
	for _, s := range d.Segments {
		if s.Role == role {
			n++
		}
	}
	return n
}

// Turns returns the user and assistant segments in order.
func (d Document) Turns() []Segment {
	var out []Segment
	for _, s := range d.Segments {
		if s.Role != RoleSystem {
			out = append(out, s)
		}
	}
	return out
}

// Input is everything Assemble needs for one request.
type Input struct {
	// Nick is the bot's current nickname.
	Nick string
	// Sender is the user being answered.
	Sender string
	// Participants is the rendered channel membership.
	Participants string
	Persona      persona.Persona
	Ambient      []history.Ambient
	// UserTurns and AssistantTurns are the sender's history, oldest first.
	// The message being answered is the last user turn.
	UserTurns      []string
	AssistantTurns []string
	// Budget is the reply-length ceiling announced to the model.
	Budget int
}

// Assemble builds the prompt: persona directives, then one system segment
// per remembered ambient message, then the sender's turns interleaved by
// position. A position without a user message or without a reply contributes
// only the side that exists.
func Assemble(in Input) Document {
	p := in.Persona
	vars := persona.Vars{
		Name:         in.Nick,
		Participants: in.Participants,
		Sender:       in.Sender,
		Budget:       strconv.Itoa(in.Budget),
	}

	directives := make([]string, 0, 7+len(p.Style)+len(p.Personality))
	directives = append(directives, p.Identity, p.Language, p.Affiliation, p.Location)
	directives = append(directives, p.Style...)
	directives = append(directives, p.Personality...)
	directives = append(directives, p.Participants, p.SpeakingTo, p.ReplyLength)

	segments := make([]Segment, 0, len(directives)+len(in.Ambient)+len(in.UserTurns)+len(in.AssistantTurns))
	for _, d := range directives {
		if d == "" {
			continue
		}
		segments = append(segments, Segment{Role: RoleSystem, Content: persona.Render(d, vars)})
	}

	for _, a := range in.Ambient {
		segments = append(segments, Segment{
			Role: RoleSystem,
			Content: persona.Render(p.Ambient, persona.Vars{
				Name:    in.Nick,
				Sender:  a.Sender,
				Message: a.Text,
			}),
		})
	}

	turns := max(len(in.UserTurns), len(in.AssistantTurns))
	for i := 0; i < turns; i++ {
		if i < len(in.UserTurns) {
			segments = append(segments, Segment{Role: RoleUser, Content: in.UserTurns[i]})
		}
		if i < len(in.AssistantTurns) {
			segments = append(segments, Segment{Role: RoleAssistant, Content: in.AssistantTurns[i]})
		}
	}

	return Document{Segments: segments}
}
