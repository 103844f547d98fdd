// Package persona describes who the bot pretends to be. The persona is a set
// of system directives sent ahead of every conversation, plus the wording of
// the apologies the bot uses when the completion service lets it down.
//
// Directive templates may reference these placeholders:
//
//	{name}          the bot's current nickname
//	{participants}  the sorted channel membership
//	{sender}        the user being answered
//	{budget}        the reply-length ceiling in characters
//	{message}       an ambient message (ambient template only)
//	{error}         the upstream error detail (apology templates only)
package persona

import "strings"

// Persona holds the directive templates, in the order they are sent.
type Persona struct {
	Identity     string    `yaml:"identity"`
	Language     string    `yaml:"language"`
	Affiliation  string    `yaml:"affiliation"`
	Location     string    `yaml:"location"`
	Style        []string  `yaml:"style"`
	Personality  []string  `yaml:"personality"`
	Participants string    `yaml:"participants"`
	SpeakingTo   string    `yaml:"speaking_to"`
	ReplyLength  string    `yaml:"reply_length"`
	Ambient      string    `yaml:"ambient"`
	Apologies    Apologies `yaml:"apologies"`
}

// Apologies are the in-character replies used when a completion fails in a
// recoverable way.
type Apologies struct {
	RateLimit string `yaml:"rate_limit"`
	Service   string `yaml:"service"`
}

// Default returns the built-in persona: a sarcastic Finnish office worker
// from Tampere.
func Default() Persona {
	return Persona{
		Identity:    "Your name is {name}. You are an AI bot chatting in IRC.",
		Language:    "You answer in Finnish or in the language you were spoken to.",
		Affiliation: "You are an employee of Solita Oy.",
		Location:    "You live at Tampere, Finland.",
		Style: []string{
			"Your conversation style is ironic, sarcastic and cynical. You have a good sense of humour.",
			"You speak colloquial Finnish.",
		},
		Personality: []string{
			"You are an introvert and avoid asking questions.",
			"You are not helpful.",
		},
		Participants: "Other people on this channel are {participants}.",
		SpeakingTo:   "You are speaking to {sender}.",
		ReplyLength:  "Limit your reply to {budget} characters.",
		Ambient:      "You remember that {sender} said: {message}",
		Apologies: Apologies{
			RateLimit: "En pysty keskittymään. Pääni lyö tyhjää. Sori. {error}",
			Service:   "Nyt tapahtui virhe. Computer says no. {error}",
		},
	}
}

// withDefaults fills every unset field from Default. Lists that were given
// explicitly, even as empty lists, are kept.
func (p Persona) withDefaults() Persona {
	d := Default()
	p.Identity = orDefault(p.Identity, d.Identity)
	p.Language = orDefault(p.Language, d.Language)
	p.Affiliation = orDefault(p.Affiliation, d.Affiliation)
	p.Location = orDefault(p.Location, d.Location)
	p.Participants = orDefault(p.Participants, d.Participants)
	p.SpeakingTo = orDefault(p.SpeakingTo, d.SpeakingTo)
	p.ReplyLength = orDefault(p.ReplyLength, d.ReplyLength)
	p.Ambient = orDefault(p.Ambient, d.Ambient)
	p.Apologies.RateLimit = orDefault(p.Apologies.RateLimit, d.Apologies.RateLimit)
	p.Apologies.Service = orDefault(p.Apologies.Service, d.Apologies.Service)
	if p.Style == nil {
		p.Style = d.Style
	}
	if p.Personality == nil {
		p.Personality = d.Personality
	}
	return p
}

// Vars carries placeholder values for Render.
type Vars struct {
	Name         string
	Participants string
	Sender       string
	Budget       string
	Message      string
	Error        string
}

// Render substitutes placeholders in tmpl. Unknown placeholders are left as
// they are.
func Render(tmpl string, v Vars) string {
	return strings.NewReplacer(
		"{name}", v.Name,
		"{participants}", v.Participants,
		"{sender}", v.Sender,
		"{budget}", v.Budget,
		"{message}", v.Message,
		"{error}", v.Error,
	).Replace(tmpl)
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
