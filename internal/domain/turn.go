package domain

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// TurnMedia points at media attached to a turn, either a local preview URL
// for user uploads or a remote/data URL for generated results.
type TurnMedia struct {
	URL  string    `json:"url"`
	Kind MediaKind `json:"kind"`
}

// ConversationTurn is one entry in the append-only chat transcript. Turns are
// never mutated after creation; the ordered sequence is the full state of a
// chat session on this side of the wire.
type ConversationTurn struct {
	Speaker Speaker    `json:"speaker"`
	Text    string     `json:"text,omitempty"`
	Media   *TurnMedia `json:"media,omitempty"`
}
