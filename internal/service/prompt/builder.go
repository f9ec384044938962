package prompt

import (
	"github.com/talbothq/talbot/backend/internal/model/chat"
)

// DefaultHistoryWindow bounds how many transcript entries accompany an
// outbound request. Older entries are dropped first.
const DefaultHistoryWindow = 20

// Payload is everything the response pipeline sends upstream for one user
// turn: the message itself, the trimmed transcript, and the rendered
// profile and memory context strings.
type Payload struct {
	Message        string
	History        []chat.Message
	ProfileContext string
	MemoryContext  string
}

// ProfileRenderer supplies the profile context paragraph and the
// name-usage guidance line.
type ProfileRenderer interface {
	ContextText() string
	NameGuidance() string
}

// MemoryRenderer supplies the previous-conversation context paragraph.
type MemoryRenderer interface {
	PromptText() string
}

// Builder assembles the upstream payload for a user turn.
type Builder struct {
	profile ProfileRenderer
	memory  MemoryRenderer
	window  int
}

// NewBuilder wires a Builder with the default history window.
func NewBuilder(profile ProfileRenderer, memory MemoryRenderer) *Builder {
	return &Builder{profile: profile, memory: memory, window: DefaultHistoryWindow}
}

// Build prepares the payload for the given user message. The transcript
// passed in already contains the current message because the gate appends
// before dispatch, so the trailing entry is dropped when it is that exact
// user message; the upstream API receives the message once, in its own
// field, never duplicated at the tail of the history.
func (b *Builder) Build(message string, transcript []chat.Message) Payload {
	history := transcript
	if n := len(history); n > 0 {
		last := history[n-1]
		if last.Sender == chat.SenderUser && last.Content == message {
			history = history[:n-1]
		}
	}
	if len(history) > b.window {
		history = history[len(history)-b.window:]
	}

	// Copy so callers cannot observe later transcript mutations.
	out := make([]chat.Message, len(history))
	copy(out, history)

	return Payload{
		Message:        message,
		History:        out,
		ProfileContext: b.profileContext(),
		MemoryContext:  b.memory.PromptText(),
	}
}

func (b *Builder) profileContext() string {
	text := b.profile.ContextText()
	if guidance := b.profile.NameGuidance(); guidance != "" {
		if text != "" {
			text += "\n\n"
		}
		text += guidance
	}
	return text
}
