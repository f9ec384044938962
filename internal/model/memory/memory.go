package memory

import "time"

// Tone is the dominant emotional tone of a conversation.
type Tone string

const (
	ToneAnxious  Tone = "anxious"
	ToneSad      Tone = "sad"
	ToneAngry    Tone = "angry"
	TonePositive Tone = "positive"
	ToneNeutral  Tone = "neutral"
)

// ConversationMemory is the compact summary kept when the user starts a
// new conversation but asks Talbot to remember the old one. It lives
// independently of the raw transcript: the transcript can be cleared
// while the memory persists, and vice versa.
type ConversationMemory struct {
	LastUpdated        time.Time `json:"lastUpdated"`
	MessageCountAtSave int       `json:"messageCountAtSave"`
	Topics             []string  `json:"topics"`
	Summary            string    `json:"summary"`
	EmotionalTone      Tone      `json:"emotionalTone"`
	KeyThemes          []string  `json:"keyThemes"`
}
