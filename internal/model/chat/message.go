package chat

import "time"

// Sender identifies which side of the conversation authored a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Valid reports whether the sender is one of the two known values.
func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderAssistant
}

// Message is a single persisted conversation turn.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Edited    bool      `json:"edited,omitempty"`
}

// Stats summarises a transcript for the export and stats endpoints.
type Stats struct {
	Total           int       `json:"total"`
	UserCount       int       `json:"userCount"`
	AssistantCount  int       `json:"assistantCount"`
	AvgUserLen      float64   `json:"avgUserLen"`
	AvgAssistantLen float64   `json:"avgAssistantLen"`
	FirstTimestamp  time.Time `json:"firstTimestamp"`
	LastTimestamp   time.Time `json:"lastTimestamp"`
}
