package memory

import (
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/talbothq/talbot/backend/internal/analysis/tone"
	"github.com/talbothq/talbot/backend/internal/model/chat"
	memorymodel "github.com/talbothq/talbot/backend/internal/model/memory"
	"github.com/talbothq/talbot/backend/internal/store"
)

// summaryWindow is how many recent user messages feed the one-line summary.
const summaryWindow = 5

// previewTopics is how many topics the context preview shows.
const previewTopics = 3

// Service derives, persists and renders the conversation memory: the
// compact summary that survives a "new conversation, keep context" reset.
// Derivation runs entirely on the local transcript, no upstream calls, so
// a reset works offline and synchronously.
type Service struct {
	mu     sync.RWMutex
	memory *memorymodel.ConversationMemory
	store  store.Store
}

// NewService loads any persisted memory from the store.
func NewService(st store.Store) *Service {
	svc := &Service{store: st}

	m, err := st.LoadMemory()
	if err != nil {
		log.Printf("[memory] failed to load conversation memory: %v", err)
		return svc
	}
	svc.memory = m
	return svc
}

// Derive computes a ConversationMemory from a transcript. Pure except for
// the LastUpdated timestamp: the same transcript always yields the same
// topics, summary, tone and themes.
func Derive(messages []chat.Message) memorymodel.ConversationMemory {
	return memorymodel.ConversationMemory{
		LastUpdated:        time.Now().UTC(),
		MessageCountAtSave: len(messages),
		Topics:             tone.Topics(messages),
		Summary:            summarize(messages),
		EmotionalTone:      tone.Analyze(messages),
		KeyThemes:          tone.Themes(messages),
	}
}

func summarize(messages []chat.Message) string {
	var userMessages []chat.Message
	for _, msg := range messages {
		if msg.Sender == chat.SenderUser {
			userMessages = append(userMessages, msg)
		}
	}
	if len(userMessages) == 0 {
		return "Brief conversation with Talbot"
	}
	if len(userMessages) > summaryWindow {
		userMessages = userMessages[len(userMessages)-summaryWindow:]
	}

	mainTopic := "general wellbeing"
	if topics := tone.Topics(userMessages); len(topics) > 0 {
		mainTopic = topics[0]
	}
	return fmt.Sprintf("Recent discussion about %s and related topics", mainTopic)
}

// Get returns a copy of the stored memory, or nil when absent.
func (s *Service) Get() *memorymodel.ConversationMemory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.memory == nil {
		return nil
	}
	m := *s.memory
	return &m
}

// Save overwrites the stored memory.
func (s *Service) Save(m memorymodel.ConversationMemory) {
	s.mu.Lock()
	s.memory = &m
	s.mu.Unlock()

	if err := s.store.SaveMemory(m); err != nil {
		log.Printf("[memory] failed to persist conversation memory: %v", err)
	}
}

// Clear removes the stored memory. Only the explicit complete-reset
// action calls this.
func (s *Service) Clear() {
	s.mu.Lock()
	s.memory = nil
	s.mu.Unlock()

	if err := s.store.DeleteMemory(); err != nil {
		log.Printf("[memory] failed to delete conversation memory: %v", err)
	}
}

// PromptText renders the stored memory as the short paragraph appended to
// the outbound system context. Empty string when nothing is stored.
func (s *Service) PromptText() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.memory == nil {
		return ""
	}
	m := s.memory

	var b strings.Builder
	if m.Summary != "" {
		fmt.Fprintf(&b, "Previous conversation context: %s. ", m.Summary)
	}
	if len(m.Topics) > 0 {
		fmt.Fprintf(&b, "Topics previously discussed: %s. ", strings.Join(m.Topics, ", "))
	}
	if m.EmotionalTone != "" && m.EmotionalTone != memorymodel.ToneNeutral {
		fmt.Fprintf(&b, "Previous emotional tone was %s. ", m.EmotionalTone)
	}
	if len(m.KeyThemes) > 0 {
		fmt.Fprintf(&b, "Key themes from before: %s. ", strings.Join(m.KeyThemes, ", "))
	}
	return strings.TrimSpace(b.String())
}

// Preview is the short "recent topics" line shown before a reset: the
// last few topics in encounter order.
func (s *Service) Preview() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.memory == nil || len(s.memory.Topics) == 0 {
		return "General conversation topics and emotional context."
	}
	topics := s.memory.Topics
	if len(topics) > previewTopics {
		topics = topics[len(topics)-previewTopics:]
	}
	return "Recent topics: " + strings.Join(topics, ", ")
}
