package history

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talbothq/talbot/backend/internal/model/chat"
	"github.com/talbothq/talbot/backend/internal/store"
)

// Service is the message log: the ordered, persisted transcript of the
// conversation. All mutations happen through it; reads get copies.
//
// Persistence is write-through and best-effort. A storage failure is
// logged and the in-memory transcript keeps going, so the session
// degrades to memory-only instead of breaking.
type Service struct {
	mu       sync.RWMutex
	messages []chat.Message
	store    store.Store
}

// NewService creates the message log backed by the given store, restoring
// any previously persisted transcript so a restart reproduces the exact
// visible history.
func NewService(st store.Store) *Service {
	svc := &Service{store: st}

	saved, err := st.ListMessages()
	if err != nil {
		log.Printf("[history] failed to restore transcript: %v", err)
		return svc
	}
	svc.messages = saved
	return svc
}

// Append constructs, stores and persists a new message. Empty or
// whitespace-only content is a no-op: the second return value is false
// and nothing is recorded.
func (s *Service) Append(sender chat.Sender, content string) (chat.Message, bool) {
	if strings.TrimSpace(content) == "" || !sender.Valid() {
		return chat.Message{}, false
	}

	msg := chat.Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()

	if err := s.store.AppendMessage(msg); err != nil {
		log.Printf("[history] failed to persist message %s: %v", msg.ID, err)
	}
	return msg, true
}

// All returns the transcript in append order.
func (s *Service) All() []chat.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

// Len reports the number of messages in the transcript.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

// Clear empties the transcript and deletes the persisted copy. The
// conversation memory is deliberately untouched: clearing history is not
// forgetting.
func (s *Service) Clear() {
	s.mu.Lock()
	s.messages = nil
	s.mu.Unlock()

	if err := s.store.ClearMessages(); err != nil {
		log.Printf("[history] failed to clear persisted transcript: %v", err)
	}
}

// Edit rewrites a message's content and marks it edited.
func (s *Service) Edit(id, content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}

	s.mu.Lock()
	found := false
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Content = content
			s.messages[i].Edited = true
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return false
	}
	if err := s.store.UpdateMessageContent(id, content); err != nil {
		log.Printf("[history] failed to persist edit of %s: %v", id, err)
	}
	return true
}

// Delete removes a single message from the transcript.
func (s *Service) Delete(id string) bool {
	s.mu.Lock()
	found := false
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()

	if !found {
		return false
	}
	if err := s.store.DeleteMessage(id); err != nil {
		log.Printf("[history] failed to persist delete of %s: %v", id, err)
	}
	return true
}

// Stats derives summary statistics over the transcript.
func (s *Service) Stats() chat.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := chat.Stats{Total: len(s.messages)}
	if stats.Total == 0 {
		return stats
	}

	var userLen, assistantLen int
	for _, msg := range s.messages {
		switch msg.Sender {
		case chat.SenderUser:
			stats.UserCount++
			userLen += len(msg.Content)
		case chat.SenderAssistant:
			stats.AssistantCount++
			assistantLen += len(msg.Content)
		}
	}
	if stats.UserCount > 0 {
		stats.AvgUserLen = float64(userLen) / float64(stats.UserCount)
	}
	if stats.AssistantCount > 0 {
		stats.AvgAssistantLen = float64(assistantLen) / float64(stats.AssistantCount)
	}
	stats.FirstTimestamp = s.messages[0].Timestamp
	stats.LastTimestamp = s.messages[len(s.messages)-1].Timestamp
	return stats
}
