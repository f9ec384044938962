package store

import (
	"errors"
	"sync"

	"github.com/talbothq/talbot/backend/internal/model/chat"
	"github.com/talbothq/talbot/backend/internal/model/memory"
	"github.com/talbothq/talbot/backend/internal/model/profile"
)

// MemoryStore keeps everything in process memory. It backs the service
// when no database path is configured (the session simply doesn't survive
// a restart) and the unit tests.
type MemoryStore struct {
	mu        sync.RWMutex
	messages  []chat.Message
	profile   *profile.Profile
	nameUsage *profile.NameUsage
	memory    *memory.ConversationMemory
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AppendMessage(msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *MemoryStore) ListMessages() ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	copied := make([]chat.Message, len(s.messages))
	copy(copied, s.messages)
	return copied, nil
}

func (s *MemoryStore) UpdateMessageContent(id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages[i].Content = content
			s.messages[i].Edited = true
			return nil
		}
	}
	return errors.New("message not found")
}

func (s *MemoryStore) DeleteMessage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.messages {
		if s.messages[i].ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return nil
		}
	}
	return errors.New("message not found")
}

func (s *MemoryStore) ClearMessages() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	return nil
}

func (s *MemoryStore) SaveProfile(p profile.Profile, usage profile.NameUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &p
	s.nameUsage = &usage
	return nil
}

func (s *MemoryStore) LoadProfile() (*profile.Profile, *profile.NameUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil, nil, nil
	}
	p := *s.profile
	usage := *s.nameUsage
	return &p, &usage, nil
}

func (s *MemoryStore) SaveNameUsage(usage profile.NameUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return nil
	}
	s.nameUsage = &usage
	return nil
}

func (s *MemoryStore) DeleteProfile() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
	s.nameUsage = nil
	return nil
}

func (s *MemoryStore) SaveMemory(m memory.ConversationMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = &m
	return nil
}

func (s *MemoryStore) LoadMemory() (*memory.ConversationMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.memory == nil {
		return nil, nil
	}
	m := *s.memory
	return &m, nil
}

func (s *MemoryStore) DeleteMemory() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.memory = nil
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
