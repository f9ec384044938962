package store

import (
	"github.com/talbothq/talbot/backend/internal/model/chat"
	"github.com/talbothq/talbot/backend/internal/model/memory"
	"github.com/talbothq/talbot/backend/internal/model/profile"
)

// Store is the durable local state behind the conversation: the message
// transcript, the user profile and the conversation memory. Loads return
// nil (not an error) when nothing has been saved yet.
//
// Persistence is best-effort by design: callers log failures and keep the
// in-memory session going, so a broken disk never blocks the conversation.
type Store interface {
	AppendMessage(msg chat.Message) error
	ListMessages() ([]chat.Message, error)
	UpdateMessageContent(id, content string) error
	DeleteMessage(id string) error
	ClearMessages() error

	SaveProfile(p profile.Profile, usage profile.NameUsage) error
	LoadProfile() (*profile.Profile, *profile.NameUsage, error)
	SaveNameUsage(usage profile.NameUsage) error
	DeleteProfile() error

	SaveMemory(m memory.ConversationMemory) error
	LoadMemory() (*memory.ConversationMemory, error)
	DeleteMemory() error

	Close() error
}
