package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/talbothq/talbot/backend/internal/model/chat"
	"github.com/talbothq/talbot/backend/internal/model/memory"
	"github.com/talbothq/talbot/backend/internal/model/profile"
)

// SQLiteStore persists conversation state in a local SQLite file. Profile
// and memory are singleton rows holding JSON blobs; messages get their own
// table so ordering and per-message edits stay cheap.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at the given path.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS messages (
        id TEXT PRIMARY KEY,
        seq INTEGER NOT NULL,
        sender TEXT NOT NULL CHECK (sender IN ('user', 'assistant')),
        content TEXT NOT NULL,
        timestamp DATETIME NOT NULL,
        edited BOOLEAN NOT NULL DEFAULT FALSE
    );

    CREATE TABLE IF NOT EXISTS user_profile (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        data TEXT NOT NULL,
        name_usage TEXT NOT NULL
    );

    CREATE TABLE IF NOT EXISTS conversation_memory (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        data TEXT NOT NULL
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// AppendMessage stores a message at the end of the transcript.
func (s *SQLiteStore) AppendMessage(msg chat.Message) error {
	stmt, err := s.db.Prepare(`
        INSERT INTO messages (id, seq, sender, content, timestamp, edited)
        VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM messages), ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare message insert: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(msg.ID, string(msg.Sender), msg.Content, msg.Timestamp, msg.Edited); err != nil {
		return fmt.Errorf("failed to execute message insert: %w", err)
	}
	return nil
}

// ListMessages returns the full transcript in append order.
func (s *SQLiteStore) ListMessages() ([]chat.Message, error) {
	rows, err := s.db.Query(
		"SELECT id, sender, content, timestamp, edited FROM messages ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []chat.Message
	for rows.Next() {
		var msg chat.Message
		var sender string
		if err := rows.Scan(&msg.ID, &sender, &msg.Content, &msg.Timestamp, &msg.Edited); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.Sender = chat.Sender(sender)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// UpdateMessageContent rewrites a message's content and marks it edited.
func (s *SQLiteStore) UpdateMessageContent(id, content string) error {
	res, err := s.db.Exec("UPDATE messages SET content = ?, edited = TRUE WHERE id = ?", content, id)
	if err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return errors.New("message not found")
	}
	return nil
}

// DeleteMessage removes a single message.
func (s *SQLiteStore) DeleteMessage(id string) error {
	res, err := s.db.Exec("DELETE FROM messages WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return errors.New("message not found")
	}
	return nil
}

// ClearMessages empties the transcript. Conversation memory is untouched.
func (s *SQLiteStore) ClearMessages() error {
	if _, err := s.db.Exec("DELETE FROM messages"); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

// SaveProfile replaces the singleton profile row.
func (s *SQLiteStore) SaveProfile(p profile.Profile, usage profile.NameUsage) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	usageData, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("failed to marshal name usage: %w", err)
	}

	_, err = s.db.Exec(`
        INSERT INTO user_profile (id, data, name_usage) VALUES (1, ?, ?)
        ON CONFLICT(id) DO UPDATE SET data = excluded.data, name_usage = excluded.name_usage`,
		string(data), string(usageData))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// LoadProfile returns the stored profile and name-usage counters, or nils
// when no profile has been saved.
func (s *SQLiteStore) LoadProfile() (*profile.Profile, *profile.NameUsage, error) {
	var data, usageData string
	err := s.db.QueryRow("SELECT data, name_usage FROM user_profile WHERE id = 1").Scan(&data, &usageData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to query profile: %w", err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	var usage profile.NameUsage
	if err := json.Unmarshal([]byte(usageData), &usage); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal name usage: %w", err)
	}
	return &p, &usage, nil
}

// SaveNameUsage updates only the name-usage counters for the stored profile.
func (s *SQLiteStore) SaveNameUsage(usage profile.NameUsage) error {
	usageData, err := json.Marshal(usage)
	if err != nil {
		return fmt.Errorf("failed to marshal name usage: %w", err)
	}
	if _, err := s.db.Exec("UPDATE user_profile SET name_usage = ? WHERE id = 1", string(usageData)); err != nil {
		return fmt.Errorf("failed to save name usage: %w", err)
	}
	return nil
}

// DeleteProfile removes the stored profile.
func (s *SQLiteStore) DeleteProfile() error {
	if _, err := s.db.Exec("DELETE FROM user_profile WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	return nil
}

// SaveMemory replaces the singleton conversation-memory row.
func (s *SQLiteStore) SaveMemory(m memory.ConversationMemory) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation memory: %w", err)
	}
	_, err = s.db.Exec(`
        INSERT INTO conversation_memory (id, data) VALUES (1, ?)
        ON CONFLICT(id) DO UPDATE SET data = excluded.data`, string(data))
	if err != nil {
		return fmt.Errorf("failed to save conversation memory: %w", err)
	}
	return nil
}

// LoadMemory returns the stored conversation memory, or nil when absent.
func (s *SQLiteStore) LoadMemory() (*memory.ConversationMemory, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM conversation_memory WHERE id = 1").Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query conversation memory: %w", err)
	}

	var m memory.ConversationMemory
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation memory: %w", err)
	}
	return &m, nil
}

// DeleteMemory removes the stored conversation memory.
func (s *SQLiteStore) DeleteMemory() error {
	if _, err := s.db.Exec("DELETE FROM conversation_memory WHERE id = 1"); err != nil {
		return fmt.Errorf("failed to delete conversation memory: %w", err)
	}
	return nil
}
