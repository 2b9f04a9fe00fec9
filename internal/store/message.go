package store

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertMessage appends a message to its conversation stream. The timestamp
// is assigned here, monotonically within the conversation: a message never
// sorts before one already stored, even across clock adjustments.
func (db *DB) InsertMessage(m *Message) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var last int64
	err = tx.QueryRow(`
		SELECT COALESCE(MAX(timestamp), 0) FROM messages WHERE conversation_key = ?`,
		m.ConversationKey).Scan(&last)
	if err != nil {
		return fmt.Errorf("read last timestamp: %w", err)
	}

	ts := time.Now().UnixMilli()
	if ts <= last {
		ts = last + 1
	}
	m.Timestamp = ts

	if _, err := tx.Exec(`
		INSERT INTO messages (id, conversation_key, from_uid, to_uid, body, read, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ConversationKey, m.From, m.To, m.Body, m.Read, m.Timestamp); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	return tx.Commit()
}

// GetMessage returns a message by id, or nil if none exists.
func (db *DB) GetMessage(id string) (*Message, error) {
	var m Message
	err := db.QueryRow(`
		SELECT id, conversation_key, from_uid, to_uid, body, read, timestamp
		FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.ConversationKey, &m.From, &m.To, &m.Body, &m.Read, &m.Timestamp)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// MarkMessageRead flips the read flag of a message to true.
func (db *DB) MarkMessageRead(id string) error {
	_, err := db.Exec(`UPDATE messages SET read = 1 WHERE id = ?`, id)
	return err
}

// ListConversationMessages returns the most recent limit messages of a
// conversation in ascending timestamp order.
func (db *DB) ListConversationMessages(conversationKey string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT id, conversation_key, from_uid, to_uid, body, read, timestamp
		FROM messages
		WHERE conversation_key = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?`, conversationKey, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationKey, &m.From, &m.To, &m.Body, &m.Read, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// The window selects newest-first; present ascending.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ListMessagesInvolving returns every message where uid is the sender or
// the recipient, across all conversations.
func (db *DB) ListMessagesInvolving(uid string) ([]Message, error) {
	rows, err := db.Query(`
		SELECT id, conversation_key, from_uid, to_uid, body, read, timestamp
		FROM messages
		WHERE from_uid = ? OR to_uid = ?
		ORDER BY timestamp, id`, uid, uid)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ConversationKey, &m.From, &m.To, &m.Body, &m.Read, &m.Timestamp); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
