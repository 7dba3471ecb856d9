package conversation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hyy110/SoulMate/internal/apperror"
)

// ConversationRepository defines the data access contract for
// conversations. Mutations that touch messages AND the message_count
// counter run inside a single transaction so a concurrent reader can
// never observe the counter out of step with the rows.
type ConversationRepository interface {
	// Create inserts the conversation and, when greeting is non-nil, its
	// seed message in one transaction. The caller sets MessageCount to
	// match (1 with a greeting, 0 without).
	Create(ctx context.Context, conv *Conversation, greeting *Message) error
	FindByID(ctx context.Context, id string) (*Conversation, error)
	ListByUser(ctx context.Context, userID string) ([]Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) error
	// Delete removes the conversation and all of its messages.
	Delete(ctx context.Context, id string) error
}

// MessageRepository defines the data access contract for a conversation's
// message log.
type MessageRepository interface {
	// FindByID retrieves a message scoped to its conversation. A message
	// ID from another conversation is NotFound.
	FindByID(ctx context.Context, conversationID, messageID string) (*Message, error)

	// ListBefore returns up to limit messages in descending (created_at,
	// id) order. When before is non-nil only messages strictly older than
	// it are returned.
	ListBefore(ctx context.Context, conversationID string, before *time.Time, limit int) ([]Message, error)

	// Append inserts the given messages and increments the conversation's
	// message_count by exactly len(msgs), bumping updated_at, all in one
	// transaction.
	Append(ctx context.Context, conversationID string, msgs []*Message) error

	// DeleteOne removes one message and decrements message_count, floored
	// at zero, in one transaction. NotFound if the message does not
	// belong to the conversation.
	DeleteOne(ctx context.Context, conversationID, messageID string) error

	// DeleteAll removes every message and resets message_count to zero in
	// one transaction, returning the number of rows removed.
	DeleteAll(ctx context.Context, conversationID string) (int64, error)
}

// conversationRepository implements ConversationRepository with MariaDB
// queries.
type conversationRepository struct {
	db *sql.DB
}

// NewConversationRepository creates a new conversation repository.
func NewConversationRepository(db *sql.DB) ConversationRepository {
	return &conversationRepository{db: db}
}

// conversationColumns selects conversation fields plus the character name
// via join, matching scanConversation.
const conversationColumns = `c.id, c.title, c.user_id, c.character_id,
	COALESCE(ch.name, ''), c.message_count, c.created_at, c.updated_at`

// scanConversation scans one joined conversation row.
func scanConversation(scan func(dest ...any) error) (*Conversation, error) {
	conv := &Conversation{}
	err := scan(
		&conv.ID,
		&conv.Title,
		&conv.UserID,
		&conv.CharacterID,
		&conv.CharacterName,
		&conv.MessageCount,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return conv, nil
}

// Create inserts the conversation and its optional greeting seed message
// atomically.
func (r *conversationRepository) Create(ctx context.Context, conv *Conversation, greeting *Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, title, user_id, character_id,
		     message_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.Title, conv.UserID, conv.CharacterID,
		conv.MessageCount, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting conversation: %w", err)
	}

	if greeting != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (id, conversation_id, role, content, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			greeting.ID, greeting.ConversationID, greeting.Role,
			greeting.Content, greeting.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting greeting message: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing conversation create: %w", err)
	}
	return nil
}

// FindByID retrieves a conversation by its UUID.
// Returns apperror.NotFound if no conversation exists with this ID.
func (r *conversationRepository) FindByID(ctx context.Context, id string) (*Conversation, error) {
	query := `SELECT ` + conversationColumns + `
	          FROM conversations c
	          LEFT JOIN characters ch ON ch.id = c.character_id
	          WHERE c.id = ?`

	conv, err := scanConversation(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("conversation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation by id: %w", err)
	}

	return conv, nil
}

// ListByUser returns all of a user's conversations, most recently
// active first.
func (r *conversationRepository) ListByUser(ctx context.Context, userID string) ([]Conversation, error) {
	query := `SELECT ` + conversationColumns + `
	          FROM conversations c
	          LEFT JOIN characters ch ON ch.id = c.character_id
	          WHERE c.user_id = ?
	          ORDER BY c.updated_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	defer rows.Close()

	var conversations []Conversation
	for rows.Next() {
		conv, err := scanConversation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning conversation row: %w", err)
		}
		conversations = append(conversations, *conv)
	}

	return conversations, rows.Err()
}

// UpdateTitle renames a conversation.
func (r *conversationRepository) UpdateTitle(ctx context.Context, id, title string) error {
	query := `UPDATE conversations SET title = ?, updated_at = NOW(6) WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, title, id)
	if err != nil {
		return fmt.Errorf("updating conversation title: %w", err)
	}

	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("conversation not found")
	}

	return nil
}

// Delete removes a conversation and its messages in one transaction.
func (r *conversationRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("deleting conversation messages: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("conversation not found")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing conversation delete: %w", err)
	}
	return nil
}

// messageRepository implements MessageRepository with MariaDB queries.
type messageRepository struct {
	db *sql.DB
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *sql.DB) MessageRepository {
	return &messageRepository{db: db}
}

// FindByID retrieves a message scoped to its conversation.
func (r *messageRepository) FindByID(ctx context.Context, conversationID, messageID string) (*Message, error) {
	query := `SELECT id, conversation_id, role, content, created_at
	          FROM messages WHERE id = ? AND conversation_id = ?`

	msg := &Message{}
	err := r.db.QueryRowContext(ctx, query, messageID, conversationID).Scan(
		&msg.ID,
		&msg.ConversationID,
		&msg.Role,
		&msg.Content,
		&msg.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("message not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying message by id: %w", err)
	}

	return msg, nil
}

// ListBefore fetches messages in descending (created_at, id) order,
// optionally restricted to those strictly older than the cursor time.
func (r *messageRepository) ListBefore(ctx context.Context, conversationID string, before *time.Time, limit int) ([]Message, error) {
	query := `SELECT id, conversation_id, role, content, created_at
	          FROM messages WHERE conversation_id = ?`
	args := []any{conversationID}

	if before != nil {
		query += ` AND created_at < ?`
		args = append(args, *before)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var msg Message
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// Append inserts messages and advances the counter in one transaction.
// The counter moves by exactly len(msgs) -- the invariant that
// message_count equals the live row count holds before and after.
func (r *messageRepository) Append(ctx context.Context, conversationID string, msgs []*Message) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, msg := range msgs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (id, conversation_id, role, content, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations
		 SET message_count = message_count + ?, updated_at = NOW(6)
		 WHERE id = ?`,
		len(msgs), conversationID,
	)
	if err != nil {
		return fmt.Errorf("updating message count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing message append: %w", err)
	}
	return nil
}

// DeleteOne removes a message and decrements the counter in one
// transaction. The GREATEST floor keeps the counter at zero even if it
// had somehow drifted low.
func (r *messageRepository) DeleteOne(ctx context.Context, conversationID, messageID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE id = ? AND conversation_id = ?`,
		messageID, conversationID,
	)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("message not found")
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations
		 SET message_count = GREATEST(message_count - 1, 0)
		 WHERE id = ?`,
		conversationID,
	)
	if err != nil {
		return fmt.Errorf("updating message count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing message delete: %w", err)
	}
	return nil
}

// DeleteAll removes every message and resets the counter in one
// transaction.
func (r *messageRepository) DeleteAll(ctx context.Context, conversationID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return 0, fmt.Errorf("deleting messages: %w", err)
	}
	deleted, _ := result.RowsAffected()

	_, err = tx.ExecContext(ctx,
		`UPDATE conversations SET message_count = 0 WHERE id = ?`, conversationID)
	if err != nil {
		return 0, fmt.Errorf("resetting message count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing message clear: %w", err)
	}
	return deleted, nil
}
