// Package conversation owns chat conversations and their append-only
// message logs: starting a conversation (with the character's greeting),
// sending messages, keyset pagination over the history, and the
// message_count bookkeeping that must never drift from the real row count.
package conversation

import (
	"time"
)

// Message roles. A message is written by the user, by the character
// (assistant), or injected by the system.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Conversation is one user's chat with one character. message_count is
// denormalized and must always equal the number of live messages; every
// mutation updates both inside one transaction.
type Conversation struct {
	ID            string    `json:"id"`
	Title         *string   `json:"title"`
	UserID        string    `json:"user_id"`
	CharacterID   string    `json:"character_id"`
	CharacterName string    `json:"character_name"`
	MessageCount  int       `json:"message_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Message is a single entry in a conversation's ordered log. created_at
// is the sort and cursor key (with id as tiebreak), so it carries
// microsecond precision in storage.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// --- Request/response DTOs ---

// CreateRequest holds the data submitted to POST /api/conversations.
type CreateRequest struct {
	CharacterID string `json:"character_id"`
}

// ConversationPatch is an explicit partial update for a conversation.
// A nil field means "leave unchanged".
type ConversationPatch struct {
	Title *string `json:"title"`
}

// SendMessageRequest holds the data submitted to
// POST /api/conversations/:id/messages.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// MessageListResponse is one page of messages in ascending chronological
// order. HasMore tells the client whether an older page exists.
type MessageListResponse struct {
	Items   []Message `json:"items"`
	HasMore bool      `json:"has_more"`
}

// ClearResponse reports how many messages a clear removed.
type ClearResponse struct {
	Deleted int64 `json:"deleted"`
}
