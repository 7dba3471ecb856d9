package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hyy110/SoulMate/internal/apperror"
)

// Pagination bounds for GET /conversations/:id/messages.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ConversationService handles conversation and message business logic.
// Every method takes the calling user's ID and enforces ownership before
// touching anything.
type ConversationService interface {
	Create(ctx context.Context, userID string, req CreateRequest) (*Conversation, error)
	List(ctx context.Context, userID string) ([]Conversation, error)
	Get(ctx context.Context, userID, conversationID string) (*Conversation, error)
	Update(ctx context.Context, userID, conversationID string, patch ConversationPatch) (*Conversation, error)
	Delete(ctx context.Context, userID, conversationID string) error

	// SendMessage appends the user's message and the character's reply in
	// one atomic step and returns both in order.
	SendMessage(ctx context.Context, userID, conversationID, content string) ([]Message, error)
	// ListMessages returns one page in ascending chronological order.
	// beforeID, when non-empty, names a message in this conversation; the
	// page holds only messages strictly older than it.
	ListMessages(ctx context.Context, userID, conversationID, beforeID string, limit int) (*MessageListResponse, error)
	DeleteMessage(ctx context.Context, userID, conversationID, messageID string) error
	// ClearMessages removes the whole log and reports how many rows went.
	ClearMessages(ctx context.Context, userID, conversationID string) (int64, error)
}

// conversationService implements ConversationService.
type conversationService struct {
	conversations ConversationRepository
	messages      MessageRepository
	characters    CharacterFinder
	logger        *slog.Logger
}

// NewConversationService creates a new conversation service.
func NewConversationService(
	conversations ConversationRepository,
	messages MessageRepository,
	characters CharacterFinder,
	logger *slog.Logger,
) ConversationService {
	return &conversationService{
		conversations: conversations,
		messages:      messages,
		characters:    characters,
		logger:        logger,
	}
}

// ownConversation loads a conversation and verifies the caller owns it.
// Unknown IDs are 404; someone else's conversation is 403. The two cases
// stay distinct so a client can tell "gone" from "not yours".
func (s *conversationService) ownConversation(ctx context.Context, userID, conversationID string) (*Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv.UserID != userID {
		return nil, apperror.NewForbidden("no access to this conversation")
	}
	return conv, nil
}

// Create starts a conversation with a character. Private characters can
// only be chatted with by their creator. When the character has a
// greeting it is seeded as the first assistant message, so the
// conversation starts with message_count 1.
func (s *conversationService) Create(ctx context.Context, userID string, req CreateRequest) (*Conversation, error) {
	if req.CharacterID == "" {
		return nil, apperror.NewValidation("character_id is required")
	}

	ch, err := s.characters.FindCharacter(ctx, req.CharacterID)
	if err != nil {
		return nil, err
	}
	if !ch.IsPublic && ch.CreatorID != userID {
		return nil, apperror.NewForbidden("no access to this character")
	}

	now := time.Now().UTC()
	title := fmt.Sprintf("Conversation with %s", ch.Name)
	conv := &Conversation{
		ID:            uuid.NewString(),
		Title:         &title,
		UserID:        userID,
		CharacterID:   ch.ID,
		CharacterName: ch.Name,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var greeting *Message
	if ch.GreetingMessage != nil && *ch.GreetingMessage != "" {
		greeting = &Message{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			Role:           RoleAssistant,
			Content:        *ch.GreetingMessage,
			CreatedAt:      now,
		}
		conv.MessageCount = 1
	}

	if err := s.conversations.Create(ctx, conv, greeting); err != nil {
		return nil, err
	}

	// Popularity counters are best effort. A failed bump must not fail
	// the conversation that was already committed.
	if err := s.characters.IncrementChatCounters(ctx, ch.ID); err != nil {
		s.logger.Warn("failed to increment character chat counters",
			"character_id", ch.ID, "error", err)
	}

	return conv, nil
}

// List returns the user's conversations, most recently active first.
func (s *conversationService) List(ctx context.Context, userID string) ([]Conversation, error) {
	return s.conversations.ListByUser(ctx, userID)
}

// Get returns one of the user's conversations.
func (s *conversationService) Get(ctx context.Context, userID, conversationID string) (*Conversation, error) {
	return s.ownConversation(ctx, userID, conversationID)
}

// Update applies a partial update. Only the title is mutable.
func (s *conversationService) Update(ctx context.Context, userID, conversationID string, patch ConversationPatch) (*Conversation, error) {
	conv, err := s.ownConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, apperror.NewValidation("title must not be empty")
		}
		if err := s.conversations.UpdateTitle(ctx, conversationID, *patch.Title); err != nil {
			return nil, err
		}
		conv.Title = patch.Title
	}

	return conv, nil
}

// Delete removes a conversation and its messages.
func (s *conversationService) Delete(ctx context.Context, userID, conversationID string) error {
	if _, err := s.ownConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.conversations.Delete(ctx, conversationID)
}

// SendMessage appends the user's message and the character's canned
// reply atomically. The reply's timestamp is nudged one microsecond
// forward so it sorts strictly after the user's message even when both
// land in the same clock tick.
func (s *conversationService) SendMessage(ctx context.Context, userID, conversationID, content string) ([]Message, error) {
	conv, err := s.ownConversation(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	name := conv.CharacterName
	if name == "" {
		name = "AI"
	}

	now := time.Now().UTC()
	userMsg := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           RoleUser,
		Content:        content,
		CreatedAt:      now,
	}
	reply := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		Role:           RoleAssistant,
		Content:        fmt.Sprintf("I am %s. You said: %s", name, content),
		CreatedAt:      now.Add(time.Microsecond),
	}

	if err := s.messages.Append(ctx, conversationID, []*Message{userMsg, reply}); err != nil {
		return nil, err
	}

	return []Message{*userMsg, *reply}, nil
}

// ListMessages pages backwards through the log. The repository hands
// back newest-first rows; one extra row past the limit tells us whether
// an older page exists, then the page flips to ascending order for the
// client.
func (s *conversationService) ListMessages(ctx context.Context, userID, conversationID, beforeID string, limit int) (*MessageListResponse, error) {
	if _, err := s.ownConversation(ctx, userID, conversationID); err != nil {
		return nil, err
	}

	var before *time.Time
	if beforeID != "" {
		cursor, err := s.messages.FindByID(ctx, conversationID, beforeID)
		switch {
		case err == nil:
			before = &cursor.CreatedAt
		case apperror.IsNotFound(err):
			// A stale or foreign cursor falls back to the newest page
			// rather than erroring, so clients can blindly retry.
		default:
			return nil, err
		}
	}

	rows, err := s.messages.ListBefore(ctx, conversationID, before, limit+1)
	if err != nil {
		return nil, err
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	// Flip newest-first into chronological order.
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	if rows == nil {
		rows = []Message{}
	}

	return &MessageListResponse{Items: rows, HasMore: hasMore}, nil
}

// DeleteMessage removes one message from one of the user's
// conversations.
func (s *conversationService) DeleteMessage(ctx context.Context, userID, conversationID, messageID string) error {
	if _, err := s.ownConversation(ctx, userID, conversationID); err != nil {
		return err
	}
	return s.messages.DeleteOne(ctx, conversationID, messageID)
}

// ClearMessages wipes the conversation's log and returns how many
// messages were removed.
func (s *conversationService) ClearMessages(ctx context.Context, userID, conversationID string) (int64, error) {
	if _, err := s.ownConversation(ctx, userID, conversationID); err != nil {
		return 0, err
	}
	return s.messages.DeleteAll(ctx, conversationID)
}
