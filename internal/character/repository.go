package character

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyy110/SoulMate/internal/apperror"
)

// CharacterRepository defines the data access contract for characters.
type CharacterRepository interface {
	Create(ctx context.Context, ch *Character) error
	FindByID(ctx context.Context, id string) (*Character, error)
	ListPublic(ctx context.Context) ([]Character, error)
	ListByCreator(ctx context.Context, creatorID string) ([]Character, error)

	// IncrementChatCounters bumps chat_count and conversation_count by one.
	// Called when a new conversation with the character starts.
	IncrementChatCounters(ctx context.Context, id string) error
}

// characterRepository implements CharacterRepository with MariaDB queries.
type characterRepository struct {
	db *sql.DB
}

// NewCharacterRepository creates a new character repository.
func NewCharacterRepository(db *sql.DB) CharacterRepository {
	return &characterRepository{db: db}
}

// characterColumns is the canonical select list shared by all queries.
const characterColumns = `id, name, avatar_url, gender, description, personality,
	greeting_message, tags, is_public, like_count, chat_count,
	conversation_count, creator_id, created_at, updated_at`

// scanCharacter scans one character row. Tags are stored as a JSON array
// in a TEXT column; NULL decodes to an empty slice.
func scanCharacter(scan func(dest ...any) error) (*Character, error) {
	ch := &Character{}
	var tagsJSON sql.NullString
	err := scan(
		&ch.ID,
		&ch.Name,
		&ch.AvatarURL,
		&ch.Gender,
		&ch.Description,
		&ch.Personality,
		&ch.GreetingMessage,
		&tagsJSON,
		&ch.IsPublic,
		&ch.LikeCount,
		&ch.ChatCount,
		&ch.ConversationCount,
		&ch.CreatorID,
		&ch.CreatedAt,
		&ch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &ch.Tags); err != nil {
			return nil, fmt.Errorf("decoding character tags: %w", err)
		}
	}
	return ch, nil
}

// Create inserts a new character row.
func (r *characterRepository) Create(ctx context.Context, ch *Character) error {
	tagsJSON, err := json.Marshal(ch.Tags)
	if err != nil {
		return fmt.Errorf("encoding character tags: %w", err)
	}

	query := `INSERT INTO characters (id, name, avatar_url, gender, description,
	              personality, greeting_message, tags, is_public, like_count,
	              chat_count, conversation_count, creator_id, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = r.db.ExecContext(ctx, query,
		ch.ID, ch.Name, ch.AvatarURL, ch.Gender, ch.Description,
		ch.Personality, ch.GreetingMessage, string(tagsJSON), ch.IsPublic,
		ch.LikeCount, ch.ChatCount, ch.ConversationCount, ch.CreatorID,
		ch.CreatedAt, ch.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting character: %w", err)
	}

	return nil
}

// FindByID retrieves a character by its UUID.
// Returns apperror.NotFound if no character exists with this ID.
func (r *characterRepository) FindByID(ctx context.Context, id string) (*Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters WHERE id = ?`

	ch, err := scanCharacter(r.db.QueryRowContext(ctx, query, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("character not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying character by id: %w", err)
	}

	return ch, nil
}

// ListPublic returns all public characters, most recently created first.
func (r *characterRepository) ListPublic(ctx context.Context) ([]Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters
	          WHERE is_public = true ORDER BY created_at DESC`

	return r.list(ctx, query)
}

// ListByCreator returns all characters created by the given user,
// most recently created first.
func (r *characterRepository) ListByCreator(ctx context.Context, creatorID string) ([]Character, error) {
	query := `SELECT ` + characterColumns + ` FROM characters
	          WHERE creator_id = ? ORDER BY created_at DESC`

	return r.list(ctx, query, creatorID)
}

// list runs a multi-row character query and scans the results.
func (r *characterRepository) list(ctx context.Context, query string, args ...any) ([]Character, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}
	defer rows.Close()

	var characters []Character
	for rows.Next() {
		ch, err := scanCharacter(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning character row: %w", err)
		}
		characters = append(characters, *ch)
	}

	return characters, rows.Err()
}

// IncrementChatCounters bumps the popularity counters for a character.
func (r *characterRepository) IncrementChatCounters(ctx context.Context, id string) error {
	query := `UPDATE characters
	          SET chat_count = chat_count + 1,
	              conversation_count = conversation_count + 1
	          WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("incrementing chat counters: %w", err)
	}

	return nil
}
