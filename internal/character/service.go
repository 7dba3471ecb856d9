package character

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hyy110/SoulMate/internal/apperror"
)

// CharacterService defines the business logic contract for characters.
type CharacterService interface {
	Create(ctx context.Context, creatorID string, req CreateRequest) (*Character, error)
	GetByID(ctx context.Context, id, viewerID string) (*Character, error)
	ListPublic(ctx context.Context) ([]Character, error)
	ListMine(ctx context.Context, creatorID string) ([]Character, error)
}

// characterService implements CharacterService.
type characterService struct {
	repo CharacterRepository
}

// NewCharacterService creates a new character service.
func NewCharacterService(repo CharacterRepository) CharacterService {
	return &characterService{repo: repo}
}

// Create persists a new character owned by the given user.
func (s *characterService) Create(ctx context.Context, creatorID string, req CreateRequest) (*Character, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.NewValidation("name is required")
	}
	if len(name) > 100 {
		return nil, apperror.NewValidation("name must be at most 100 characters")
	}

	gender := req.Gender
	if gender == "" {
		gender = "female"
	}

	now := time.Now().UTC()
	ch := &Character{
		ID:              uuid.NewString(),
		Name:            name,
		AvatarURL:       req.AvatarURL,
		Gender:          gender,
		Description:     req.Description,
		Personality:     req.Personality,
		GreetingMessage: req.GreetingMessage,
		Tags:            req.Tags,
		IsPublic:        req.IsPublic,
		CreatorID:       creatorID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Create(ctx, ch); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating character: %w", err))
	}

	slog.Info("character created",
		slog.String("character_id", ch.ID),
		slog.String("creator_id", creatorID),
	)

	return ch, nil
}

// GetByID returns a character if the viewer is allowed to see it: public
// characters are visible to everyone, private ones only to their creator.
func (s *characterService) GetByID(ctx context.Context, id, viewerID string) (*Character, error) {
	ch, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, wrapRepoErr(err)
	}

	if !ch.IsPublic && ch.CreatorID != viewerID {
		return nil, apperror.NewForbidden("no access to this character")
	}

	return ch, nil
}

// ListPublic returns all public characters.
func (s *characterService) ListPublic(ctx context.Context) ([]Character, error) {
	characters, err := s.repo.ListPublic(ctx)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing public characters: %w", err))
	}
	return characters, nil
}

// ListMine returns all characters created by the given user.
func (s *characterService) ListMine(ctx context.Context, creatorID string) ([]Character, error) {
	characters, err := s.repo.ListByCreator(ctx, creatorID)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("listing own characters: %w", err))
	}
	return characters, nil
}

// wrapRepoErr passes AppErrors through untouched and wraps everything
// else as a 500.
func wrapRepoErr(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.NewInternal(err)
}
