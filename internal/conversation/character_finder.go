package conversation

import (
	"context"

	"github.com/hyy110/SoulMate/internal/character"
)

// CharacterInfo is the slice of a character this package needs when
// starting conversations and generating replies.
type CharacterInfo struct {
	ID              string
	Name            string
	GreetingMessage *string
	IsPublic        bool
	CreatorID       string
}

// CharacterFinder is the lookup contract this package consumes. The
// character package provides the implementation; keeping the interface
// here means only the adapter file below references character types.
type CharacterFinder interface {
	FindCharacter(ctx context.Context, id string) (*CharacterInfo, error)
	IncrementChatCounters(ctx context.Context, id string) error
}

// CharacterFinderAdapter wraps character.CharacterRepository to satisfy
// CharacterFinder.
type CharacterFinderAdapter struct {
	repo character.CharacterRepository
}

// NewCharacterFinderAdapter creates a new adapter around the character
// repository.
func NewCharacterFinderAdapter(repo character.CharacterRepository) CharacterFinder {
	return &CharacterFinderAdapter{repo: repo}
}

// FindCharacter looks up a character by ID and maps it to CharacterInfo.
func (a *CharacterFinderAdapter) FindCharacter(ctx context.Context, id string) (*CharacterInfo, error) {
	ch, err := a.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CharacterInfo{
		ID:              ch.ID,
		Name:            ch.Name,
		GreetingMessage: ch.GreetingMessage,
		IsPublic:        ch.IsPublic,
		CreatorID:       ch.CreatorID,
	}, nil
}

// IncrementChatCounters bumps the character's popularity counters.
func (a *CharacterFinderAdapter) IncrementChatCounters(ctx context.Context, id string) error {
	return a.repo.IncrementChatCounters(ctx, id)
}
