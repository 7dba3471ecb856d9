// Package character provides the AI character profiles users chat with:
// creation, lookup, and the public/private visibility rules. The
// conversation package consumes this package's lookups when starting a
// chat (greeting seed, popularity counters).
package character

import (
	"time"
)

// Character is an AI persona created by a user. Public characters can be
// chatted with by anyone; private ones only by their creator.
type Character struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	AvatarURL         *string   `json:"avatar_url"`
	Gender            string    `json:"gender"`
	Description       *string   `json:"description"`
	Personality       *string   `json:"personality"`
	GreetingMessage   *string   `json:"greeting_message"`
	Tags              []string  `json:"tags"`
	IsPublic          bool      `json:"is_public"`
	LikeCount         int       `json:"like_count"`
	ChatCount         int       `json:"chat_count"`
	ConversationCount int       `json:"conversation_count"`
	CreatorID         string    `json:"creator_id"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateRequest holds the data submitted to POST /api/characters.
type CreateRequest struct {
	Name            string   `json:"name"`
	AvatarURL       *string  `json:"avatar_url"`
	Gender          string   `json:"gender"`
	Description     *string  `json:"description"`
	Personality     *string  `json:"personality"`
	GreetingMessage *string  `json:"greeting_message"`
	Tags            []string `json:"tags"`
	IsPublic        bool     `json:"is_public"`
}
