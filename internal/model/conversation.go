package model

import (
	"context"
	"time"
)

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a user's conversation history.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func UserTurn(content string, at time.Time) Turn {
	return Turn{Role: RoleUser, Content: content, Timestamp: at}
}

func AssistantTurn(content string, at time.Time) Turn {
	return Turn{Role: RoleAssistant, Content: content, Timestamp: at}
}

// ContextRepository is a single backing store for conversation context.
type ContextRepository interface {
	// Load returns the retained turns for a user, oldest first.
	Load(ctx context.Context, userID string) ([]Turn, error)

	// Append adds turns and drops the oldest ones beyond the retained maximum.
	Append(ctx context.Context, userID string, turns ...Turn) error

	// Clear removes all turns for a user.
	Clear(ctx context.Context, userID string) error
}

// ContextStore is the context contract used by the chat flow. Reads and writes
// never fail; a store degrades to its fallback instead.
type ContextStore interface {
	Get(ctx context.Context, userID string) []Turn
	Append(ctx context.Context, userID string, turns ...Turn)
	Clear(ctx context.Context, userID string) error
}
