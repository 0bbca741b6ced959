package conversations

import (
	"context"

	"github.com/terrainnova-ai/server/internal/model"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

const (
	BackendCache  = "redis"
	BackendMemory = "memory"
)

// Store serves conversation context from the cache when one is configured and
// falls back to the in-process repository whenever the cache call fails.
//
// Turns written to the fallback while the cache is down stay there; they are not
// copied into the cache once it recovers.
type Store struct {
	cache    model.ContextRepository // nil when no cache is configured
	fallback model.ContextRepository
}

func NewStore(cache model.ContextRepository, fallback model.ContextRepository) *Store {
	return &Store{cache: cache, fallback: fallback}
}

// Get returns the user's turns, oldest first. It never fails: a cache error is
// served from the fallback, and a total miss is an empty slice.
func (s *Store) Get(ctx context.Context, userID string) []model.Turn {
	turns, _ := s.Load(ctx, userID)
	return turns
}

// Load is Get that also reports which backend answered.
func (s *Store) Load(ctx context.Context, userID string) ([]model.Turn, string) {
	if s.cache != nil {
		turns, err := s.cache.Load(ctx, userID)
		if err == nil {
			return turns, BackendCache
		}
		logx.Warn().Err(err).Str("userID", userID).Msg("context cache unavailable, reading fallback")
	}

	turns, err := s.fallback.Load(ctx, userID)
	if err != nil {
		logx.Error().Err(err).Str("userID", userID).Msg("failed to read fallback context")
		return []model.Turn{}, BackendMemory
	}
	return turns, BackendMemory
}

// Append writes the turns to the cache, or to the fallback if the cache fails.
func (s *Store) Append(ctx context.Context, userID string, turns ...model.Turn) {
	if s.cache != nil {
		err := s.cache.Append(ctx, userID, turns...)
		if err == nil {
			return
		}
		logx.Warn().Err(err).Str("userID", userID).Msg("context cache unavailable, writing fallback")
	}

	if err := s.fallback.Append(ctx, userID, turns...); err != nil {
		logx.Error().Err(err).Str("userID", userID).Msg("failed to write fallback context")
	}
}

// Clear removes the user's turns from both backends so no stale fallback copy
// resurfaces once the cache goes away. A cache failure is returned to the caller.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.fallback.Clear(ctx, userID); err != nil {
		return err
	}
	if s.cache != nil {
		return s.cache.Clear(ctx, userID)
	}
	return nil
}

var _ model.ContextStore = (*Store)(nil)

// RecentTurns returns a copy of the newest max turns.
func RecentTurns(turns []model.Turn, max int) []model.Turn {
	if max <= 0 {
		return []model.Turn{}
	}
	if len(turns) > max {
		turns = turns[len(turns)-max:]
	}
	result := make([]model.Turn, len(turns))
	copy(result, turns)
	return result
}
