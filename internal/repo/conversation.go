package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/terrainnova-ai/server/internal/core/error"
	"github.com/terrainnova-ai/server/internal/model"
	logx "github.com/terrainnova-ai/server/pkg/logger"
)

type RedisContextRepository struct {
	rdb      redis.Cmdable
	ttl      time.Duration
	maxTurns int
}

func NewRedisContextRepository(rdb redis.Cmdable, ttl time.Duration, maxTurns int) *RedisContextRepository {
	return &RedisContextRepository{rdb: rdb, ttl: ttl, maxTurns: maxTurns}
}

func (r *RedisContextRepository) contextKey(userID string) string {
	return fmt.Sprintf("chat_context:%s", userID)
}

// Append pushes the turns, trims the list to the newest maxTurns and refreshes the
// TTL in one MULTI/EXEC so readers never observe an untrimmed list.
func (r *RedisContextRepository) Append(ctx context.Context, userID string, turns ...model.Turn) error {
	if len(turns) == 0 {
		return nil
	}

	values := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			logx.Error().Err(err).Str("userID", userID).Msg("failed to marshal turn")
			return fmt.Errorf("marshal turn: %w", err)
		}
		values = append(values, b)
	}
	key := r.contextKey(userID)

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if r.maxTurns > 0 {
			pipe.LTrim(ctx, key, int64(-r.maxTurns), -1)
		}
		// extend TTL on touch
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to append turns to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisContextRepository) Load(ctx context.Context, userID string) ([]model.Turn, error) {
	key := r.contextKey(userID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Turn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load context from redis")
		return nil, errx.WrapRedis(err)
	}

	// unreadable elements are skipped; LTRIM eventually pushes them out
	turns := make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		var t model.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Warn().Err(err).Str("key", key).Int("index", i).Msg("skipping unreadable turn")
			continue
		}
		turns = append(turns, t)
	}
	return turns, nil
}

func (r *RedisContextRepository) Clear(ctx context.Context, userID string) error {
	key := r.contextKey(userID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete context from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// IsConfigured reports whether a client is attached.
func (r *RedisContextRepository) IsConfigured() bool {
	return r != nil && r.rdb != nil
}

// Ping checks that Redis answers.
func (r *RedisContextRepository) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

var _ model.ContextRepository = (*RedisContextRepository)(nil)
