package errx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestWrapRedis(t *testing.T) {
	require.NoError(t, WrapRedis(nil))

	err := WrapRedis(redis.Nil)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, redis.Nil)

	err = WrapRedis(errors.New("dial tcp: connection refused"))
	assert.Equal(t, http.StatusBadGateway, StatusOf(err))
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.Equal(t, RedisErrorMessage, MessageOf(err))
}

func TestWrapDatabase(t *testing.T) {
	err := WrapDatabase(gorm.ErrRecordNotFound)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, http.StatusNotFound, StatusOf(err))

	err = WrapDatabase(errors.New("connection reset"))
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.Equal(t, http.StatusServiceUnavailable, StatusOf(err))
}

func TestKindsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("upload: %w", NotConfigured("vector index"))

	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NotErrorIs(t, err, ErrDependencyUnavailable)
	assert.Equal(t, "vector index is not configured", MessageOf(err))

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusServiceUnavailable, appErr.Status)
}

func TestPlainErrorsMapToInternal(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.Equal(t, SystemErrorMessage, MessageOf(err))
}
