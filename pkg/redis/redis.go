package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNotConfigured = errors.New("redis: REDIS_URL is not set")

type Config struct {
	URL          string `envconfig:"REDIS_URL"`
	ReadTimeout  int    `envconfig:"REDIS_READ_TIMEOUT" default:"3"`
	WriteTimeout int    `envconfig:"REDIS_WRITE_TIMEOUT" default:"3"`
	DialTimeout  int    `envconfig:"REDIS_DIAL_TIMEOUT" default:"5"`
	PoolSize     int    `envconfig:"REDIS_POOL_SIZE" default:"10"`
}

// IsConfigured reports whether a Redis URL was provided.
func (r *Config) IsConfigured() bool {
	return r.URL != ""
}

// Open builds a client without contacting the server. The pool connects lazily,
// so a Redis that comes up after the service still gets used.
func (r *Config) Open() (*redis.Client, error) {
	if !r.IsConfigured() {
		return nil, ErrNotConfigured
	}

	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, err
	}

	opts.ReadTimeout = time.Duration(r.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(r.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(r.DialTimeout) * time.Second
	if r.PoolSize > 0 {
		opts.PoolSize = r.PoolSize
	}

	return redis.NewClient(opts), nil
}

// New opens a client and verifies the connection with PING.
func (r *Config) New(ctx context.Context) (*redis.Client, error) {
	client, err := r.Open()
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx).Err(); err != nil {
		return client, err
	}

	return client, nil
}
