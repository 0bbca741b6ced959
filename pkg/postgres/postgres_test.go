package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsConfigured(t *testing.T) {
	cfg := Config{Host: "localhost", Name: "terrainnova"}
	assert.False(t, cfg.IsConfigured())

	cfg.User = "postgres"
	assert.True(t, cfg.IsConfigured())
}

func TestDSN(t *testing.T) {
	cfg := Config{
		Host: "db", Port: 5433, Name: "shop", User: "app", Password: "secret",
		SSLMode: "require", TimeZone: "UTC",
	}
	assert.Equal(t, "host=db user=app password=secret dbname=shop port=5433 sslmode=require TimeZone=UTC", cfg.DSN())
}

func TestOpenNotConfigured(t *testing.T) {
	cfg := Config{}
	_, err := cfg.Open()
	require.ErrorIs(t, err, ErrNotConfigured)
}
