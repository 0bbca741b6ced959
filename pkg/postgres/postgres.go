package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNotConfigured = errors.New("postgres: connection parameters are not set")

type Config struct {
	Host     string        `envconfig:"DB_HOST"`
	Port     int           `envconfig:"DB_PORT" default:"5432"`
	Name     string        `envconfig:"DB_NAME"`
	User     string        `envconfig:"DB_USER"`
	Password string        `envconfig:"DB_PASSWORD"`
	SSLMode  string        `envconfig:"DB_SSLMODE" default:"disable"`
	TimeZone string        `envconfig:"DB_TIMEZONE" default:"America/La_Paz"`
	MaxOpen  int           `envconfig:"DB_MAX_OPEN" default:"10"`
	MaxIdle  int           `envconfig:"DB_MAX_IDLE" default:"5"`
	MaxLife  time.Duration `envconfig:"DB_MAX_LIFE" default:"30m"`
}

// IsConfigured reports whether host, database and user are set.
func (c *Config) IsConfigured() bool {
	return c.Host != "" && c.Name != "" && c.User != ""
}

// DSN renders the key/value connection string understood by pgx.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode, c.TimeZone,
	)
}

// Open connects to the database described by the config.
func (c *Config) Open() (*gorm.DB, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}
	return OpenDSN(c.DSN(), Pool{MaxOpen: c.MaxOpen, MaxIdle: c.MaxIdle, MaxLife: c.MaxLife})
}

// Pool holds connection pool limits.
type Pool struct {
	MaxOpen int
	MaxIdle int
	MaxLife time.Duration
}

// OpenDSN opens a gorm handle without pinging; the pool dials on first use so a
// database that starts after the service is picked up later.
func OpenDSN(dsn string, pool Pool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying database connection: %w", err)
	}
	if pool.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpen)
	}
	if pool.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdle)
	}
	if pool.MaxLife > 0 {
		sqlDB.SetConnMaxLifetime(pool.MaxLife)
	}

	return db, nil
}

// Ping checks the underlying connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get underlying database connection: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get underlying database connection: %w", err)
	}
	return sqlDB.Close()
}
