// Package config holds the configuration blocks shared by the service
// binaries. Each binary embeds the blocks it needs into its own envconf
// struct.
package config

import (
	"database/sql"
	"time"
)

type PostgresConfig struct {
	DSN             string        `env:"PG_DSN"`
	MaxOpenConns    int           `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"PG_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxIdleTime time.Duration `env:"PG_CONN_MAX_IDLE_TIME" envDefault:"5m"`
	ConnMaxLifetime time.Duration `env:"PG_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// Tune applies the pool limits to an opened database handle.
func (c PostgresConfig) Tune(db *sql.DB) {
	db.SetMaxOpenConns(c.MaxOpenConns)
	db.SetMaxIdleConns(c.MaxIdleConns)
	db.SetConnMaxIdleTime(c.ConnMaxIdleTime)
	db.SetConnMaxLifetime(c.ConnMaxLifetime)
}

// AuthConfig configures the bearer tokens the services exchange. All
// services must share the same secret.
type AuthConfig struct {
	Secret   string        `env:"AUTH_SECRET"`
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"2m"`
}
