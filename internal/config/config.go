// Package config collects the environment-driven settings for the migration
// binaries. Values are plain env vars; cmd mains load a .env file first via
// godotenv so local runs work without exporting anything.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds everything the migration run needs to reach its source
// snapshots and the target database.
type Config struct {
	// TargetURL is the target connection string, e.g.
	// postgres://localhost:5432/pricearchive?sslmode=disable.
	TargetURL      string
	TargetUser     string
	TargetPassword string
	// SourceRoot is the directory holding the timestamped snapshot folders.
	SourceRoot string
	// Timezone interprets snapshot folder names; empty means local time.
	Timezone string
}

func FromEnv() Config {
	return Config{
		TargetURL:      os.Getenv("TARGET_DB_URL"),
		TargetUser:     os.Getenv("TARGET_DB_USER"),
		TargetPassword: os.Getenv("TARGET_DB_PASSWORD"),
		SourceRoot:     os.Getenv("SOURCE_ROOT"),
		Timezone:       os.Getenv("MIGRATION_TZ"),
	}
}

func (c Config) Validate() error {
	if c.TargetURL == "" {
		return fmt.Errorf("TARGET_DB_URL is required")
	}
	if c.SourceRoot == "" {
		return fmt.Errorf("SOURCE_ROOT is required")
	}
	return nil
}

// TargetDSN returns the connection string with the configured user and
// credential injected (URL-encoded). When no user is configured the URL is
// passed through untouched so fully-formed DSNs keep working.
func (c Config) TargetDSN() string {
	if c.TargetUser == "" {
		return c.TargetURL
	}
	u, err := url.Parse(c.TargetURL)
	if err != nil {
		return c.TargetURL
	}
	u.User = url.UserPassword(c.TargetUser, c.TargetPassword)
	return u.String()
}

// Location resolves the configured timezone, defaulting to local time.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
