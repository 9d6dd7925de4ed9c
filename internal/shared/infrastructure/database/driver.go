// Package database picks the storage backend for schedule blocks and the
// outbox. Connection helpers live in the postgres and sqlite subpackages.
package database

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDriver is returned for a DATABASE_DRIVER value we cannot serve.
var ErrUnknownDriver = errors.New("unknown database driver")

// Driver names a database backend.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

func (d Driver) String() string {
	return string(d)
}

// IsValid reports whether d is a backend we ship.
func (d Driver) IsValid() bool {
	return d == DriverPostgres || d == DriverSQLite
}

var sqliteSuffixes = []string{".db", ".sqlite", ".sqlite3"}

// DetectDriver guesses the backend from a DSN. An empty DSN means the
// embedded SQLite store; anything unrecognised is handed to Postgres, which
// also accepts key=value connection strings.
func DetectDriver(dsn string) Driver {
	if dsn == "" || dsn == ":memory:" {
		return DriverSQLite
	}
	if scheme, _, ok := strings.Cut(dsn, ":"); ok {
		switch strings.ToLower(scheme) {
		case "postgres", "postgresql":
			return DriverPostgres
		case "sqlite", "file":
			return DriverSQLite
		}
	}
	lower := strings.ToLower(dsn)
	for _, suffix := range sqliteSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return DriverSQLite
		}
	}
	return DriverPostgres
}

// Resolve honours an explicit DATABASE_DRIVER and falls back to DetectDriver
// when it is empty or "auto".
func Resolve(setting, dsn string) (Driver, error) {
	setting = strings.ToLower(strings.TrimSpace(setting))
	if setting == "" || setting == "auto" {
		return DetectDriver(dsn), nil
	}
	if d := Driver(setting); d.IsValid() {
		return d, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDriver, setting)
}
