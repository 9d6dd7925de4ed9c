package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDriver(t *testing.T) {
	cases := map[string]Driver{
		"":                                    DriverSQLite,
		":memory:":                            DriverSQLite,
		"postgres://care:pw@db:5432/careslot": DriverPostgres,
		"PostgreSQL://db/careslot":            DriverPostgres,
		"host=db dbname=careslot sslmode=off": DriverPostgres,
		"sqlite:///var/lib/careslot.sqlite":   DriverSQLite,
		"file:careslot.db?cache=shared":       DriverSQLite,
		"/var/lib/careslot/blocks.DB":         DriverSQLite,
		"./careslot.sqlite3":                  DriverSQLite,
		"mysql://care@db/careslot":            DriverPostgres,
	}

	for dsn, want := range cases {
		t.Run(dsn, func(t *testing.T) {
			assert.Equal(t, want, DetectDriver(dsn))
		})
	}
}

func TestDriver_IsValid(t *testing.T) {
	assert.True(t, DriverPostgres.IsValid())
	assert.True(t, DriverSQLite.IsValid())
	assert.False(t, Driver("mysql").IsValid())
	assert.False(t, Driver("").IsValid())
	assert.Equal(t, "sqlite", DriverSQLite.String())
}

func TestResolve(t *testing.T) {
	tests := []struct {
		setting, dsn string
		want         Driver
	}{
		{setting: "auto", dsn: "postgres://localhost/careslot", want: DriverPostgres},
		{setting: "", dsn: "", want: DriverSQLite},
		{setting: " SQLite ", dsn: "postgres://localhost/careslot", want: DriverSQLite},
		{setting: "postgres", dsn: "", want: DriverPostgres},
	}
	for _, tt := range tests {
		got, err := Resolve(tt.setting, tt.dsn)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "setting %q dsn %q", tt.setting, tt.dsn)
	}

	_, err := Resolve("mysql", "")
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
