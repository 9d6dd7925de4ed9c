// Package migrations embeds the schema for both supported databases.
// Every statement is idempotent, so migrations run on each start.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

// RunSQLiteMigrations executes all SQLite migrations in order.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	return run(sqliteFS, "sqlite", func(name, stmt string) error {
		_, err := db.ExecContext(ctx, stmt)
		return err
	})
}

// RunPostgresMigrations executes all PostgreSQL migrations in order.
func RunPostgresMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	return run(postgresFS, "postgres", func(name, stmt string) error {
		_, err := pool.Exec(ctx, stmt)
		return err
	})
}

// Files lists the up-migrations for a dialect in execution order.
func Files(dialect string) ([]string, error) {
	fsys, err := dialectFS(dialect)
	if err != nil {
		return nil, err
	}
	return upFiles(fsys, dialect)
}

func dialectFS(dialect string) (fs.FS, error) {
	switch dialect {
	case "sqlite":
		return sqliteFS, nil
	case "postgres":
		return postgresFS, nil
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", dialect)
	}
}

func upFiles(fsys fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func run(fsys fs.FS, dir string, exec func(name, stmt string) error) error {
	files, err := upFiles(fsys, dir)
	if err != nil {
		return err
	}

	for _, file := range files {
		migration, err := fs.ReadFile(fsys, dir+"/"+file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}
		if err := exec(file, string(migration)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", file, err)
		}
	}
	return nil
}
