// Package security validates operator-supplied paths before they reach the
// filesystem.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InMemoryDatabase is the SQLite path that opens a private in-memory store.
const InMemoryDatabase = ":memory:"

// ErrUnsafePath is returned for paths carrying shell metacharacters.
var ErrUnsafePath = errors.New("path contains a forbidden character")

const forbiddenChars = ";&|$`(){}<>!\n\r"

// ValidateFilePath returns path cleaned, absolute and with symlinks resolved.
// Paths that do not exist yet are returned cleaned.
func ValidateFilePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("file path cannot be empty")
	}
	if i := strings.IndexAny(path, forbiddenChars); i >= 0 {
		return "", fmt.Errorf("%w %q: %s", ErrUnsafePath, path[i], path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	switch {
	case err == nil:
		return resolved, nil
	case errors.Is(err, os.ErrNotExist):
		return abs, nil
	default:
		return "", fmt.Errorf("failed to resolve file path: %w", err)
	}
}

// ValidateDatabasePath checks SQLITE_PATH. The in-memory name passes
// through; an existing directory is rejected.
func ValidateDatabasePath(path string) (string, error) {
	if path == InMemoryDatabase {
		return path, nil
	}
	cleaned, err := ValidateFilePath(path)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(cleaned); err == nil && info.IsDir() {
		return "", fmt.Errorf("database path %s is a directory", cleaned)
	}
	return cleaned, nil
}
