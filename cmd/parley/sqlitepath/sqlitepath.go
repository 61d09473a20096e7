// Package sqlitepath locates the SQLite memory log.
package sqlitepath

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultFileName is the memory log created inside the .parley/ directory.
const DefaultFileName = "parley.db"

// ResolveSQLitePath picks the memory log path. An explicit override wins,
// then PARLEY_SQLITE, then the first existing candidate. When nothing exists
// yet the log is placed in targetDir.
func ResolveSQLitePath(override, targetDir string) (string, error) {
	if override != "" {
		return override, nil
	}

	if envPath := strings.TrimSpace(os.Getenv("PARLEY_SQLITE")); envPath != "" {
		return envPath, nil
	}

	for _, candidate := range sqliteCandidates(targetDir) {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	if targetDir == "" {
		return "", errors.New("could not place the parley SQLite database; pass --sqlite")
	}

	return filepath.Join(targetDir, DefaultFileName), nil
}

func sqliteCandidates(targetDir string) []string {
	var candidates []string
	if targetDir != "" {
		candidates = append(candidates,
			filepath.Join(targetDir, DefaultFileName),
			filepath.Join(targetDir, "parley.sqlite"),
		)
	}

	candidates = append(candidates,
		DefaultFileName,
		filepath.Join(".parley", DefaultFileName),
	)

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".parley", DefaultFileName))
	}

	return candidates
}
