package localstate

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	envHome      = "TRAVELMAP_HOME" // override for tests
	dirName      = ".travelmap"     // default under $HOME
	jsonFilename = "memories.json"
	dbFilename   = "memories.db"
)

// DataDir returns the directory where the journal is stored (~/.travelmap).
// override wins over the environment; both are optional.
// It creates the directory with 0700 permissions if it does not exist.
func DataDir(override string) (string, error) {
	dir := override
	if dir == "" {
		dir = os.Getenv(envHome)
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine user home: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

// JSONPath returns the absolute path to the JSON slot file.
func JSONPath(override string) (string, error) {
	dir, err := DataDir(override)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, jsonFilename), nil
}

// DBPath returns the absolute path to the SQLite database file.
func DBPath(override string) (string, error) {
	dir, err := DataDir(override)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbFilename), nil
}
