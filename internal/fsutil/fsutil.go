// Package fsutil provides small filesystem helpers shared by the cache and
// resolver packages.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// TryReadFile reads a file, treating "does not exist" as an empty result
// rather than an error. Any other read failure is returned as-is.
func TryReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}

	return data, nil
}

// FindEntry probes dir for base with each extension in order and returns the
// first path that exists, or "" if none do.
func FindEntry(dir, base string, exts []string) string {
	for _, ext := range exts {
		path := filepath.Join(dir, base+ext)

		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
