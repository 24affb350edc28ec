// Package cache persists small versioned JSON payloads and provides the
// content fingerprinting used for cache validation.
//
// A Store owns a single JSON document at a fixed path. Every document carries
// a schemaVersion field; a stored version that differs from the caller's
// expected version makes the whole document read as absent, so an
// incompatible change to the payload shape invalidates all existing caches by
// bumping one constant instead of migrating files.
package cache

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/confload/confload/internal/fsutil"
)

// Store reads and writes one versioned JSON document at a fixed path.
type Store struct {
	path    string
	version int
}

// New creates a store for the document at path, gated on version.
func New(path string, version int) *Store {
	return &Store{
		path:    path,
		version: version,
	}
}

// Read decodes the stored payload into out.
// Returns false if the document does not exist or its schemaVersion differs
// from the store's version. A document that exists but cannot be parsed as
// JSON is a fatal error, not a miss.
func (s *Store) Read(out any) (bool, error) {
	data, err := fsutil.TryReadFile(s.path)
	if err != nil {
		return false, err
	}

	if data == nil {
		return false, nil // Cache miss
	}

	var header struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return false, fmt.Errorf("failed to parse cache file %s: %w", s.path, err)
	}

	if header.SchemaVersion != s.version {
		return false, nil // Stale schema, treat as miss
	}

	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to parse cache file %s: %w", s.path, err)
	}

	return true, nil
}

// Write replaces the stored document with payload stamped with the store's
// schema version. The containing directory must already exist.
func (s *Store) Write(payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}

	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("cache payload must be a JSON object: %w", err)
	}

	version, err := json.Marshal(s.version)
	if err != nil {
		return fmt.Errorf("failed to encode schema version: %w", err)
	}

	doc["schemaVersion"] = version

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}

	return os.WriteFile(s.path, append(data, '\n'), 0o644)
}
