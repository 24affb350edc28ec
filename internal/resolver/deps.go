package resolver

import (
	"encoding/json"
	"fmt"
)

// Dependency pairs a source file path with the fingerprint of its content at
// the time the artifact was compiled.
type Dependency struct {
	Path        string
	Fingerprint string
}

// MarshalJSON encodes the record as a two-element [path, fingerprint] array
func (d Dependency) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{d.Path, d.Fingerprint})
}

// UnmarshalJSON decodes a [path, fingerprint] array
func (d *Dependency) UnmarshalJSON(data []byte) error {
	var pair [2]string
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("invalid dependency record: %w", err)
	}

	d.Path = pair[0]
	d.Fingerprint = pair[1]

	return nil
}

// depsRecord is the persisted cache payload: one record per file the
// artifact was built from.
type depsRecord struct {
	Files []Dependency `json:"files"`
}

// Paths returns the dependency paths in stored order
func (r depsRecord) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, dep := range r.Files {
		paths[i] = dep.Path
	}

	return paths
}
