// Package resolver loads a project's executable configuration file,
// recompiling it only when one of its source files actually changed.
//
// The entry file is <name>.config with one of the supported extensions. It is
// compiled into a per-name cache directory together with every local file it
// imports; packages resolved through node_modules stay external. The cache
// directory holds the compiled artifact, a package marker fixing its
// execution mode, and a dependency set: one (path, fingerprint) record per
// input file. On the next resolution the cache is valid only if every
// recorded file still exists with an unchanged fingerprint — any mismatch
// rebuilds everything.
//
// Compilation and execution are injected capabilities (Compiler, Loader) so
// callers can substitute test doubles.
package resolver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/confload/confload/internal/cache"
	"github.com/confload/confload/internal/fsutil"
)

const (
	// depsSchemaVersion gates the persisted dependency set.
	// Bump whenever the Dependency record shape changes.
	depsSchemaVersion = 2

	// ExportName is the export a compiled configuration must expose
	ExportName = "config"

	// DefaultCacheDir is the default cache root directory name
	DefaultCacheDir = ".confload-cache"

	depsFileName     = "deps.json"
	artifactFileName = "config.js"
	markerFileName   = "package.json"
)

// Extensions are the entry file extensions probed, in order
var Extensions = []string{".ts", ".mts", ".js", ".mjs"}

// CompileResult is what the bundling capability reports for a successful
// compile: the input files it actually read, entry file included. Paths are
// relative to the resolver's working directory unless absolute.
type CompileResult struct {
	Inputs []string
}

// Compiler bundles an entry file and its local imports into a single
// executable artifact at outfile.
type Compiler interface {
	Compile(ctx context.Context, entry, outfile string) (*CompileResult, error)
}

// Loader executes a compiled artifact and returns its configuration export,
// or nil if the artifact has none. token must make repeated loads of the same
// path within one process distinct, so a freshly rebuilt artifact is never
// shadowed by a previously loaded module.
type Loader interface {
	LoadFresh(ctx context.Context, artifact, token string) (*Export, error)
}

// Export is the configuration export of an executed artifact: either an
// immediate value, or a deferred producer that must be invoked to obtain it.
// Exactly one of the two fields is set.
type Export struct {
	Value    any
	Producer func(ctx context.Context) (any, error)
}

// Result holds a resolved configuration and the files it was built from
type Result struct {
	Config any
	Files  []string
}

// Resolver orchestrates existence check, cache validation, compilation and
// execution for named configuration files.
type Resolver struct {
	// Dir is the directory searched for entry files. Empty means "."
	Dir string

	// CacheRoot is the root directory for per-name caches.
	// Empty means DefaultCacheDir under Dir.
	CacheRoot string

	// NoCache forces recompilation even when the cache is valid
	NoCache bool

	Compiler Compiler
	Loader   Loader
}

// ValidName reports whether name can own a private cache directory.
// Path separators and traversal elements would escape the cache root.
func ValidName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}

	return !strings.ContainsAny(name, `/\`)
}

// Resolve returns the configuration exported by <name>.config and the list
// of files it depends on. Returns nil if no entry file exists.
func (r *Resolver) Resolve(ctx context.Context, name string) (*Result, error) {
	if !ValidName(name) {
		return nil, fmt.Errorf("invalid configuration name: %q", name)
	}

	entry := fsutil.FindEntry(r.dir(), name+".config", Extensions)
	if entry == "" {
		return nil, nil // No configuration requested
	}

	cacheDir := r.CacheDir(name)
	artifact := filepath.Join(cacheDir, artifactFileName)
	store := cache.New(filepath.Join(cacheDir, depsFileName), depsSchemaVersion)

	var record depsRecord
	found, err := store.Read(&record)
	if err != nil {
		return nil, err
	}

	valid := found && !r.NoCache
	if valid {
		valid, err = r.fresh(record.Files)
		if err != nil {
			return nil, err
		}
	}

	var files []string
	if valid {
		files = record.Paths()
	} else {
		files, err = r.compile(ctx, entry, cacheDir, artifact, store)
		if err != nil {
			return nil, err
		}
	}

	token := strconv.FormatInt(time.Now().UnixNano(), 10)
	export, err := r.Loader.LoadFresh(ctx, artifact, token)
	if err != nil {
		return nil, err
	}

	if export == nil {
		return nil, fmt.Errorf("no %q export found in %s", ExportName, filepath.Base(entry))
	}

	config := export.Value
	if export.Producer != nil {
		config, err = export.Producer(ctx)
		if err != nil {
			return nil, err
		}
	}

	return &Result{
		Config: config,
		Files:  files,
	}, nil
}

// compile rebuilds the artifact and replaces the persisted dependency set.
// The cache is written only after compilation fully succeeded.
func (r *Resolver) compile(ctx context.Context, entry, cacheDir, artifact string, store *cache.Store) ([]string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	result, err := r.Compiler.Compile(ctx, entry, artifact)
	if err != nil {
		return nil, err
	}

	deps := make([]Dependency, 0, len(result.Inputs))
	for _, input := range result.Inputs {
		fingerprint, err := cache.HashFile(r.depPath(input))
		if err != nil {
			return nil, fmt.Errorf("failed to fingerprint %s: %w", input, err)
		}

		deps = append(deps, Dependency{Path: input, Fingerprint: fingerprint})
	}

	if err := store.Write(depsRecord{Files: deps}); err != nil {
		return nil, err
	}

	if err := writeMarker(cacheDir); err != nil {
		return nil, err
	}

	return result.Inputs, nil
}

// fresh reports whether every recorded dependency still exists with an
// unchanged fingerprint. A deleted file is a stale cache, not an error.
func (r *Resolver) fresh(deps []Dependency) (bool, error) {
	for _, dep := range deps {
		data, err := fsutil.TryReadFile(r.depPath(dep.Path))
		if err != nil {
			return false, err
		}

		if data == nil {
			return false, nil
		}

		if cache.Hash(data) != dep.Fingerprint {
			return false, nil
		}
	}

	return true, nil
}

// CacheDir returns the private cache directory for name.
// name must satisfy ValidName; anything else could escape the cache root.
func (r *Resolver) CacheDir(name string) string {
	root := r.CacheRoot
	if root == "" {
		root = filepath.Join(r.dir(), DefaultCacheDir)
	}

	return filepath.Join(root, name)
}

func (r *Resolver) dir() string {
	if r.Dir == "" {
		return "."
	}

	return r.Dir
}

func (r *Resolver) depPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(r.dir(), path)
}

// writeMarker pins the artifact's execution mode. The artifact is CommonJS,
// so anything executing files out of the cache directory must not treat it
// as an ES module.
func writeMarker(dir string) error {
	marker := []byte("{\n  \"type\": \"commonjs\"\n}\n")

	if err := os.WriteFile(filepath.Join(dir, markerFileName), marker, 0o644); err != nil {
		return fmt.Errorf("failed to write package marker: %w", err)
	}

	return nil
}
