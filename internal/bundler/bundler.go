// Package bundler compiles an entry file and its local imports into a single
// CommonJS artifact using esbuild.
package bundler

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/confload/confload/internal/diag"
	"github.com/confload/confload/internal/resolver"
)

// Bundler implements resolver.Compiler on top of the esbuild build API
type Bundler struct {
	// Dir is the working directory imports and reported input paths are
	// resolved against. Empty means the process working directory.
	Dir string
}

// New creates a bundler rooted at dir
func New(dir string) *Bundler {
	return &Bundler{Dir: dir}
}

// Compile bundles entry into outfile and reports every file it read.
// Errors are formatted and printed before the call fails; warnings are
// printed only when there were no errors.
func (b *Bundler) Compile(ctx context.Context, entry, outfile string) (*resolver.CompileResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := b.Dir
	if dir == "" {
		dir = "."
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory: %w", err)
	}

	absEntry, err := filepath.Abs(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve entry path: %w", err)
	}

	absOutfile, err := filepath.Abs(outfile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve artifact path: %w", err)
	}

	result := api.Build(api.BuildOptions{
		EntryPoints:   []string{absEntry},
		Outfile:       absOutfile,
		AbsWorkingDir: absDir,
		Bundle:        true,
		Write:         true,
		Metafile:      true,
		Format:        api.FormatCommonJS,
		Platform:      api.PlatformNode,
		LogLevel:      api.LogLevelSilent,
		Plugins:       []api.Plugin{externalizeBare()},
	})

	if len(result.Errors) > 0 {
		diag.PrintErrors(result.Errors)
		return nil, fmt.Errorf("failed to compile %s: %d error(s)", filepath.Base(entry), len(result.Errors))
	}

	diag.PrintWarnings(result.Warnings)

	inputs, err := metafileInputs(result.Metafile)
	if err != nil {
		return nil, err
	}

	return &resolver.CompileResult{Inputs: inputs}, nil
}

// externalizeBare marks every import that is not relative or absolute as
// external, so packages resolved through node_modules are neither bundled
// nor tracked as dependencies.
func externalizeBare() api.Plugin {
	return api.Plugin{
		Name: "externalize-bare",
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: `.*`}, func(args api.OnResolveArgs) (api.OnResolveResult, error) {
				if args.Kind == api.ResolveEntryPoint {
					return api.OnResolveResult{}, nil
				}

				if strings.HasPrefix(args.Path, ".") || filepath.IsAbs(args.Path) {
					return api.OnResolveResult{}, nil
				}

				return api.OnResolveResult{Path: args.Path, External: true}, nil
			})
		},
	}
}

// metafileInputs extracts the files esbuild actually read, sorted for a
// stable dependency order across rebuilds.
func metafileInputs(metafile string) ([]string, error) {
	var meta struct {
		Inputs map[string]json.RawMessage `json:"inputs"`
	}

	if err := json.Unmarshal([]byte(metafile), &meta); err != nil {
		return nil, fmt.Errorf("failed to parse build metafile: %w", err)
	}

	inputs := make([]string, 0, len(meta.Inputs))
	for path := range meta.Inputs {
		inputs = append(inputs, path)
	}

	sort.Strings(inputs)

	return inputs, nil
}
