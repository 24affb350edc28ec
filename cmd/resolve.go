package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/confload/confload/internal/bundler"
	"github.com/confload/confload/internal/config"
	"github.com/confload/confload/internal/diag"
	"github.com/confload/confload/internal/jsruntime"
	"github.com/confload/confload/internal/resolver"
)

var resolveCmd = &cobra.Command{
	Use:          "resolve <name>",
	Short:        "Resolve an executable configuration",
	Long:         `Compile <name>.config if needed and print the configuration it exports.`,
	RunE:         runResolve,
	SilenceUsage: true,
}

func runResolve(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("requires exactly one configuration name argument")
	}

	name := args[0]

	searchDir, _ := cmd.Flags().GetString("dir")
	if searchDir == "" {
		searchDir = "."
	}

	loader := config.NewLoader()
	cfg, err := loader.LoadForResolve(cmd, searchDir)
	if err != nil {
		return err
	}

	diag.SetMode(diag.Mode(cfg.Color))

	r := &resolver.Resolver{
		Dir:       cfg.Dir,
		CacheRoot: cfg.CacheDir,
		NoCache:   cfg.NoCache,
		Compiler:  bundler.New(cfg.Dir),
		Loader:    jsruntime.New(),
	}

	result, err := r.Resolve(cmd.Context(), name)
	if err != nil {
		return err
	}

	if result == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "no configuration found for %q\n", name)
		return nil
	}

	if cfg.Verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.CyanString("Files:"), strings.Join(result.Files, ", "))
	}

	out, err := json.MarshalIndent(result.Config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	return nil
}
