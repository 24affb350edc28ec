package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/confload/confload/internal/config"
	"github.com/confload/confload/internal/diag"
	"github.com/confload/confload/internal/resolver"
)

var cleanCmd = &cobra.Command{
	Use:          "clean [name]",
	Short:        "Remove compile caches",
	Long:         `Remove the compile cache for a configuration name, or all caches.`,
	RunE:         runClean,
	SilenceUsage: true,
	Args:         cobra.MaximumNArgs(1),
}

func runClean(cmd *cobra.Command, args []string) error {
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

	target := cfg.CacheDir
	if len(args) == 1 {
		if !resolver.ValidName(args[0]) {
			return fmt.Errorf("invalid configuration name: %q", args[0])
		}

		target = filepath.Join(cfg.CacheDir, args[0])
	}

	if err := os.RemoveAll(target); err != nil {
		return fmt.Errorf("failed to remove cache: %w", err)
	}

	if cfg.Verbose {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("Removed"), target)
	}

	return nil
}
