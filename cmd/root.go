package cmd

import (
	"fmt"
	"os"

	"github.com/confload/confload/internal/version"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "confload",
	Short:        "Executable configuration loader",
	Long:         `Compile, cache and execute <name>.config files written as code.`,
	RunE:         runResolve,
	SilenceUsage: true,
	Args:         cobra.ArbitraryArgs,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (%s) %s", version.Version, version.Commit, version.BuildTime)
	rootCmd.PersistentFlags().StringP("dir", "d", "", "Directory searched for config entry files")
	rootCmd.PersistentFlags().String("cache-dir", "", "Root directory for compile caches")
	rootCmd.PersistentFlags().String("color", "auto", "Color diagnostics (auto, always, never)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable the compile cache")
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(cleanCmd)
}
