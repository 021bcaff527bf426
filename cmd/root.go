// Package cmd wires the bumpall commands together.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/devbump/bumpall/internal/cache"
	"github.com/devbump/bumpall/internal/cli"
	"github.com/devbump/bumpall/internal/config"
	"github.com/devbump/bumpall/internal/constants"
	"github.com/devbump/bumpall/internal/logger"
	"github.com/devbump/bumpall/internal/packagejson"
	"github.com/devbump/bumpall/internal/packagemanager"
	"github.com/devbump/bumpall/internal/styles"
)

var flags = &cli.Flags{}

var rootCmd = &cobra.Command{
	Use:   "bumpall [dir]",
	Short: "Bump the dependencies of a Node.js project",
	Long: "bumpall inspects a project's package.json, looks up newer versions on the\n" +
		"npm registry, lets you pick the upgrades and rewrites the manifest in place.",
	Args: cobra.MaximumNArgs(1),
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Setup(flags.LogLevel); err != nil {
			return err
		}
		if err := config.Load(flags, cmd.Flags().Changed); err != nil {
			return err
		}
		return flags.ValidateFlags()
	},
	RunE: runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.BaseDir, "dir", "d", "", "Root directory for package search")
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", "", "Path to config file (default: .bumpallrc)")
	rootCmd.PersistentFlags().StringVarP(&flags.PackageManager, "packageManager", "M", "", "Package manager to use (npm, yarn, pnpm, bun)")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "V", false, "Show detailed output")
	rootCmd.PersistentFlags().BoolVarP(&flags.DryRun, "dryRun", "D", false, "Show what would be updated without making changes")
	rootCmd.PersistentFlags().IntVarP(&flags.Timeout, "timeout", "t", 30, "Timeout in seconds for each registry request")
	rootCmd.PersistentFlags().IntVar(&flags.CPUs, "cpus", runtime.NumCPU(), "Number of concurrent registry lookups")

	rootCmd.Flags().BoolVarP(&flags.CleanCache, "cleanCache", "C", false, "Clean the registry cache before running")
	rootCmd.Flags().StringVarP(&flags.Registry, "registry", "r", constants.DefaultRegistry, "NPM registry URL")

	rootCmd.Flags().BoolVar(&flags.Pre, "pre", false, "Consider prerelease versions")
	rootCmd.Flags().BoolVarP(&flags.Minor, "minor", "m", false, "Update to latest minor versions")
	rootCmd.Flags().BoolVarP(&flags.Patch, "patch", "p", false, "Update to latest patch versions")
	rootCmd.Flags().BoolVarP(&flags.MaintainSemver, "semanticVersion", "s", false, "Only pick versions satisfying the declared range")
	rootCmd.Flags().BoolVarP(&flags.KeepRangeOperator, "keepRange", "k", true, "Keep the range operator on updated versions")

	rootCmd.Flags().BoolVarP(&flags.Production, "production", "P", false, "Update only production dependencies")
	rootCmd.Flags().BoolVarP(&flags.PeerDependencies, "includePeer", "i", false, "Include peer dependencies")
	rootCmd.Flags().BoolVarP(&flags.WithWorkspaces, "workspaces", "w", false, "Include workspace packages")

	rootCmd.Flags().BoolVarP(&flags.NoInstall, "noInstall", "n", false, "Do not install packages after updating")
	rootCmd.Flags().BoolVarP(&flags.NoInteractive, "nonInteractive", "x", false, "Non-interactive mode, take every upgrade")

	rootCmd.Flags().StringVarP(&flags.Filter, "filter", "f", "", "Regex to filter package names")
	rootCmd.Flags().StringSliceVarP(&flags.Include, "include", "I", []string{}, "Glob of packages to include (repeatable)")
	rootCmd.Flags().StringSliceVarP(&flags.Exclude, "exclude", "e", []string{}, "Glob of packages to exclude (repeatable)")
}

func runRoot(cmd *cobra.Command, args []string) error {
	baseDir := flags.BaseDir
	if len(args) > 0 {
		baseDir = args[0]
	}

	store, err := cache.NewCache()
	if err != nil {
		fmt.Println(styles.ErrorStyle.Render(err.Error()))
		return err
	}
	defer store.Close()

	if flags.CleanCache {
		if err := store.Clean(); err != nil {
			logger.L().Warnw("could not clean cache", "error", err)
		}
	}

	options := []packagejson.Option{
		packagejson.WithCache(store),
	}

	if flags.PackageManager != "" {
		if pm := packagemanager.FromName(flags.PackageManager); pm != nil {
			options = append(options, packagejson.WithPackageManager(pm))
		}
	}

	if flags.WithWorkspaces {
		options = append(options, packagejson.EnableWorkspaces())
	}

	pkg, err := packagejson.LoadPackageJSON(baseDir, options...)
	if err != nil {
		fmt.Println(styles.ErrorStyle.Render(err.Error()))
		return err
	}

	if err := pkg.ProcessDependencies(flags); err != nil {
		fmt.Println(styles.ErrorStyle.Render(err.Error()))
		return err
	}

	return nil
}

// Execute runs the CLI.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	return rootCmd.Execute()
}
