package cli

import (
	"fmt"
	"regexp"

	"github.com/gobwas/glob"
)

// Flags holds every option shared by the bumpall commands. The cobra layer
// binds into this struct; ValidateFlags runs before any command body.
type Flags struct {
	BaseDir           string
	CleanCache        bool
	ConfigFile        string
	DryRun            bool
	Exclude           []string
	Filter            string
	Include           []string
	KeepRangeOperator bool
	LegacyPeerDeps    bool
	LogLevel          string
	MaintainSemver    bool
	Minor             bool
	NoInstall         bool
	NoInteractive     bool
	PackageManager    string
	Patch             bool
	PeerDependencies  bool
	Pre               bool
	Production        bool
	Registry          string
	CPUs              int
	Timeout           int
	Update            bool
	UseLatest         bool
	Verbose           bool
	WithWorkspaces    bool
}

func (f *Flags) ValidateFlags() error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[f.LogLevel] {
		return fmt.Errorf("invalid log level: must be one of debug, info, warn, error")
	}

	validPackageManagers := map[string]bool{"npm": true, "yarn": true, "pnpm": true, "bun": true}
	if f.PackageManager != "" && !validPackageManagers[f.PackageManager] {
		return fmt.Errorf("invalid package manager: must be one of npm, yarn, pnpm, bun")
	}

	if f.Minor && f.Patch {
		return fmt.Errorf("--minor and --patch are mutually exclusive")
	}

	if f.Timeout < 1 {
		return fmt.Errorf("timeout must be greater than 0")
	}

	if f.CPUs < 1 {
		return fmt.Errorf("cpus must be greater than 0")
	}

	if f.Filter != "" {
		if _, err := regexp.Compile(f.Filter); err != nil {
			return fmt.Errorf("invalid filter expression: %w", err)
		}
	}

	for _, pattern := range append(append([]string{}, f.Include...), f.Exclude...) {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
	}

	return nil
}
