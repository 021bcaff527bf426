// Package packagemanager detects which Node package manager owns a project
// and builds the commands bumpall shells out to.
package packagemanager

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/devbump/bumpall/internal/logger"
	"gopkg.in/yaml.v3"
)

type PackageManager struct {
	Name     string
	LockFile string
}

var (
	Bun = PackageManager{
		Name:     "bun",
		LockFile: "bun.lockb",
	}

	Yarn = PackageManager{
		Name:     "yarn",
		LockFile: "yarn.lock",
	}

	Pnpm = PackageManager{
		Name:     "pnpm",
		LockFile: "pnpm-lock.yaml",
	}

	Npm = PackageManager{
		Name:     "npm",
		LockFile: "package-lock.json",
	}
)

var byName = map[string]PackageManager{
	"bun":  Bun,
	"yarn": Yarn,
	"pnpm": Pnpm,
	"npm":  Npm,
}

// Detect resolves the package manager for a project. The package.json
// "packageManager" field ("pnpm@8.15.0") wins, then lockfiles in priority
// order, then npm.
func Detect(projectPath, managerField string) *PackageManager {
	if managerField != "" {
		name := strings.TrimLeft(managerField, "^~")
		if i := strings.IndexByte(name, '@'); i > 0 {
			name = name[:i]
		}
		if pm, ok := byName[name]; ok {
			return &pm
		}
	}

	lockFiles := []PackageManager{Bun, Yarn, Pnpm, Npm}
	for _, pm := range lockFiles {
		lockPath := filepath.Join(projectPath, pm.LockFile)
		if _, err := os.Stat(lockPath); err == nil {
			pm := pm
			return &pm
		}
	}

	npm := Npm
	return &npm
}

// FromName returns the package manager selected by flag, or nil for an
// unknown name.
func FromName(name string) *PackageManager {
	if pm, ok := byName[name]; ok {
		return &pm
	}
	return nil
}

// command returns the executable name, accounting for the .cmd shims npm and
// friends install on Windows.
func (pm *PackageManager) command() string {
	if runtime.GOOS == "windows" {
		switch pm.Name {
		case "npm", "pnpm", "yarn":
			return pm.Name + ".cmd"
		}
	}
	return pm.Name
}

// Outdated runs the manager's outdated query and returns its parseable
// output. npm exits non-zero when anything is outdated, so the exit status is
// only an error when no output was produced.
func (pm *PackageManager) Outdated(dir string) (string, error) {
	if pm.Name != "npm" {
		return "", fmt.Errorf("%s does not support a parseable outdated query; run with --packageManager npm", pm.Name)
	}

	cmd := exec.Command(pm.command(), "outdated", "--parseable")
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.L().Debugw("running outdated query", "cmd", pm.command(), "dir", dir)

	if err := cmd.Run(); err != nil {
		// Exit code 1 with output just means "outdated packages exist".
		if stdout.Len() == 0 && stderr.Len() > 0 {
			return "", fmt.Errorf("%s outdated failed: %s", pm.Name, strings.TrimSpace(stderr.String()))
		}
		if _, ok := err.(*exec.ExitError); !ok {
			return "", fmt.Errorf("could not run %s: %w", pm.Name, err)
		}
	}

	return stdout.String(), nil
}

// Install runs a plain install in dir, syncing the lockfile with the
// rewritten manifest.
func (pm *PackageManager) Install(dir string, verbose bool) error {
	return pm.run(dir, verbose, "install")
}

// InstallPackages installs explicit name@version specs, used by the outdated
// --update path. extraArgs carries passthroughs such as --legacy-peer-deps.
func (pm *PackageManager) InstallPackages(dir string, specs, extraArgs []string, verbose bool) error {
	if len(specs) == 0 {
		return nil
	}

	verb := "add"
	if pm.Name == "npm" {
		verb = "install"
	}

	args := append([]string{verb}, specs...)
	args = append(args, extraArgs...)

	return pm.run(dir, verbose, args...)
}

func (pm *PackageManager) run(dir string, verbose bool, args ...string) error {
	cmd := exec.Command(pm.command(), args...)
	cmd.Dir = dir

	if verbose {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}

	logger.L().Debugw("running package manager", "cmd", pm.command(), "args", args)

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s failed: %w", pm.Name, strings.Join(args, " "), err)
	}

	return nil
}

type pnpmWorkspace struct {
	Packages []string `yaml:"packages"`
}

// GetWorkspacesPaths expands the workspace globs of a project into the list
// of member directories containing a package.json. For pnpm projects the
// patterns come from pnpm-workspace.yaml; otherwise from the manifest's
// "workspaces" array.
func (pm *PackageManager) GetWorkspacesPaths(dir string, patterns []string) []string {
	if pm.Name == "pnpm" {
		data, err := os.ReadFile(filepath.Join(dir, "pnpm-workspace.yaml"))
		if err == nil {
			var ws pnpmWorkspace
			if err := yaml.Unmarshal(data, &ws); err == nil && len(ws.Packages) > 0 {
				patterns = ws.Packages
			}
		}
	}

	seen := map[string]struct{}{}
	var paths []string

	for _, pattern := range patterns {
		negated := strings.HasPrefix(pattern, "!")
		if negated {
			pattern = pattern[1:]
		}

		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || !info.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(match, "package.json")); err != nil {
				continue
			}

			if negated {
				delete(seen, match)
				continue
			}
			seen[match] = struct{}{}
		}
	}

	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	return paths
}
