// Package packagejson loads a project manifest (and its workspace members),
// collects the declared dependencies and rewrites the files in place once new
// versions are picked.
package packagejson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/devbump/bumpall/internal/cache"
	"github.com/devbump/bumpall/internal/cli"
	"github.com/devbump/bumpall/internal/constants"
	"github.com/devbump/bumpall/internal/dependency"
	"github.com/devbump/bumpall/internal/logger"
	"github.com/devbump/bumpall/internal/packagemanager"
	"github.com/devbump/bumpall/internal/styles"
	"github.com/devbump/bumpall/internal/ui"
	"github.com/devbump/bumpall/internal/updater"
	"github.com/iancoleman/orderedmap"
)

// packageManagerRegex splits the manifest's packageManager field
// ("^pnpm@8.15.0") into range prefix, name and version.
var packageManagerRegex = regexp.MustCompile(`^([~^]?)([a-zA-Z0-9-]+)@(.+)$`)

type Option func(*PackageJSON) error

type PackageJSON struct {
	packageFilePath   string
	Dir               string
	PackageManager    *packagemanager.PackageManager
	workspacesPkgs    map[string]*PackageJSON
	processWorkspaces bool
	cache             *cache.Cache
	manifest          struct {
		Manager          string            `json:"packageManager,omitempty"`
		Dependencies     map[string]string `json:"dependencies,omitempty"`
		DevDependencies  map[string]string `json:"devDependencies,omitempty"`
		PeerDependencies map[string]string `json:"peerDependencies,omitempty"`
		Workspaces       []string          `json:"workspaces,omitempty"`
	}
}

func WithPackageManager(pm *packagemanager.PackageManager) Option {
	return func(p *PackageJSON) error {
		p.PackageManager = pm

		return nil
	}
}

func WithCache(cache *cache.Cache) Option {
	return func(p *PackageJSON) error {
		p.cache = cache

		return nil
	}
}

func EnableWorkspaces() Option {
	return func(p *PackageJSON) error {
		p.processWorkspaces = true
		return nil
	}
}

func LoadPackageJSON(dir string, opts ...Option) (*PackageJSON, error) {
	if dir == "" {
		dir = "."
	}

	pkg := &PackageJSON{
		Dir: dir,
	}

	fullPath := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", fullPath, err)
	}

	pkg.packageFilePath = fullPath
	if err := json.Unmarshal(data, &pkg.manifest); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fullPath, err)
	}

	pkg.workspacesPkgs = make(map[string]*PackageJSON)

	for _, opt := range opts {
		if err := opt(pkg); err != nil {
			return nil, fmt.Errorf("error applying option: %w", err)
		}
	}

	if pkg.PackageManager == nil {
		pkg.PackageManager = packagemanager.Detect(pkg.Dir, pkg.manifest.Manager)
	}

	if pkg.processWorkspaces {
		for _, workspacePath := range pkg.PackageManager.GetWorkspacesPaths(pkg.Dir, pkg.manifest.Workspaces) {
			if _, ok := pkg.workspacesPkgs[workspacePath]; ok {
				continue
			}

			workspacePkg, err := LoadPackageJSON(
				workspacePath,
				WithPackageManager(pkg.PackageManager),
				WithCache(pkg.cache),
			)
			if err != nil {
				logger.L().Warnw("skipping workspace", "path", workspacePath, "error", err)
				continue
			}

			pkg.workspacesPkgs[workspacePath] = workspacePkg
		}
	}

	pkg.workspacesPkgs[pkg.Dir] = pkg

	return pkg, nil
}

// Workspaces exposes the loaded manifests keyed by directory (the root
// included).
func (p *PackageJSON) Workspaces() map[string]*PackageJSON {
	return p.workspacesPkgs
}

// CollectDependencies flattens every workspace's manifest sections into one
// dependency list, honoring the production/peer toggles and the
// filter/include/exclude flags.
func (p *PackageJSON) CollectDependencies(flags *cli.Flags) dependency.Dependencies {
	var allDeps dependency.Dependencies

	for workspace, pkg := range p.workspacesPkgs {
		if pkg.manifest.Manager != "" {
			matches := packageManagerRegex.FindStringSubmatch(pkg.manifest.Manager)
			if len(matches) == 4 {
				prefix, name, version := matches[1], matches[2], matches[3]

				d, err := dependency.NewDependency(name, prefix+version, constants.PackageManager, workspace)
				if err == nil {
					d.PackageNamePrefix = prefix
					allDeps = append(allDeps, d)
				}
			}
		}

		for name, version := range pkg.manifest.Dependencies {
			d, err := dependency.NewDependency(name, version, constants.Dependencies, workspace)
			if err != nil {
				continue
			}
			allDeps = append(allDeps, d)
		}

		if flags.Production {
			continue
		}

		for name, version := range pkg.manifest.DevDependencies {
			d, err := dependency.NewDependency(name, version, constants.DevDependencies, workspace)
			if err != nil {
				continue
			}
			allDeps = append(allDeps, d)
		}

		if flags.PeerDependencies {
			for name, version := range pkg.manifest.PeerDependencies {
				d, err := dependency.NewDependency(name, version, constants.PeerDependencies, workspace)
				if err != nil {
					continue
				}
				allDeps = append(allDeps, d)
			}
		}
	}

	if flags.Filter != "" {
		allDeps = allDeps.FilterByRegex(flags.Filter)
	}
	allDeps = allDeps.FilterByGlobs(flags.Include, flags.Exclude)

	sort.Sort(allDeps)

	return allDeps
}

// ProcessDependencies runs the whole pipeline: fetch, select, rewrite,
// install.
func (p *PackageJSON) ProcessDependencies(flags *cli.Flags) error {
	allDeps := p.CollectDependencies(flags)

	depsByWorkspace, err := resolveUpdates(allDeps, flags, p.cache)
	if err != nil {
		return err
	}

	updated := false
	for workspace, pkg := range p.workspacesPkgs {
		deps, ok := depsByWorkspace[workspace]
		if !ok {
			continue
		}
		if err := pkg.UpdatePackageJSON(flags, deps); err != nil {
			logger.L().Errorw("failed to update manifest", "workspace", workspace, "error", err)
			continue
		}
		updated = true
	}

	if !updated {
		return errors.New("failed to update package.json")
	}

	fmt.Println(styles.SuccessStyle.Render("🎉 All dependencies updated successfully!"))

	return nil
}

// resolveUpdates fetches new versions for every dependency (worker pool plus
// progress bar), lets the user pick unless non-interactive, and groups the
// chosen updates per workspace.
func resolveUpdates(allDeps dependency.Dependencies, flags *cli.Flags, store *cache.Cache) (map[string]dependency.Dependencies, error) {
	totalDeps := len(allDeps)
	if totalDeps == 0 {
		return nil, errors.New("no dependencies to update")
	}

	currentPackageName := make(chan string, totalDeps)
	dependencyProcessed := make(chan bool, totalDeps)

	var bar *ui.ProgressProgram
	if !flags.NoInteractive {
		bar = ui.ShowProgressBar(totalDeps)
	}

	fetchDone := make(chan struct{})
	go func() {
		defer close(fetchDone)
		updater.FetchNewVersions(allDeps, flags, dependencyProcessed, currentPackageName, store)
	}()

	go func() {
		currentProcessed := 0
		for currentProcessed < totalDeps {
			select {
			case packageName := <-currentPackageName:
				if bar != nil {
					bar.SendPackageName(packageName)
				}
			case <-dependencyProcessed:
				currentProcessed++
				if bar != nil {
					bar.SendProgress(float64(currentProcessed)/float64(totalDeps), currentProcessed)
				}
			}
		}
	}()

	if bar != nil {
		bar.Wait()
	}
	<-fetchDone

	depsWithNewVersion := allDeps.FilterWithNewVersion()
	if len(depsWithNewVersion) == 0 {
		return nil, errors.New("all dependencies are up to date")
	}

	if !flags.NoInteractive {
		var err error
		depsWithNewVersion, err = ui.SelectDependencies(depsWithNewVersion)
		if err != nil {
			return nil, err
		}
	} else {
		for _, dep := range depsWithNewVersion {
			dep.HaveToUpdate = true
		}
	}

	depsToUpdate := depsWithNewVersion.FilterForUpdate()
	if len(depsToUpdate) == 0 {
		return nil, errors.New("no dependencies selected for update")
	}

	depsByWorkspace := make(map[string]dependency.Dependencies)
	for _, dep := range depsToUpdate {
		depsByWorkspace[dep.Workspace] = append(depsByWorkspace[dep.Workspace], dep)
	}

	return depsByWorkspace, nil
}

// UpdatePackageJSON rewrites the manifest with the chosen versions,
// preserving key order and untouched fields. With --dry-run the result is
// printed instead of written.
func (p *PackageJSON) UpdatePackageJSON(flags *cli.Flags, updatedDeps dependency.Dependencies) error {
	originalData, err := os.ReadFile(p.packageFilePath)
	if err != nil {
		return fmt.Errorf("unable to read package.json: %w", err)
	}

	jsonBytes, err := RewriteManifest(originalData, p.manifest.Manager, updatedDeps)
	if err != nil {
		return err
	}

	if flags.DryRun {
		fmt.Println(string(jsonBytes))
		return nil
	}

	if err := os.WriteFile(p.packageFilePath, jsonBytes, 0644); err != nil {
		return fmt.Errorf("failed to write updated package.json: %w", err)
	}

	if !flags.NoInstall {
		return p.PackageManager.Install(p.Dir, flags.Verbose)
	}

	return nil
}

// RewriteManifest applies the version bumps to raw manifest bytes. A nil
// NextVersion removes the entry from its section.
func RewriteManifest(originalData []byte, managerField string, updatedDeps dependency.Dependencies) ([]byte, error) {
	orderedJSON := orderedmap.New()
	orderedJSON.SetEscapeHTML(false)

	if err := json.Unmarshal(originalData, orderedJSON); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	for _, dep := range updatedDeps {
		if dep.Env == constants.PackageManager && managerField != "" {
			if dep.NextVersion == nil {
				orderedJSON.Delete(constants.PackageManager.String())
				continue
			}
			value := fmt.Sprintf("%s%s@%s", dep.PackageNamePrefix, dep.PackageName, dep.NextVersion.String())
			orderedJSON.Set(constants.PackageManager.String(), value)
			continue
		}

		section, ok := orderedJSON.Get(dep.Env.String())
		if !ok {
			continue
		}

		depsMap, ok := section.(orderedmap.OrderedMap)
		if !ok {
			continue
		}

		if dep.NextVersion == nil {
			depsMap.Delete(dep.PackageName)
		} else {
			depsMap.Set(dep.PackageName, dep.NextVersion.StringWithPrefix())
		}
		orderedJSON.Set(dep.Env.String(), depsMap)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(orderedJSON); err != nil {
		return nil, fmt.Errorf("failed to serialize updated package.json: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
