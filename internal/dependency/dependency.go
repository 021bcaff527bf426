package dependency

import (
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"github.com/devbump/bumpall/internal/cache"
	"github.com/devbump/bumpall/internal/cli"
	"github.com/devbump/bumpall/internal/constants"
	"github.com/devbump/bumpall/internal/logger"
	"github.com/devbump/bumpall/internal/semver"
	"github.com/gobwas/glob"
)

// Dependency is one manifest entry plus what we learned about it from the
// registry.
type Dependency struct {
	PackageName       string
	PackageNamePrefix string
	CurrentVersion    *semver.Version
	NextVersion       *semver.Version
	Versions          []string
	Env               constants.DepEnv
	Workspace         string
	HaveToUpdate      bool
}

func NewDependency(packageName, currentVersion string, env constants.DepEnv, workspace string) (*Dependency, error) {
	if packageName == "" {
		return nil, errors.New("empty package name")
	}

	return &Dependency{
		PackageName:    packageName,
		CurrentVersion: semver.NewSemver(currentVersion),
		Env:            env,
		Workspace:      workspace,
	}, nil
}

// UpgradeLevel classifies the pending upgrade (major/minor/patch).
func (d *Dependency) UpgradeLevel() semver.Level {
	if d.NextVersion == nil {
		return semver.LevelNone
	}
	return d.CurrentVersion.Diff(d.NextVersion)
}

type Dependencies []*Dependency

func (d Dependencies) Len() int      { return len(d) }
func (d Dependencies) Swap(i, j int) { d[i], d[j] = d[j], d[i] }
func (d Dependencies) Less(i, j int) bool {
	if d[i].Env != d[j].Env {
		return d[i].Env < d[j].Env
	}
	return d[i].PackageName < d[j].PackageName
}

func (d Dependencies) FilterWithNewVersion() Dependencies {
	var filtered Dependencies
	for _, dep := range d {
		if dep.NextVersion != nil {
			filtered = append(filtered, dep)
		}
	}

	return filtered
}

func (d Dependencies) FilterForUpdate() Dependencies {
	var filtered Dependencies
	for _, dep := range d {
		if dep.HaveToUpdate {
			filtered = append(filtered, dep)
		}
	}

	return filtered
}

func (d Dependencies) FilterByRegex(expr string) Dependencies {
	re, err := regexp.Compile(expr)
	if err != nil {
		return d
	}

	var filtered Dependencies
	for _, dep := range d {
		if re.MatchString(dep.PackageName) {
			filtered = append(filtered, dep)
		}
	}

	return filtered
}

// FilterByGlobs keeps dependencies matching any include pattern (all, when
// none given) and drops those matching any exclude pattern.
func (d Dependencies) FilterByGlobs(include, exclude []string) Dependencies {
	var includes, excludes []glob.Glob
	for _, pattern := range include {
		if g, err := glob.Compile(pattern); err == nil {
			includes = append(includes, g)
		}
	}
	for _, pattern := range exclude {
		if g, err := glob.Compile(pattern); err == nil {
			excludes = append(excludes, g)
		}
	}

	matchAny := func(gs []glob.Glob, name string) bool {
		for _, g := range gs {
			if g.Match(name) {
				return true
			}
		}
		return false
	}

	var filtered Dependencies
	for _, dep := range d {
		if len(includes) > 0 && !matchAny(includes, dep.PackageName) {
			continue
		}
		if matchAny(excludes, dep.PackageName) {
			continue
		}
		filtered = append(filtered, dep)
	}

	return filtered
}

// cacheTTL bounds how stale a cached registry version list may be.
const cacheTTL = time.Hour

type cachedVersions struct {
	FetchedAt time.Time `json:"fetchedAt"`
	Versions  []string  `json:"versions"`
}

// FetchNewVersion pulls the package's version list (cache first, registry on
// miss) and records the best upgrade target for the selected mode.
func (d *Dependency) FetchNewVersion(flags *cli.Flags, store *cache.Cache) error {
	versions := d.cachedVersionList(store)

	if len(versions) == 0 {
		var err error
		versions, err = getVersionsFromRegistry(flags, d.PackageName)
		if err != nil {
			return err
		}

		if store != nil {
			data, err := json.Marshal(cachedVersions{FetchedAt: time.Now(), Versions: versions})
			if err == nil {
				store.Set(d.PackageName, data)
			}
		}
	}

	d.Versions = versions

	vm := NewVersionManager(d.CurrentVersion, versions, flags)
	newVersion := vm.GetUpdatedVersion(flags)
	if newVersion == nil {
		return nil
	}

	if flags.KeepRangeOperator {
		newVersion.SetPrefix(d.CurrentVersion.Prefix())
	}

	d.NextVersion = newVersion

	return nil
}

func (d *Dependency) cachedVersionList(store *cache.Cache) []string {
	if store == nil || !store.Has(d.PackageName) {
		return nil
	}

	data, err := store.Get(d.PackageName)
	if err != nil {
		return nil
	}

	var cached cachedVersions
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}

	if time.Since(cached.FetchedAt) > cacheTTL {
		return nil
	}

	logger.L().Debugw("registry cache hit", "package", d.PackageName, "versions", len(cached.Versions))

	return cached.Versions
}
