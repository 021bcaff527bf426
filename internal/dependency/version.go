package dependency

import (
	"github.com/devbump/bumpall/internal/cli"
	"github.com/devbump/bumpall/internal/semver"
)

// VersionManager picks the upgrade target for one dependency out of the
// registry's version list.
type VersionManager struct {
	floating       bool
	currentVersion *semver.Version
	versions       []*semver.Version
}

func NewVersionManager(currentVersion *semver.Version, versions []string, flags *cli.Flags) *VersionManager {
	parsed := make([]*semver.Version, 0, len(versions))
	for _, v := range versions {
		sv := semver.NewSemver(v)
		if !sv.IsValid() {
			continue
		}
		parsed = append(parsed, sv)
	}

	// "latest", "*" and empty ranges float with the registry; there is
	// nothing meaningful to compare against.
	floating := currentVersion.String() == "latest" || currentVersion.String() == "*" || currentVersion.String() == ""

	return &VersionManager{
		floating:       floating,
		currentVersion: currentVersion,
		versions:       parsed,
	}
}

// GetUpdatedVersion returns the best candidate above the current version for
// the selected mode, or nil when the dependency is already current.
func (vm *VersionManager) GetUpdatedVersion(flags *cli.Flags) *semver.Version {
	if vm.floating || !vm.currentVersion.IsValid() {
		return nil
	}

	pool := make(semver.ByVersion, 0, len(vm.versions))
	for _, v := range vm.versions {
		if v.Compare(vm.currentVersion) <= 0 {
			continue
		}
		if flags.MaintainSemver && !vm.currentVersion.Check(v) {
			continue
		}
		pool = append(pool, v)
	}

	var best *semver.Version
	if flags.Pre {
		best = vm.highestInScope(pool, flags)
	} else {
		switch {
		case flags.Patch:
			best = vm.currentVersion.GetMatchPatchVersion(pool)
		case flags.Minor:
			best = vm.currentVersion.GetMatchMinorVersion(pool)
		default:
			best = vm.currentVersion.GetMatchLatestVersion(pool)
		}
	}

	if best == nil || vm.currentVersion.Compare(best) == 0 {
		return nil
	}

	return best
}

// highestInScope is the --pre variant of the match helpers, which only
// consider stable versions.
func (vm *VersionManager) highestInScope(pool semver.ByVersion, flags *cli.Flags) *semver.Version {
	var best *semver.Version

	for _, v := range pool {
		if flags.Patch {
			if vm.currentVersion.Major() != v.Major() || vm.currentVersion.Minor() != v.Minor() {
				continue
			}
		} else if flags.Minor {
			if vm.currentVersion.Major() != v.Major() {
				continue
			}
		}

		if best == nil || v.Compare(best) > 0 {
			best = v
		}
	}

	return best
}
