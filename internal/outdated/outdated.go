// Package outdated parses the parseable output of `npm outdated` and
// classifies each entry against the selected upgrade target.
package outdated

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devbump/bumpall/internal/semver"
)

// ErrParse is returned for any malformed parseable line.
var ErrParse = errors.New("unable to parse outdated entry")

// missingMarker is what npm prints in place of name@version when the package
// is declared but not installed.
const missingMarker = "MISSING"

// UpgradeType tells apart upgrades that stay within the manifest's range
// (safe) from ones that jump past it (major).
type UpgradeType int

const (
	Safe UpgradeType = iota
	Major
)

// Entry is one line of `npm outdated --parseable`:
//
//	location:name@wanted:name@current:name@latest:dependedBy
type Entry struct {
	Location       string
	Name           string
	CurrentVersion string
	WantedVersion  string
	LatestVersion  string
	DependedBy     string
}

// ParseLine parses one parseable line. On Windows the location field starts
// with drive information (e.g. D:\git\app) which clashes with the field
// separator, so the first two segments are re-joined in that case.
func ParseLine(line string) (*Entry, error) {
	segments := strings.Split(line, ":")

	var location string
	if len(line) > 4 && line[1:3] == ":\\" {
		if len(segments) < 2 {
			return nil, ErrParse
		}
		location = segments[0] + ":" + segments[1]
		segments = segments[2:]
	} else {
		if len(segments) < 1 {
			return nil, ErrParse
		}
		location = segments[0]
		segments = segments[1:]
	}

	if len(segments) < 3 {
		return nil, ErrParse
	}

	name, wanted, err := splitNameAndVersion(segments[0])
	if err != nil {
		return nil, err
	}
	_, current, err := splitNameAndVersion(segments[1])
	if err != nil {
		return nil, err
	}
	_, latest, err := splitNameAndVersion(segments[2])
	if err != nil {
		return nil, err
	}

	dependedBy := strings.TrimSpace(strings.Join(segments[3:], ":"))

	return &Entry{
		Location:       location,
		Name:           name,
		CurrentVersion: current,
		WantedVersion:  wanted,
		LatestVersion:  latest,
		DependedBy:     dependedBy,
	}, nil
}

// Parse splits the full command output into entries, dropping malformed
// lines.
func Parse(output string) []*Entry {
	var entries []*Entry
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		entry, err := ParseLine(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

// TargetVersion is the version an upgrade would move to: the latest column
// with --latest, otherwise the wanted column.
func (e *Entry) TargetVersion(latest bool) string {
	if latest {
		return e.LatestVersion
	}
	return e.WantedVersion
}

// Type classifies the upgrade. Moving to the wanted version stays within the
// declared range and is always safe; moving to latest is major whenever the
// two columns disagree.
func (e *Entry) Type(latest bool) UpgradeType {
	if latest && e.WantedVersion != e.LatestVersion {
		return Major
	}
	return Safe
}

// Level refines Type into the semver distance for display purposes.
func (e *Entry) Level(latest bool) semver.Level {
	return semver.NewSemver(e.CurrentVersion).Diff(semver.NewSemver(e.TargetVersion(latest)))
}

// Skip reports whether the entry should be left alone: it already is at the
// target version, or it belongs to a different workspace directory than the
// one bumpall runs in.
func (e *Entry) Skip(currentDirName string, latest bool) bool {
	if e.CurrentVersion == e.TargetVersion(latest) {
		return true
	}
	return currentDirName != "" && e.DependedBy != currentDirName
}

// InstallSpec is the name@version argument handed to the install command.
func (e *Entry) InstallSpec(latest bool) string {
	return fmt.Sprintf("%s@%s", e.Name, e.TargetVersion(latest))
}

// splitNameAndVersion splits a name@version segment, handling scoped
// packages (@org/pkg@1.2.3) and the MISSING marker.
func splitNameAndVersion(src string) (name, version string, err error) {
	if src == missingMarker {
		return "", missingMarker, nil
	}

	scoped := strings.HasPrefix(src, "@")
	if scoped {
		src = src[1:]
	}

	i := strings.IndexByte(src, '@')
	if i < 0 {
		return "", "", ErrParse
	}

	name, version = src[:i], src[i+1:]
	if strings.TrimSpace(name) == "" || strings.TrimSpace(version) == "" {
		return "", "", ErrParse
	}

	if scoped {
		name = "@" + name
	}

	return name, version, nil
}
