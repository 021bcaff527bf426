package outdated

import (
	"errors"
	"testing"

	"github.com/devbump/bumpall/internal/semver"
)

func TestSplitNameAndVersion(t *testing.T) {
	invalid := []string{
		"",
		"noversion@",
		"@0.5.5",
		"@scope/pkg0.1.0",
	}
	for _, in := range invalid {
		if _, _, err := splitNameAndVersion(in); !errors.Is(err, ErrParse) {
			t.Errorf("splitNameAndVersion(%q): expected ErrParse, got %v", in, err)
		}
	}

	name, version, err := splitNameAndVersion("@scope/pkg@0.1.0")
	if err != nil || name != "@scope/pkg" || version != "0.1.0" {
		t.Errorf("scoped: got (%q, %q, %v)", name, version, err)
	}

	name, version, err = splitNameAndVersion("package-name@0.1.0")
	if err != nil || name != "package-name" || version != "0.1.0" {
		t.Errorf("non-scoped: got (%q, %q, %v)", name, version, err)
	}

	name, version, err = splitNameAndVersion("MISSING")
	if err != nil || name != "" || version != "MISSING" {
		t.Errorf("missing marker: got (%q, %q, %v)", name, version, err)
	}
}

func TestParseLineInvalid(t *testing.T) {
	// valid shape: location:name@wanted:name@current:name@latest:dependedBy
	invalid := []string{
		"location:name@2.0.0:name@1.0.0:name@",
		"location:name@2.0.0:name@1.0.0:name",
		"location:name@2.0.0:name@1.0.0:",
		"location:name@2.0.0:name@",
		"location:name@2.0.0:name",
		"location:name@2.0.0:",
		"location:name@",
		"location:name",
		"location:",
		"loc",
		"",
	}

	for _, line := range invalid {
		if _, err := ParseLine(line); err == nil {
			t.Errorf("ParseLine(%q): expected error", line)
		}
	}
}

func TestParseLine(t *testing.T) {
	entry, err := ParseLine("location:myPackage@1.23.0:myPackage@1.7.3:myPackage@2.0.1:my_dir")
	if err != nil {
		t.Fatal(err)
	}

	want := Entry{
		Location:       "location",
		Name:           "myPackage",
		CurrentVersion: "1.7.3",
		WantedVersion:  "1.23.0",
		LatestVersion:  "2.0.1",
		DependedBy:     "my_dir",
	}
	if *entry != want {
		t.Errorf("got %+v, want %+v", *entry, want)
	}
}

func TestParseLineScopedWithSpecialDir(t *testing.T) {
	entry, err := ParseLine("location:@scope/cli@125.24567.2:@scope/cli@125.24222.1:@scope/cli@5412.0.0:my-dir_with:special chars")
	if err != nil {
		t.Fatal(err)
	}

	if entry.Name != "@scope/cli" {
		t.Errorf("Name = %q", entry.Name)
	}
	if entry.CurrentVersion != "125.24222.1" {
		t.Errorf("CurrentVersion = %q", entry.CurrentVersion)
	}
	if entry.DependedBy != "my-dir_with:special chars" {
		t.Errorf("DependedBy = %q", entry.DependedBy)
	}
}

func TestParseLineMissing(t *testing.T) {
	entry, err := ParseLine(`location:@scope/cli@1.0.3:MISSING:@scope/cli@1.0.3:\|~#;<>`)
	if err != nil {
		t.Fatal(err)
	}

	if entry.CurrentVersion != "MISSING" {
		t.Errorf("CurrentVersion = %q", entry.CurrentVersion)
	}
	if entry.WantedVersion != "1.0.3" {
		t.Errorf("WantedVersion = %q", entry.WantedVersion)
	}
}

func TestParseLineWindowsDrive(t *testing.T) {
	entry, err := ParseLine(`D:\git\app:@scope/cli@1.0.3:@scope/cli@1.0.2:@scope/cli@1.0.3:a`)
	if err != nil {
		t.Fatal(err)
	}

	if entry.Location != `D:\git\app` {
		t.Errorf("Location = %q", entry.Location)
	}
	if entry.Name != "@scope/cli" {
		t.Errorf("Name = %q", entry.Name)
	}
	if entry.DependedBy != "a" {
		t.Errorf("DependedBy = %q", entry.DependedBy)
	}
}

func TestParseLineTrimsCarriageReturn(t *testing.T) {
	entry, err := ParseLine("location:pkg@1.0.3:pkg@1.0.2:pkg@1.0.3:app\r")
	if err != nil {
		t.Fatal(err)
	}

	if entry.DependedBy != "app" {
		t.Errorf("DependedBy = %q", entry.DependedBy)
	}
}

func TestParseSkipsMalformedLines(t *testing.T) {
	output := "location:a@2.0.0:a@1.0.0:a@2.0.0:app\n\ngarbage\nlocation:b@1.1.0:b@1.0.0:b@2.0.0:app\n"

	entries := Parse(output)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "a" || entries[1].Name != "b" {
		t.Errorf("unexpected entries: %+v", entries)
	}
}

func TestTargetVersionAndType(t *testing.T) {
	entry := &Entry{
		Name:           "pkg",
		CurrentVersion: "1.0.0",
		WantedVersion:  "1.2.0",
		LatestVersion:  "2.0.0",
	}

	if entry.TargetVersion(false) != "1.2.0" {
		t.Errorf("wanted target = %q", entry.TargetVersion(false))
	}
	if entry.TargetVersion(true) != "2.0.0" {
		t.Errorf("latest target = %q", entry.TargetVersion(true))
	}

	if entry.Type(false) != Safe {
		t.Error("wanted upgrades are always safe")
	}
	if entry.Type(true) != Major {
		t.Error("latest past the wanted version is major")
	}

	entry.LatestVersion = "1.2.0"
	if entry.Type(true) != Safe {
		t.Error("latest == wanted is safe")
	}
}

func TestLevel(t *testing.T) {
	entry := &Entry{CurrentVersion: "1.0.0", WantedVersion: "1.0.4", LatestVersion: "2.0.0"}

	if got := entry.Level(false); got != semver.LevelPatch {
		t.Errorf("Level(false) = %s, want patch", got)
	}
	if got := entry.Level(true); got != semver.LevelMajor {
		t.Errorf("Level(true) = %s, want major", got)
	}
}

func TestSkip(t *testing.T) {
	entry := &Entry{
		Name:           "pkg",
		CurrentVersion: "1.0.2",
		WantedVersion:  "1.0.2",
		LatestVersion:  "2.1.0",
		DependedBy:     "app",
	}

	// Already at the wanted version.
	if !entry.Skip("app", false) {
		t.Error("expected skip when current == target")
	}
	// Latest mode still has somewhere to go.
	if entry.Skip("app", true) {
		t.Error("expected no skip in latest mode")
	}
	// Workspace member of a different directory.
	if !entry.Skip("other-dir", true) {
		t.Error("expected skip for foreign workspace dir")
	}
	// Unknown current dir disables the workspace rule.
	if entry.Skip("", true) {
		t.Error("expected no skip when current dir is unknown")
	}
}

func TestInstallSpec(t *testing.T) {
	entry := &Entry{Name: "@scope/pkg", WantedVersion: "1.2.0", LatestVersion: "2.0.0"}

	if got := entry.InstallSpec(false); got != "@scope/pkg@1.2.0" {
		t.Errorf("InstallSpec(false) = %q", got)
	}
	if got := entry.InstallSpec(true); got != "@scope/pkg@2.0.0" {
		t.Errorf("InstallSpec(true) = %q", got)
	}
}
