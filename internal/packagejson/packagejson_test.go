package packagejson

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/devbump/bumpall/internal/cli"
	"github.com/devbump/bumpall/internal/constants"
	"github.com/devbump/bumpall/internal/dependency"
	"github.com/devbump/bumpall/internal/semver"
)

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "package.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

const testManifest = `{
  "name": "fixture",
  "version": "0.1.0",
  "scripts": {
    "build": "tsc -p ."
  },
  "dependencies": {
    "react": "^17.0.2",
    "@scope/pkg": "~5.0.0",
    "left-pad": "1.3.0"
  },
  "devDependencies": {
    "typescript": "^4.4.2"
  }
}`

func TestLoadPackageJSON(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, testManifest)

	pkg, err := LoadPackageJSON(dir)
	if err != nil {
		t.Fatal(err)
	}

	if pkg.PackageManager == nil || pkg.PackageManager.Name != "npm" {
		t.Errorf("expected npm fallback, got %+v", pkg.PackageManager)
	}
	if len(pkg.Workspaces()) != 1 {
		t.Errorf("expected only the root workspace, got %d", len(pkg.Workspaces()))
	}
}

func TestLoadPackageJSONMissing(t *testing.T) {
	if _, err := LoadPackageJSON(t.TempDir()); err == nil {
		t.Fatal("expected error for missing package.json")
	}
}

func TestCollectDependencies(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, testManifest)

	pkg, err := LoadPackageJSON(dir)
	if err != nil {
		t.Fatal(err)
	}

	flags := &cli.Flags{}
	deps := pkg.CollectDependencies(flags)

	var names []string
	for _, d := range deps {
		names = append(names, d.PackageName)
	}
	sort.Strings(names)

	want := []string{"@scope/pkg", "left-pad", "react", "typescript"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("collected %v, want %v", names, want)
	}
}

func TestCollectDependenciesProductionOnly(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, testManifest)

	pkg, err := LoadPackageJSON(dir)
	if err != nil {
		t.Fatal(err)
	}

	deps := pkg.CollectDependencies(&cli.Flags{Production: true})
	for _, d := range deps {
		if d.Env == constants.DevDependencies {
			t.Errorf("production mode leaked dev dependency %s", d.PackageName)
		}
	}
}

func TestCollectDependenciesPackageManagerField(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, `{
  "name": "fixture",
  "packageManager": "^pnpm@8.15.0",
  "dependencies": {}
}`)

	pkg, err := LoadPackageJSON(dir)
	if err != nil {
		t.Fatal(err)
	}

	deps := pkg.CollectDependencies(&cli.Flags{})
	if len(deps) != 1 {
		t.Fatalf("expected 1 dependency, got %d", len(deps))
	}
	if deps[0].PackageName != "pnpm" || deps[0].Env != constants.PackageManager {
		t.Errorf("got %+v", deps[0])
	}
	if deps[0].PackageNamePrefix != "^" {
		t.Errorf("expected preserved prefix, got %q", deps[0].PackageNamePrefix)
	}
	if pkg.PackageManager.Name != "pnpm" {
		t.Errorf("packageManager field should drive detection, got %s", pkg.PackageManager.Name)
	}
}

func TestRewriteManifest(t *testing.T) {
	react, err := dependency.NewDependency("react", "^17.0.2", constants.Dependencies, ".")
	if err != nil {
		t.Fatal(err)
	}
	react.NextVersion = semver.NewSemver("18.2.0")
	react.NextVersion.SetPrefix("^")

	out, err := RewriteManifest([]byte(testManifest), "", dependency.Dependencies{react})
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Dependencies map[string]string `json:"dependencies"`
		Scripts      map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}

	if decoded.Dependencies["react"] != "^18.2.0" {
		t.Errorf("react = %q, want ^18.2.0", decoded.Dependencies["react"])
	}
	if decoded.Dependencies["@scope/pkg"] != "~5.0.0" {
		t.Errorf("untouched entry changed: %q", decoded.Dependencies["@scope/pkg"])
	}
	if decoded.Scripts["build"] != "tsc -p ." {
		t.Error("unrelated fields must survive the rewrite")
	}

	// Key order is preserved: "name" stays the first key.
	trimmed := strings.TrimSpace(string(out))
	if !strings.HasPrefix(trimmed, "{\n  \"name\"") {
		t.Errorf("key order not preserved:\n%s", trimmed)
	}
}

func TestRewriteManifestRemovesEntry(t *testing.T) {
	dep, err := dependency.NewDependency("left-pad", "1.3.0", constants.Dependencies, ".")
	if err != nil {
		t.Fatal(err)
	}
	dep.NextVersion = nil

	out, err := RewriteManifest([]byte(testManifest), "", dependency.Dependencies{dep})
	if err != nil {
		t.Fatal(err)
	}

	if strings.Contains(string(out), "left-pad") {
		t.Error("nil NextVersion should remove the entry")
	}
}

func TestRewriteManifestPackageManagerField(t *testing.T) {
	manifest := `{
  "name": "fixture",
  "packageManager": "pnpm@8.15.0",
  "dependencies": {}
}`

	dep, err := dependency.NewDependency("pnpm", "8.15.0", constants.PackageManager, ".")
	if err != nil {
		t.Fatal(err)
	}
	dep.NextVersion = semver.NewSemver("9.0.0")

	out, err := RewriteManifest([]byte(manifest), "pnpm@8.15.0", dependency.Dependencies{dep})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"packageManager": "pnpm@9.0.0"`) {
		t.Errorf("field not rewritten:\n%s", out)
	}

	dep.NextVersion = nil
	out, err = RewriteManifest([]byte(manifest), "pnpm@8.15.0", dependency.Dependencies{dep})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "packageManager") {
		t.Errorf("nil NextVersion should remove the field:\n%s", out)
	}
}

func TestPrefixTilde(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2.3", "~1.2.3"},
		{"^1.2.3", "~1.2.3"},
		{"^^abc", "~^abc"},
		{"@something", "~@something"},
		{"", "~"},
	}

	for _, tt := range tests {
		if got := PrefixTilde(tt.in); got != tt.want {
			t.Errorf("PrefixTilde(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNarrowRangesToTilde(t *testing.T) {
	out, err := NarrowRangesToTilde([]byte(testManifest))
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"react":      "~17.0.2",
		"@scope/pkg": "~~5.0.0",
		"left-pad":   "~1.3.0",
	}
	for name, v := range want {
		if decoded.Dependencies[name] != v {
			t.Errorf("dependencies[%s] = %q, want %q", name, decoded.Dependencies[name], v)
		}
	}
	if decoded.DevDependencies["typescript"] != "~4.4.2" {
		t.Errorf("devDependencies[typescript] = %q", decoded.DevDependencies["typescript"])
	}
}

func TestNarrowRangesMissingSections(t *testing.T) {
	out, err := NarrowRangesToTilde([]byte(`{"name": "bare"}`))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"bare"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestPatchGuardRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, testManifest)

	guard, err := ApplyPatchGuard(dir)
	if err != nil {
		t.Fatal(err)
	}

	narrowed, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(narrowed), "~17.0.2") {
		t.Error("guard should narrow ranges in place")
	}
	if _, err := os.Stat(path + backupSuffix); err != nil {
		t.Fatalf("backup missing: %v", err)
	}

	if err := guard.Restore(); err != nil {
		t.Fatal(err)
	}

	restored, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != testManifest {
		t.Error("restore should bring back the original manifest")
	}
	if _, err := os.Stat(path + backupSuffix); !os.IsNotExist(err) {
		t.Error("backup should be removed after restore")
	}
}
