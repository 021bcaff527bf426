package packagemanager

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestDetectFromManagerField(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "package-lock.json"))

	pm := Detect(dir, "pnpm@8.15.0")
	if pm.Name != "pnpm" {
		t.Errorf("manager field should win over lockfiles, got %s", pm.Name)
	}
}

func TestDetectLockfilePriority(t *testing.T) {
	tests := []struct {
		lockfiles []string
		want      string
	}{
		{[]string{"bun.lockb", "yarn.lock", "package-lock.json"}, "bun"},
		{[]string{"yarn.lock", "pnpm-lock.yaml"}, "yarn"},
		{[]string{"pnpm-lock.yaml", "package-lock.json"}, "pnpm"},
		{[]string{"package-lock.json"}, "npm"},
		{nil, "npm"},
	}

	for _, tt := range tests {
		dir := t.TempDir()
		for _, lf := range tt.lockfiles {
			touch(t, filepath.Join(dir, lf))
		}

		pm := Detect(dir, "")
		if pm.Name != tt.want {
			t.Errorf("lockfiles %v: got %s, want %s", tt.lockfiles, pm.Name, tt.want)
		}
	}
}

func TestFromName(t *testing.T) {
	if pm := FromName("yarn"); pm == nil || pm.Name != "yarn" {
		t.Errorf("FromName(yarn) = %+v", pm)
	}
	if pm := FromName("cargo"); pm != nil {
		t.Errorf("unknown name should return nil, got %+v", pm)
	}
}

func TestOutdatedRejectsNonNpm(t *testing.T) {
	pm := FromName("yarn")
	if _, err := pm.Outdated(t.TempDir()); err == nil {
		t.Error("expected error for non-npm outdated query")
	}
}

func TestGetWorkspacesPaths(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "packages", "a", "package.json"))
	touch(t, filepath.Join(dir, "packages", "b", "package.json"))
	// No manifest, should be skipped.
	if err := os.MkdirAll(filepath.Join(dir, "packages", "c"), 0755); err != nil {
		t.Fatal(err)
	}

	pm := FromName("npm")
	paths := pm.GetWorkspacesPaths(dir, []string{"packages/*"})

	want := []string{
		filepath.Join(dir, "packages", "a"),
		filepath.Join(dir, "packages", "b"),
	}
	if len(paths) != len(want) {
		t.Fatalf("got %v, want %v", paths, want)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestGetWorkspacesPathsNegation(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "packages", "a", "package.json"))
	touch(t, filepath.Join(dir, "packages", "internal", "package.json"))

	pm := FromName("npm")
	paths := pm.GetWorkspacesPaths(dir, []string{"packages/*", "!packages/internal"})

	if len(paths) != 1 || paths[0] != filepath.Join(dir, "packages", "a") {
		t.Errorf("negation not applied: %v", paths)
	}
}

func TestGetWorkspacesPathsPnpmYaml(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "apps", "web", "package.json"))
	touch(t, filepath.Join(dir, "packages", "ui", "package.json"))

	yaml := "packages:\n  - \"apps/*\"\n"
	if err := os.WriteFile(filepath.Join(dir, "pnpm-workspace.yaml"), []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}

	pm := FromName("pnpm")
	// The manifest patterns are ignored in favor of pnpm-workspace.yaml.
	paths := pm.GetWorkspacesPaths(dir, []string{"packages/*"})

	if len(paths) != 1 || paths[0] != filepath.Join(dir, "apps", "web") {
		t.Errorf("pnpm-workspace.yaml not honored: %v", paths)
	}
}
