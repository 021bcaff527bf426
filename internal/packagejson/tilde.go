package packagejson

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/devbump/bumpall/internal/constants"
	"github.com/iancoleman/orderedmap"
)

const backupSuffix = ".bumpall.bak"

// PrefixTilde rewrites a range to its tilde form, replacing a leading caret.
// Asking npm for "wanted" versions under tilde ranges pins the answers to
// patch upgrades.
func PrefixTilde(version string) string {
	return "~" + strings.TrimPrefix(version, "^")
}

func prefixSectionWithTilde(m *orderedmap.OrderedMap, section string) {
	value, ok := m.Get(section)
	if !ok {
		return
	}

	deps, ok := value.(orderedmap.OrderedMap)
	if !ok {
		return
	}

	for _, key := range deps.Keys() {
		if v, ok := deps.Get(key); ok {
			if s, ok := v.(string); ok {
				deps.Set(key, PrefixTilde(s))
			}
		}
	}

	m.Set(section, deps)
}

// PatchGuard temporarily narrows every dependency range in a manifest to its
// tilde form so the package manager's "wanted" column reports patch-level
// upgrades only. Restore must run even when the query in between fails.
type PatchGuard struct {
	manifestPath string
	backupPath   string
}

// ApplyPatchGuard backs up dir's package.json and writes the tilde-narrowed
// variant in its place.
func ApplyPatchGuard(dir string) (*PatchGuard, error) {
	manifestPath := filepath.Join(dir, "package.json")
	backupPath := manifestPath + backupSuffix

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read package.json: %w", err)
	}

	if err := os.WriteFile(backupPath, data, 0644); err != nil {
		return nil, fmt.Errorf("unable to back up package.json: %w", err)
	}

	narrowed, err := NarrowRangesToTilde(data)
	if err != nil {
		os.Remove(backupPath)
		return nil, err
	}

	if err := os.WriteFile(manifestPath, narrowed, 0644); err != nil {
		os.Remove(backupPath)
		return nil, fmt.Errorf("unable to write narrowed package.json: %w", err)
	}

	return &PatchGuard{manifestPath: manifestPath, backupPath: backupPath}, nil
}

// Restore puts the original manifest back and removes the backup.
func (g *PatchGuard) Restore() error {
	data, err := os.ReadFile(g.backupPath)
	if err != nil {
		return fmt.Errorf("unable to read manifest backup: %w", err)
	}

	if err := os.WriteFile(g.manifestPath, data, 0644); err != nil {
		return fmt.Errorf("unable to restore package.json: %w", err)
	}

	return os.Remove(g.backupPath)
}

// NarrowRangesToTilde rewrites the dependencies and devDependencies sections
// of raw manifest bytes with tilde ranges, leaving everything else as is.
func NarrowRangesToTilde(data []byte) ([]byte, error) {
	m := orderedmap.New()
	m.SetEscapeHTML(false)

	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}

	prefixSectionWithTilde(m, constants.Dependencies.String())
	prefixSectionWithTilde(m, constants.DevDependencies.String())

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(m); err != nil {
		return nil, fmt.Errorf("failed to serialize package.json: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
