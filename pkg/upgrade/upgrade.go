// Package upgrade replaces the running binary with the latest GitHub
// release.
package upgrade

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/devbump/bumpall/internal/logger"
	"github.com/devbump/bumpall/internal/semver"
	"github.com/devbump/bumpall/internal/version"
)

type Release struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

func getLatestRelease(repoOwner, repoName string) (*Release, error) {
	url := fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/latest", repoOwner, repoName)
	resp, err := http.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned unexpected status code: %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse release info: %w", err)
	}

	return &release, nil
}

func isNewerVersion(current, latest string) bool {
	currentVersion := semver.NewSemver(current)
	latestVersion := semver.NewSemver(latest)

	return currentVersion.IsValid() &&
		latestVersion.IsValid() &&
		currentVersion.Compare(latestVersion) < 0
}

func downloadBinary(url, destination string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download failed with status code: %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(destination), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	outFile, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer outFile.Close()

	if _, err := io.Copy(outFile, resp.Body); err != nil {
		return fmt.Errorf("file writing failed: %w", err)
	}

	return nil
}

func replaceBinary(newBinary string) error {
	currentBinary, err := os.Executable()
	if err != nil {
		return fmt.Errorf("could not get current executable path: %w", err)
	}

	backupBinary := currentBinary + ".bak"

	if err := os.Rename(currentBinary, backupBinary); err != nil {
		return fmt.Errorf("failed to backup current binary: %w", err)
	}

	if err := os.Rename(newBinary, currentBinary); err != nil {
		if restoreErr := os.Rename(backupBinary, currentBinary); restoreErr != nil {
			logger.L().Errorw("could not restore backup binary", "error", restoreErr)
		}
		return fmt.Errorf("failed to replace binary: %w", err)
	}

	os.Remove(backupBinary)

	return nil
}

// GetNewVersion returns the latest release tag when it is newer than the
// running version, empty string otherwise.
func GetNewVersion(repoOwner, repoName string) string {
	latestRelease, err := getLatestRelease(repoOwner, repoName)
	if err != nil || !isNewerVersion(version.Version, latestRelease.TagName) {
		return ""
	}

	return latestRelease.TagName
}

// Upgrade downloads the latest release binary and swaps it in for the
// current executable.
func Upgrade(repoOwner, repoName string) error {
	fmt.Println("🔍 Checking for updates...")

	latestRelease, err := getLatestRelease(repoOwner, repoName)
	if err != nil {
		return fmt.Errorf("failed to fetch the latest release: %w", err)
	}

	if !isNewerVersion(version.Version, latestRelease.TagName) {
		fmt.Printf("✅ You already have the latest version: %s 🎉\n", version.Version)
		return nil
	}

	fmt.Printf("📦 New release available: %s\n", latestRelease.TagName)

	if len(latestRelease.Assets) == 0 {
		return fmt.Errorf("no binaries found in the release")
	}

	newBinary := filepath.Join(os.TempDir(), fmt.Sprintf("bumpall_%s", latestRelease.TagName))
	fmt.Printf("⬇️ Downloading binary to: %s\n", newBinary)

	if err := downloadBinary(latestRelease.Assets[0].BrowserDownloadURL, newBinary); err != nil {
		return fmt.Errorf("failed to download the binary: %w", err)
	}

	if err := os.Chmod(newBinary, 0755); err != nil {
		return fmt.Errorf("failed to set executable permissions: %w", err)
	}

	fmt.Println("🔄 Replacing the current binary...")
	if err := replaceBinary(newBinary); err != nil {
		return fmt.Errorf("failed to replace the binary: %w", err)
	}

	fmt.Println("🎉 Upgrade completed successfully!")
	return nil
}
