package dependency

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/devbump/bumpall/internal/cli"
	"github.com/devbump/bumpall/internal/constants"
	"github.com/devbump/bumpall/internal/logger"
	"github.com/valyala/fasthttp"
)

type npmRegistryResponse struct {
	Versions map[string]interface{} `json:"versions"`
}

// NpmrcConfig carries the subset of .npmrc bumpall honors: a scoped registry
// override and its auth token.
type NpmrcConfig struct {
	Registry  string
	AuthToken string
	Scope     string
}

// ParseNpmrc reads the project .npmrc, falling back to the one in the home
// directory. A missing file yields an empty config, not an error.
func ParseNpmrc(dir string) (*NpmrcConfig, error) {
	npmrcPath := filepath.Join(dir, ".npmrc")
	if _, err := os.Stat(npmrcPath); os.IsNotExist(err) {
		home, err := os.UserHomeDir()
		if err != nil {
			return &NpmrcConfig{}, nil
		}
		npmrcPath = filepath.Join(home, ".npmrc")
	}

	content, err := os.ReadFile(npmrcPath)
	if err != nil {
		return &NpmrcConfig{}, nil
	}

	return parseNpmrcContent(string(content)), nil
}

func parseNpmrcContent(content string) *NpmrcConfig {
	config := &NpmrcConfig{}

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		switch {
		case strings.HasSuffix(key, ":registry"):
			config.Registry = value
			config.Scope = strings.TrimSuffix(key, ":registry")
		case strings.HasSuffix(key, ":_authToken"):
			config.AuthToken = value
		}
	}

	return config
}

func getVersionsFromRegistry(flags *cli.Flags, packageName string) ([]string, error) {
	npmConfig, err := ParseNpmrc(flags.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("error parsing .npmrc: %w", err)
	}

	isPrivate := npmConfig.Scope != "" && strings.HasPrefix(packageName, npmConfig.Scope)

	registryURL := flags.Registry
	if registryURL == "" {
		registryURL = constants.DefaultRegistry
	}
	if isPrivate && npmConfig.Registry != "" {
		registryURL = npmConfig.Registry
	}

	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(registryURL, "/"), packageName)

	logger.L().Debugw("fetching registry metadata", "package", packageName, "url", url)

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/vnd.npm.install-v1+json")
	req.Header.Set("User-Agent", "bumpall")

	if isPrivate && npmConfig.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+npmConfig.AuthToken)
	}

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	timeout := time.Duration(flags.Timeout) * time.Second
	if err := fasthttp.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("npm registry returned status %d for %s", resp.StatusCode(), packageName)
	}

	var npmResp npmRegistryResponse
	if err := json.Unmarshal(resp.Body(), &npmResp); err != nil {
		return nil, fmt.Errorf("error parsing registry response: %w", err)
	}

	versions := make([]string, 0, len(npmResp.Versions))
	for version := range npmResp.Versions {
		versions = append(versions, version)
	}

	return versions, nil
}
