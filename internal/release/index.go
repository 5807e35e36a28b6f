package release

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// DefaultIndexURL is the JSON API of the public package index.
const DefaultIndexURL = "https://pypi.org/pypi"

// DefaultRepository is the .pypirc section used when none is named.
const DefaultRepository = "pypi"

// Index queries a package index JSON API for published versions.
type Index struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewIndex returns an index client for baseURL (DefaultIndexURL when empty).
func NewIndex(baseURL string) *Index {
	if baseURL == "" {
		baseURL = DefaultIndexURL
	}

	return &Index{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

var nameSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeName applies the index's name normalization.
func NormalizeName(name string) string {
	return strings.ToLower(nameSeparators.ReplaceAllString(name, "-"))
}

// Published reports whether name==version is already on the index. A 404
// means not published; any other non-200 status is an error.
func (i *Index) Published(ctx context.Context, name, version string) (bool, error) {
	endpoint := fmt.Sprintf("%s/%s/%s/json", i.BaseURL, url.PathEscape(NormalizeName(name)), url.PathEscape(version))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	client := i.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to query package index: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("package index returned %s for %s", resp.Status, endpoint)
	}
}

// IndexURLFromPypirc reads the repository URL of section repo from a
// .pypirc file and maps upload endpoints to the JSON API. It returns ""
// when the file or section does not exist.
func IndexURLFromPypirc(path, repo string) (string, error) {
	path = expandHome(path)
	if repo == "" {
		repo = DefaultRepository
	}

	if _, err := os.Stat(path); err != nil {
		return "", nil
	}

	cfg, err := ini.LoadSources(ini.LoadOptions{AllowPythonMultilineValues: true}, path)
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", path, err)
	}

	section, err := cfg.GetSection(repo)
	if err != nil {
		return "", nil
	}

	raw := section.Key("repository").String()
	if raw == "" {
		return "", nil
	}

	return JSONAPIURL(raw)
}

// JSONAPIURL maps an upload URL such as https://upload.pypi.org/legacy/
// to the JSON API base https://pypi.org/pypi.
func JSONAPIURL(uploadURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(uploadURL))
	if err != nil {
		return "", fmt.Errorf("invalid repository URL %q: %w", uploadURL, err)
	}

	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid repository URL %q", uploadURL)
	}

	u.Host = strings.TrimPrefix(u.Host, "upload.")

	path := strings.TrimRight(u.Path, "/")
	if strings.HasSuffix(path, "/legacy") || path == "" {
		path = strings.TrimSuffix(path, "/legacy") + "/pypi"
	}

	u.Path = path
	u.RawQuery = ""

	return u.String(), nil
}

// ResolveIndexURL picks the index: explicit configuration first, then the
// .pypirc repository section, then DefaultIndexURL.
func ResolveIndexURL(configured, pypirc, repo string) (string, error) {
	if configured != "" && configured != DefaultIndexURL {
		return configured, nil
	}

	fromFile, err := IndexURLFromPypirc(pypirc, repo)
	if err != nil {
		return "", err
	}

	if fromFile != "" {
		return fromFile, nil
	}

	return DefaultIndexURL, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
