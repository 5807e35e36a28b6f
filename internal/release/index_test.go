package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeIndex(t *testing.T, published map[string]bool) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/broken/1.0.0/json":
			w.WriteHeader(http.StatusInternalServerError)
		case published[r.URL.Path]:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"info":{}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestIndex_Published(t *testing.T) {
	srv := newFakeIndex(t, map[string]bool{"/data-pull-tools/0.3.0/json": true})
	idx := NewIndex(srv.URL + "/")
	ctx := context.Background()

	ok, err := idx.Published(ctx, "data_pull_tools", "0.3.0")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = idx.Published(ctx, "Data.Pull_Tools", "0.3.1")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = idx.Published(ctx, "broken", "1.0.0")
	assert.ErrorContains(t, err, "500")
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "data-pull-tools", NormalizeName("Data__Pull.tools"))
}

func TestJSONAPIURL(t *testing.T) {
	tests := map[string]string{
		"https://upload.pypi.org/legacy/": "https://pypi.org/pypi",
		"https://test.pypi.org/legacy/":   "https://test.pypi.org/pypi",
		"https://pkgs.example.com/simple": "https://pkgs.example.com/simple",
		"https://pkgs.example.com":        "https://pkgs.example.com/pypi",
	}

	for in, want := range tests {
		got, err := JSONAPIURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := JSONAPIURL("not a url")
	assert.Error(t, err)
}

func TestIndexURLFromPypirc(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pypirc")
	content := `[distutils]
index-servers =
    pypi
    testpypi

[pypi]
username = __token__

[testpypi]
repository = https://test.pypi.org/legacy/
username = __token__
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	got, err := IndexURLFromPypirc(path, "testpypi")
	require.NoError(t, err)
	assert.Equal(t, "https://test.pypi.org/pypi", got)

	got, err = IndexURLFromPypirc(path, "")
	require.NoError(t, err)
	assert.Empty(t, got, "pypi section has no repository")

	got, err = IndexURLFromPypirc(filepath.Join(t.TempDir(), "missing"), "pypi")
	require.NoError(t, err)
	assert.Empty(t, got)

	resolved, err := ResolveIndexURL("", path, "testpypi")
	require.NoError(t, err)
	assert.Equal(t, "https://test.pypi.org/pypi", resolved)

	resolved, err = ResolveIndexURL("https://mirror.local/pypi", path, "testpypi")
	require.NoError(t, err)
	assert.Equal(t, "https://mirror.local/pypi", resolved)

	resolved, err = ResolveIndexURL(DefaultIndexURL, path, "pypi")
	require.NoError(t, err)
	assert.Equal(t, DefaultIndexURL, resolved)
}
