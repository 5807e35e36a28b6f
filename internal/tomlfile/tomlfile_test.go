package tomlfile

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pyproject = `[project]
name = "data_pull_tools"
version = "0.3.1"

[tool.ruff]
line-length = 100
`

func writeTOML(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pyproject.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoad(t *testing.T) {
	doc, err := Load(writeTOML(t, pyproject))
	require.NoError(t, err)

	assert.Equal(t, "data_pull_tools", GetItem(doc, []string{"project", "name"}))
	assert.Equal(t, int64(100), GetItem(doc, ParseKeyChain("tool.ruff.line-length")))

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestGetOrTable(t *testing.T) {
	doc := Document{"name": "x", "tool": map[string]any{"a": int64(1)}}

	table, err := GetOrTable(doc, "tool", Replace)
	require.NoError(t, err)
	assert.Equal(t, int64(1), table["a"])

	created, err := GetOrTable(doc, "new", Raise)
	require.NoError(t, err)
	assert.Empty(t, created)
	assert.Contains(t, doc, "new")

	_, err = GetOrTable(doc, "name", Raise)
	var collision *NonTableKeyCollisionError
	require.True(t, errors.As(err, &collision))
	assert.Equal(t, "name", collision.Key)

	replaced, err := GetOrTable(doc, "name", Replace)
	require.NoError(t, err)
	assert.Empty(t, replaced)
	assert.IsType(t, map[string]any{}, doc["name"])
}

func TestUpdateValues(t *testing.T) {
	doc := Document{
		"project": map[string]any{"name": "pkg", "version": "1.0.0"},
		"flag":    true,
	}

	err := UpdateValues(doc, map[string]any{
		"project": map[string]any{"version": "1.1.0"},
		"tool":    map[string]any{"uv": map[string]any{"dev": true}},
	}, Replace)
	require.NoError(t, err)

	want := Document{
		"project": map[string]any{"name": "pkg", "version": "1.1.0"},
		"flag":    true,
		"tool":    map[string]any{"uv": map[string]any{"dev": true}},
	}
	if diff := cmp.Diff(want, doc); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}

	err = UpdateValues(doc, map[string]any{"flag": map[string]any{"x": 1}}, Raise)
	assert.Error(t, err)
}

func TestUpdateValue(t *testing.T) {
	doc := Document{}

	require.NoError(t, UpdateValue(doc, []string{"a", "b", "c"}, "v", Replace))
	assert.Equal(t, "v", GetItem(doc, []string{"a", "b", "c"}))

	assert.Error(t, UpdateValue(doc, nil, "v", Replace))
	assert.Error(t, UpdateValue(doc, []string{"a", "b", "c", "d"}, 1, Raise))
}

func TestGetTableAndItem(t *testing.T) {
	doc := Document{"a": map[string]any{"b": map[string]any{"c": "leaf"}}}

	assert.NotNil(t, GetTable(doc, []string{"a", "b"}))
	assert.Nil(t, GetTable(doc, []string{"a", "b", "c"}), "leaf is not a table")
	assert.Nil(t, GetTable(doc, []string{"a", "x", "y"}), "exhausted early")
	assert.Nil(t, GetTable(doc, []string{"a", "b", "c", "d"}))

	assert.Equal(t, "leaf", GetItem(doc, []string{"a", "b", "c"}))
	assert.Nil(t, GetItem(doc, []string{"a", "b"}), "tables are not items")
	assert.Nil(t, GetItem(doc, []string{"missing"}))
}

func TestUpdateFileValue(t *testing.T) {
	path := writeTOML(t, pyproject)

	require.NoError(t, UpdateFileValue(path, ParseKeyChain("project.version"), "0.4.0", Replace))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.4.0", GetItem(doc, ParseKeyChain("project.version")))
	assert.Equal(t, "data_pull_tools", GetItem(doc, ParseKeyChain("project.name")))
	assert.Equal(t, int64(100), GetItem(doc, ParseKeyChain("tool.ruff.line-length")))
}

func TestUpdateFile(t *testing.T) {
	path := writeTOML(t, pyproject)

	require.NoError(t, UpdateFile(path, map[string]any{
		"tool": map[string]any{"pytest": map[string]any{"addopts": "-q"}},
	}, Replace))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "-q", GetItem(doc, ParseKeyChain("tool.pytest.addopts")))
}

func TestManage_NoWriteOnError(t *testing.T) {
	path := writeTOML(t, pyproject)

	err := Manage(path, func(doc Document) error {
		doc["project"] = "clobbered"
		return errors.New("abort")
	})
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pyproject, string(data))
}

func TestParseKeyChain(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseKeyChain("a..b."))
	assert.Nil(t, ParseKeyChain(""))
}

func TestParseValue(t *testing.T) {
	assert.Equal(t, int64(3), ParseValue("3"))
	assert.Equal(t, true, ParseValue("true"))
	assert.Equal(t, "quoted", ParseValue(`"quoted"`))
	assert.Equal(t, "1.2.3", ParseValue("1.2.3"))
	assert.Equal(t, []any{int64(1), int64(2)}, ParseValue("[1, 2]"))
}
