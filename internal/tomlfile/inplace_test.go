package tomlfile

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const commented = `# Project metadata
[project]
name = "data_pull_tools"
version = "0.1.0"  # bumped by release tooling
description = 'Tools'

[tool.poetry]
packages.include = 'src'
flag = false

[[tool.extra]]
version = "9"
`

func TestSetInPlace(t *testing.T) {
	tests := []struct {
		name  string
		chain string
		value any
		want  string
	}{
		{"basic string", "project.version", "0.1.1", `version = "0.1.1"  # bumped by release tooling`},
		{"literal string keeps quotes", "project.description", "More tools", `description = 'More tools'`},
		{"literal with quote falls back to basic", "project.description", "it's", `description = "it's"`},
		{"dotted key", "tool.poetry.packages.include", "lib", `packages.include = 'lib'`},
		{"bool to int", "tool.poetry.flag", int64(3), `flag = 3`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok, err := SetInPlace([]byte(commented), ParseKeyChain(tt.chain), tt.value)
			require.NoError(t, err)
			require.True(t, ok)

			assert.Contains(t, string(out), tt.want)
			assert.Contains(t, string(out), "# Project metadata\n[project]\nname = \"data_pull_tools\"\n")

			doc, err := Parse(out)
			require.NoError(t, err)
			assert.Equal(t, tt.value, GetItem(doc, ParseKeyChain(tt.chain)))
		})
	}
}

func TestSetInPlace_NotAddressable(t *testing.T) {
	for _, chain := range []string{"project.missing", "tool.extra.version", "project", "tool"} {
		out, ok, err := SetInPlace([]byte(commented), ParseKeyChain(chain), "x")
		require.NoError(t, err, chain)
		assert.False(t, ok, chain)
		assert.Equal(t, commented, string(out), chain)
	}

	_, ok, err := SetInPlace([]byte(commented), ParseKeyChain("project.version"), map[string]any{"a": 1})
	require.NoError(t, err)
	assert.False(t, ok, "tables are structural")
}

func TestSetInPlace_Escapes(t *testing.T) {
	out, ok, err := SetInPlace([]byte(commented), ParseKeyChain("project.version"), "a\"b\\c\n")
	require.NoError(t, err)
	require.True(t, ok)

	doc, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, "a\"b\\c\n", GetItem(doc, ParseKeyChain("project.version")))
}

func TestUpdateFileValue_KeepsLayout(t *testing.T) {
	path := writeTOML(t, commented)

	require.NoError(t, UpdateFileValue(path, ParseKeyChain("project.version"), "0.2.0", Raise))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	want := `# Project metadata
[project]
name = "data_pull_tools"
version = "0.2.0"  # bumped by release tooling
description = 'Tools'

[tool.poetry]
packages.include = 'src'
flag = false

[[tool.extra]]
version = "9"
`
	if diff := cmp.Diff(want, string(data)); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateFile_InPlaceAndStructural(t *testing.T) {
	path := writeTOML(t, commented)

	require.NoError(t, UpdateFile(path, map[string]any{
		"project": map[string]any{"version": "1.0.0", "name": "renamed"},
	}, Replace))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# bumped by release tooling")
	assert.Contains(t, string(data), `name = "renamed"`)

	// A new key needs a rewrite.
	require.NoError(t, UpdateFile(path, map[string]any{
		"project": map[string]any{"license": "MIT"},
	}, Replace))

	doc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "MIT", GetItem(doc, ParseKeyChain("project.license")))
	assert.Equal(t, "1.0.0", GetItem(doc, ParseKeyChain("project.version")))
}
