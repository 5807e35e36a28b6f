package release

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const testPyproject = `[project]
name = "data_pull_tools"
version = "0.3.1"
description = "Data pulling helpers"
`

// setupProject creates a committed git project with a pyproject.toml.
func setupProject(t *testing.T, pyproject string) string {
	t.Helper()

	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, PyprojectFile), []byte(pyproject), 0644); err != nil {
		t.Fatalf("failed to write pyproject: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("dist/\n"), 0644); err != nil {
		t.Fatalf("failed to write .gitignore: %v", err)
	}

	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@test.com"},
		{"config", "user.name", "Test User"},
		{"config", "commit.gpgsign", "false"},
		{"config", "tag.gpgsign", "false"},
		{"add", "."},
		{"commit", "-m", "Initial commit"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir

		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v failed: %v\n%s", args, err, out)
		}
	}

	return dir
}

func gitIn(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, out)
	}

	return string(out)
}
