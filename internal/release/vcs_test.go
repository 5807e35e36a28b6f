package release

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inovacc/datapull/internal/git"
	"github.com/inovacc/datapull/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietGit(dir string) *git.Client {
	g := git.NewClientForRepo(dir)
	g.Stdout, g.Stderr = nil, nil

	return g
}

func TestDetectRepo(t *testing.T) {
	dir := setupProject(t, testPyproject)
	g := quietGit(dir)
	ctx := context.Background()

	_, err := DetectRepo(ctx, g, "origin", "")
	assert.Error(t, err, "no remote")

	gitIn(t, dir, "remote", "add", "origin", "git@github.com:acme/tools.git")
	gitIn(t, dir, "remote", "add", "mirror", "https://gitlab.com/acme/tools.git")

	repo, err := DetectRepo(ctx, g, "origin", "")
	require.NoError(t, err)
	assert.Equal(t, "acme/tools", repo)

	_, err = DetectRepo(ctx, g, "mirror", DefaultHost)
	assert.ErrorContains(t, err, "not hosted on github.com")
}

func TestCommitBump_PushesNewBranch(t *testing.T) {
	dir := setupProject(t, testPyproject)
	bare := t.TempDir()
	gitIn(t, bare, "init", "--bare")
	gitIn(t, dir, "remote", "add", "origin", bare)

	_, next, err := BumpFile(filepath.Join(dir, PyprojectFile), Patch)
	require.NoError(t, err)

	committed, err := CommitBump(context.Background(), quietGit(dir), next, "origin", logging.Discard())
	require.NoError(t, err)
	assert.True(t, committed)

	assert.Empty(t, strings.TrimSpace(gitIn(t, dir, "status", "-s")))

	branch := strings.TrimSpace(gitIn(t, dir, "rev-parse", "--abbrev-ref", "HEAD"))
	assert.Contains(t, gitIn(t, bare, "log", "--oneline", branch), "Bump version to 0.3.2")

	// Nothing left to commit is not an error.
	committed, err = CommitBump(context.Background(), quietGit(dir), next, "", logging.Discard())
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestCommitBump_OutsideGit(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PyprojectFile), []byte(testPyproject), 0o644))

	committed, err := CommitBump(context.Background(), quietGit(dir), "0.3.2", "origin", logging.Discard())
	require.NoError(t, err)
	assert.False(t, committed)
}

func TestPublisher_TagAlreadyExists(t *testing.T) {
	dir := setupProject(t, testPyproject)
	writeDist(t, dir, map[string]string{"pkg.whl": "wheel"})
	gitIn(t, dir, "tag", "v0.3.1")

	_, err := newPublisher(t, dir).Publish(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "bump the version before publishing")
	assert.True(t, git.IsAlreadyExists(err))
}

func TestPushError(t *testing.T) {
	assert.NoError(t, pushError("origin", nil))

	auth := git.NewGitError([]string{"push", "origin"}, "fatal: Authentication failed for 'https://github.com/acme/tools.git/'", nil)
	assert.ErrorContains(t, pushError("origin", auth), "check the git credentials")

	other := git.NewGitError([]string{"push", "origin"}, "fatal: unable to access", nil)
	assert.ErrorContains(t, pushError("origin", other), "failed to push to origin")
}
