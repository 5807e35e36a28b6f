package release

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/go-github/v82/github"
	"github.com/inovacc/datapull/internal/git"
	"github.com/inovacc/datapull/internal/security"
)

// DefaultDistDir holds the built artifacts.
const DefaultDistDir = "dist"

// Publisher tags a release and attaches the built artifacts to a GitHub
// release.
type Publisher struct {
	Project *Project
	Git     *git.Client

	// Scanner checks the artifacts before anything is published. Nil skips
	// the scan.
	Scanner *security.LeakScanner

	// DistDir is relative to the project dir unless absolute.
	DistDir string

	// Repo is "owner/name". Empty skips the GitHub release.
	Repo   string
	GitHub *github.Client

	// Remote receives the tag. Empty keeps the tag local.
	Remote string

	DryRun bool
	Logger *slog.Logger
}

// Result describes what a publish did, or would do on a dry run.
type Result struct {
	Name       string   `json:"name"`
	Version    string   `json:"version"`
	Tag        string   `json:"tag"`
	Artifacts  []string `json:"artifacts"`
	Pushed     bool     `json:"pushed"`
	ReleaseURL string   `json:"release_url,omitempty"`
	Uploaded   []string `json:"uploaded,omitempty"`
	DryRun     bool     `json:"dry_run"`
}

func (r *Result) String() string {
	var sb strings.Builder

	verb := "Published"
	if r.DryRun {
		verb = "Would publish"
	}

	_, _ = fmt.Fprintf(&sb, "%s %s %s (tag %s)\n", verb, r.Name, r.Version, r.Tag)

	for _, a := range r.Artifacts {
		_, _ = fmt.Fprintf(&sb, "  artifact: %s\n", a)
	}

	if r.Pushed {
		sb.WriteString("  tag pushed\n")
	}

	if r.ReleaseURL != "" {
		_, _ = fmt.Fprintf(&sb, "  release: %s\n", r.ReleaseURL)
	}

	if len(r.Uploaded) > 0 {
		_, _ = fmt.Fprintf(&sb, "  uploaded %d asset(s)\n", len(r.Uploaded))
	}

	return sb.String()
}

func (p *Publisher) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}

	return p.Logger
}

func (p *Publisher) distDir() string {
	dir := p.DistDir
	if dir == "" {
		dir = DefaultDistDir
	}

	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.Project.Dir, dir)
	}

	return dir
}

// Artifacts lists the regular files in the dist dir.
func (p *Publisher) Artifacts() ([]string, error) {
	dir := p.distDir()

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dist dir: %w", err)
	}

	var files []string

	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no artifacts in %s", dir)
	}

	return files, nil
}

// Publish scans the artifacts, tags the version, pushes the tag and
// creates the GitHub release with the artifacts attached.
func (p *Publisher) Publish(ctx context.Context) (*Result, error) {
	logger := p.logger()

	g := p.Git
	if g == nil {
		g = git.NewClientForRepo(p.Project.Dir)
	}

	result := &Result{
		Name:    p.Project.Name,
		Version: p.Project.Version,
		Tag:     p.Project.Tag(),
		DryRun:  p.DryRun,
	}

	artifacts, err := p.Artifacts()
	if err != nil {
		return nil, err
	}

	for _, a := range artifacts {
		result.Artifacts = append(result.Artifacts, filepath.Base(a))
	}

	if p.Scanner != nil {
		scan, err := p.Scanner.ScanPaths(ctx, artifacts...)
		if err != nil {
			return nil, err
		}

		if scan.HasLeaks() {
			return nil, &security.LeaksFoundError{Result: scan}
		}
	}

	if p.DryRun {
		result.Pushed = p.Remote != ""
		if p.Repo != "" {
			result.ReleaseURL = fmt.Sprintf("https://github.com/%s/releases/tag/%s", p.Repo, result.Tag)
			result.Uploaded = result.Artifacts
		}

		logger.Info("dry run, nothing published", slog.String("tag", result.Tag))

		return result, nil
	}

	message := fmt.Sprintf("Release %s %s", p.Project.Name, p.Project.Version)
	if err := g.Tag(ctx, result.Tag, message); err != nil {
		if git.IsAlreadyExists(err) {
			return nil, fmt.Errorf("tag %s already exists, bump the version before publishing: %w", result.Tag, err)
		}

		return nil, fmt.Errorf("failed to tag %s: %w", result.Tag, err)
	}

	logger.Info("tagged release", slog.String("tag", result.Tag))

	if p.Remote != "" {
		if err := pushError(p.Remote, g.Push(ctx, p.Remote, "refs/tags/"+result.Tag, git.PushOptions{})); err != nil {
			return nil, err
		}

		result.Pushed = true
	}

	if p.Repo == "" || p.GitHub == nil {
		return result, nil
	}

	if err := p.createRelease(ctx, result, artifacts, message); err != nil {
		return nil, err
	}

	return result, nil
}

// pushBranch pushes the current branch, setting its upstream on remote when
// it has none yet.
func pushBranch(ctx context.Context, g *git.Client, remote string) error {
	err := g.Push(ctx, remote, "", git.PushOptions{})
	if git.IsNoUpstream(err) {
		branch, berr := g.CurrentBranch(ctx)
		if berr != nil {
			return fmt.Errorf("failed to resolve current branch: %w", berr)
		}

		err = g.Push(ctx, remote, branch, git.PushOptions{SetUpstream: true})
	}

	return pushError(remote, err)
}

func pushError(remote string, err error) error {
	switch {
	case err == nil:
		return nil
	case git.IsAuthRequired(err):
		return fmt.Errorf("authentication to %s failed, check the git credentials for this remote: %w", remote, err)
	default:
		return fmt.Errorf("failed to push to %s: %w", remote, err)
	}
}

func (p *Publisher) createRelease(ctx context.Context, result *Result, artifacts []string, message string) error {
	logger := p.logger()

	owner, repo, ok := strings.Cut(p.Repo, "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("invalid GitHub repository %q (want owner/name)", p.Repo)
	}

	v, _ := ParseVersion(p.Project.Version)

	req := &github.RepositoryRelease{
		TagName:              github.Ptr(result.Tag),
		Name:                 github.Ptr(fmt.Sprintf("%s %s", p.Project.Name, p.Project.Version)),
		Body:                 github.Ptr(message),
		Prerelease:           github.Ptr(v != nil && v.Prerelease() != ""),
		GenerateReleaseNotes: github.Ptr(true),
	}

	logger.Debug("creating release",
		slog.String("owner", owner),
		slog.String("repo", repo),
		slog.String("tag", result.Tag),
	)

	release, _, err := p.GitHub.Repositories.CreateRelease(ctx, owner, repo, req)
	if err != nil {
		return fmt.Errorf("failed to create release: %w", err)
	}

	result.ReleaseURL = release.GetHTMLURL()

	for _, path := range artifacts {
		name, err := uploadAsset(ctx, p.GitHub, owner, repo, release.GetID(), path, logger)
		if err != nil {
			return err
		}

		result.Uploaded = append(result.Uploaded, name)
	}

	return nil
}

func uploadAsset(ctx context.Context, client *github.Client, owner, repo string, releaseID int64, assetPath string, logger *slog.Logger) (string, error) {
	file, err := os.Open(assetPath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	stat, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	name := filepath.Base(assetPath)
	logger.Info("uploading asset",
		slog.String("name", name),
		slog.Int64("size", stat.Size()),
	)

	asset, _, err := client.Repositories.UploadReleaseAsset(ctx, owner, repo, releaseID, &github.UploadOptions{Name: name}, file)
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}

	return asset.GetName(), nil
}
