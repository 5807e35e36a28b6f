package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/google/go-github/v82/github"
	"github.com/inovacc/datapull/internal/git"
	"github.com/inovacc/datapull/internal/model"
	"github.com/inovacc/datapull/internal/release"
	"github.com/inovacc/datapull/internal/security"
)

// Builtin names.
const (
	BuiltinReleaseCheck   = "release.check"
	BuiltinReleasePublish = "release.publish"
	BuiltinReleaseBump    = "release.bump"
	BuiltinGitClean       = "git.clean"
)

// Env is what builtins and commands run against.
type Env struct {
	ProjectDir string
	Config     model.Config
	Stdout     io.Writer
	Stderr     io.Writer
	Logger     *slog.Logger

	// Token is the GitHub token; resolved lazily when empty.
	Token string

	DryRun     bool
	AllowDirty bool
	BumpPart   release.Part

	// NoCommit leaves a version bump uncommitted.
	NoCommit bool

	// Remote receives release tags and version bump commits. Empty keeps
	// both local.
	Remote string

	// GitHubClient overrides client construction.
	GitHubClient func(ctx context.Context, token string) *github.Client
}

func (e *Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}

	return e.Logger
}

func (e *Env) stdout() io.Writer {
	if e.Stdout == nil {
		return io.Discard
	}

	return e.Stdout
}

func (e *Env) git() *git.Client {
	g := git.NewClientForRepo(e.ProjectDir)
	g.Stdout = e.Stdout
	g.Stderr = e.Stderr
	g.Logger = e.logger()

	return g
}

// BuiltinFunc runs a builtin. The bool is the gate result; non-gate
// builtins return true on success.
type BuiltinFunc func(ctx context.Context, env *Env) (bool, error)

// Builtin is a named in-process step. A Gate builtin closes the gate of
// its task when it returns false, whether or not the step sets gate.
type Builtin struct {
	Name        string
	Description string
	Gate        bool
	Run         BuiltinFunc
}

// Registry holds the available builtins.
type Registry struct {
	builtins map[string]Builtin
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{builtins: map[string]Builtin{}}
}

// DefaultRegistry returns the release and git builtins.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(Builtin{Name: BuiltinReleaseCheck, Description: "Gate on release eligibility", Gate: true, Run: releaseCheck})
	r.Register(Builtin{Name: BuiltinReleasePublish, Description: "Tag and publish the release", Run: releasePublish})
	r.Register(Builtin{Name: BuiltinReleaseBump, Description: "Bump the project version", Run: releaseBump})
	r.Register(Builtin{Name: BuiltinGitClean, Description: "Gate on a clean working tree", Gate: true, Run: gitClean})

	return r
}

// Register adds or replaces a builtin.
func (r *Registry) Register(b Builtin) {
	r.builtins[b.Name] = b
}

// Lookup finds a builtin by name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	b, ok := r.builtins[name]
	return b, ok
}

// List returns the builtins sorted by name.
func (r *Registry) List() []Builtin {
	out := make([]Builtin, 0, len(r.builtins))
	for _, b := range r.builtins {
		out = append(out, b)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

func releaseCheck(ctx context.Context, env *Env) (bool, error) {
	p, err := release.LoadProject(env.ProjectDir)
	if err != nil {
		return false, err
	}

	indexURL, err := release.ResolveIndexURL(env.Config.IndexURL, env.Config.PyPIRC, env.Config.Repository)
	if err != nil {
		return false, err
	}

	checker := &release.Checker{
		Project:    p,
		Git:        env.git(),
		Index:      release.NewIndex(indexURL),
		AllowDirty: env.AllowDirty,
		Logger:     env.logger(),
	}

	e, err := checker.Check(ctx)
	if err != nil {
		return false, err
	}

	_, _ = fmt.Fprintln(env.stdout(), e.String())

	return e.Eligible, nil
}

func releasePublish(ctx context.Context, env *Env) (bool, error) {
	p, err := release.LoadProject(env.ProjectDir)
	if err != nil {
		return false, err
	}

	scanner, err := security.NewLeakScanner(security.Options{
		IgnoreDir: env.ProjectDir,
		Logger:    env.logger(),
	})
	if err != nil {
		return false, err
	}

	pub := &release.Publisher{
		Project: p,
		Git:     env.git(),
		Scanner: scanner,
		DistDir: env.Config.DistDir,
		Repo:    env.Config.GitHubRepo,
		Remote:  env.Remote,
		DryRun:  env.DryRun,
		Logger:  env.logger(),
	}

	if pub.Repo == "" {
		remote := env.Remote
		if remote == "" {
			remote = "origin"
		}

		repo, err := release.DetectRepo(ctx, pub.Git, remote, release.DefaultHost)
		if err != nil {
			env.logger().Debug("no GitHub repository detected", slog.String("remote", remote), slog.String("error", err.Error()))
		} else {
			env.logger().Debug("detected GitHub repository", slog.String("repo", repo))
			pub.Repo = repo
		}
	}

	if pub.Repo != "" && !env.DryRun {
		token, source, err := release.ResolveToken(env.Token, release.DefaultHost)

		switch {
		case errors.Is(err, release.ErrNoToken):
			env.logger().Warn("no GitHub token, publishing the tag only",
				slog.String("repo", pub.Repo),
			)
		case err != nil:
			return false, err
		default:
			env.logger().Debug("resolved GitHub token", slog.String("source", string(source)))

			newClient := env.GitHubClient
			if newClient == nil {
				newClient = release.NewGitHubClient
			}

			pub.GitHub = newClient(ctx, token)
		}
	}

	res, err := pub.Publish(ctx)
	if err != nil {
		return false, err
	}

	_, _ = fmt.Fprint(env.stdout(), res.String())

	return true, nil
}

func releaseBump(ctx context.Context, env *Env) (bool, error) {
	part := env.BumpPart
	if part == "" {
		part = release.Patch
	}

	path := filepath.Join(env.ProjectDir, release.PyprojectFile)

	if env.DryRun {
		p, err := release.LoadProject(env.ProjectDir)
		if err != nil {
			return false, err
		}

		next, err := release.Bump(p.Version, part)
		if err != nil {
			return false, err
		}

		_, _ = fmt.Fprintf(env.stdout(), "Would bump %s -> %s\n", p.Version, next)

		return true, nil
	}

	oldVersion, newVersion, err := release.BumpFile(path, part)
	if err != nil {
		return false, err
	}

	_, _ = fmt.Fprintf(env.stdout(), "Bumped %s -> %s\n", oldVersion, newVersion)

	if env.NoCommit {
		return true, nil
	}

	committed, err := release.CommitBump(ctx, env.git(), newVersion, env.Remote, env.logger())
	if committed {
		_, _ = fmt.Fprintf(env.stdout(), "Committed %s\n", release.PyprojectFile)
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

func gitClean(ctx context.Context, env *Env) (bool, error) {
	changed, err := env.git().HasChanges(ctx, env.ProjectDir)
	if err != nil {
		return false, err
	}

	if changed {
		_, _ = fmt.Fprintln(env.stdout(), "Working tree has uncommitted changes")
	}

	return !changed, nil
}
