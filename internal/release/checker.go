package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inovacc/datapull/internal/git"
)

// Eligibility is the outcome of a release check.
type Eligibility struct {
	Eligible bool     `json:"eligible"`
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Tag      string   `json:"tag"`
	Reasons  []string `json:"reasons,omitempty"`
}

func (e *Eligibility) String() string {
	if e.Eligible {
		return fmt.Sprintf("%s %s is eligible for release", e.Name, e.Version)
	}

	return fmt.Sprintf("%s %s is not eligible for release: %s", e.Name, e.Version, strings.Join(e.Reasons, "; "))
}

// Err returns an *IneligibleError when the release is not eligible.
func (e *Eligibility) Err() error {
	if e.Eligible {
		return nil
	}

	return &IneligibleError{Version: e.Version, Reasons: e.Reasons}
}

// IneligibleError lists why a version cannot be released.
type IneligibleError struct {
	Version string
	Reasons []string
}

func (e *IneligibleError) Error() string {
	return fmt.Sprintf("version %s is not eligible for release: %s", e.Version, strings.Join(e.Reasons, "; "))
}

// IsIneligible reports whether err is an *IneligibleError.
func IsIneligible(err error) bool {
	var target *IneligibleError
	return errors.As(err, &target)
}

// Checker decides whether the project's current version can be released.
type Checker struct {
	Project *Project
	Git     *git.Client
	Index   *Index

	// AllowDirty skips the clean working tree requirement.
	AllowDirty bool

	Logger *slog.Logger
}

// Check evaluates every condition and reports all failing ones. Errors
// talking to git or the index are returned as errors, not reasons.
func (c *Checker) Check(ctx context.Context) (*Eligibility, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := c.Project

	g := c.Git
	if g == nil {
		g = git.NewClientForRepo(p.Dir)
	}

	e := &Eligibility{Name: p.Name, Version: p.Version, Tag: p.Tag()}

	if _, err := ParseVersion(p.Version); err != nil {
		e.Reasons = append(e.Reasons, fmt.Sprintf("version %q is not a valid release version", p.Version))
	}

	isProject, err := git.IsProject(p.Dir)
	if err != nil {
		return nil, err
	}

	if !isProject {
		e.Reasons = append(e.Reasons, fmt.Sprintf("%s is not a git project", p.Dir))
	} else {
		exists, err := g.TagExists(ctx, e.Tag)
		if err != nil {
			return nil, fmt.Errorf("failed to look up tag %s: %w", e.Tag, err)
		}

		if exists {
			e.Reasons = append(e.Reasons, fmt.Sprintf("tag %s already exists", e.Tag))
		}

		if !c.AllowDirty {
			dirty, err := g.HasChanges(ctx, p.Dir)
			if err != nil {
				return nil, err
			}

			if dirty {
				e.Reasons = append(e.Reasons, "working tree has uncommitted changes")
			}
		}
	}

	if c.Index != nil {
		published, err := c.Index.Published(ctx, p.Name, p.Version)
		if err != nil {
			return nil, err
		}

		if published {
			e.Reasons = append(e.Reasons, fmt.Sprintf("%s %s is already on %s", p.Name, p.Version, c.Index.BaseURL))
		}
	}

	e.Eligible = len(e.Reasons) == 0

	logger.Info("release check",
		slog.String("name", e.Name),
		slog.String("version", e.Version),
		slog.Bool("eligible", e.Eligible),
		slog.Int("reasons", len(e.Reasons)),
	)

	return e, nil
}
