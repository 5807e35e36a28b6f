package release

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/inovacc/datapull/internal/git"
	"github.com/inovacc/datapull/internal/tomlfile"
)

// Part names the version component to increment.
type Part string

const (
	Major      Part = "major"
	Minor      Part = "minor"
	Patch      Part = "patch"
	Prerelease Part = "prerelease"
)

// Parts lists the accepted bump parts.
func Parts() []Part {
	return []Part{Major, Minor, Patch, Prerelease}
}

// ParsePart validates a bump part name.
func ParsePart(s string) (Part, error) {
	p := Part(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Major, Minor, Patch, Prerelease:
		return p, nil
	case "pre", "rc":
		return Prerelease, nil
	}

	return "", fmt.Errorf("unknown version part %q (want major, minor, patch or prerelease)", s)
}

// pep440 accepts the release forms written to pyproject.toml: 1.2, 1.2.3,
// 1.2.3rc1, 1.2.3-b.2.
var pep440 = regexp.MustCompile(`^v?(\d+(?:\.\d+){0,2})(?:[-_.]?(a|b|rc|alpha|beta)[-_.]?(\d+))?$`)

// ParseVersion parses a package version into a semver.Version, with any
// pre-release mapped to "<label>.<n>".
func ParseVersion(s string) (*semver.Version, error) {
	m := pep440.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, fmt.Errorf("invalid version %q", s)
	}

	v := m[1]
	if m[2] != "" {
		v += "-" + normalizeLabel(m[2]) + "." + m[3]
	}

	return semver.NewVersion(v)
}

func normalizeLabel(l string) string {
	switch l {
	case "alpha":
		return "a"
	case "beta":
		return "b"
	}

	return l
}

// FormatVersion renders v in package-version form (1.2.3rc1).
func FormatVersion(v *semver.Version) string {
	out := fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())

	if pre := v.Prerelease(); pre != "" {
		out += strings.ReplaceAll(pre, ".", "")
	}

	return out
}

// Bump increments version by part. A prerelease bump on a final version
// starts rc1 of the next patch; on an rc it increments the counter. A
// patch bump on a prerelease finalizes it.
func Bump(version string, part Part) (string, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return "", err
	}

	var next semver.Version

	switch part {
	case Major:
		next = v.IncMajor()
	case Minor:
		next = v.IncMinor()
	case Patch:
		next = v.IncPatch()
	case Prerelease:
		return FormatVersion(bumpPrerelease(v)), nil
	default:
		return "", fmt.Errorf("unknown version part %q", part)
	}

	return FormatVersion(&next), nil
}

func bumpPrerelease(v *semver.Version) *semver.Version {
	label, n := "rc", 0

	if pre := v.Prerelease(); pre != "" {
		if l, num, ok := strings.Cut(pre, "."); ok {
			label = l
			n, _ = strconv.Atoi(num)
		}

		next, _ := v.SetPrerelease(label + "." + strconv.Itoa(n+1))

		return &next
	}

	patched := v.IncPatch()
	next, _ := patched.SetPrerelease(label + ".1")

	return &next
}

// BumpFile bumps the version stored in the pyproject.toml at path and
// returns the old and new versions. Only the version literal is rewritten.
func BumpFile(path string, part Part) (oldVersion, newVersion string, err error) {
	doc, err := tomlfile.Load(path)
	if err != nil {
		return "", "", err
	}

	key := []string{"project", "version"}
	if tomlfile.GetTable(doc, []string{"project"}) == nil && tomlfile.GetTable(doc, []string{"tool", "poetry"}) != nil {
		key = []string{"tool", "poetry", "version"}
	}

	current, ok := tomlfile.GetItem(doc, key).(string)
	if !ok || current == "" {
		return "", "", fmt.Errorf("%s has no %s", path, strings.Join(key, "."))
	}

	next, err := Bump(current, part)
	if err != nil {
		return "", "", err
	}

	if err := tomlfile.UpdateFileValue(path, key, next, tomlfile.Raise); err != nil {
		return "", "", err
	}

	return current, next, nil
}

// CommitBump commits the bumped pyproject.toml and pushes the current branch
// to remote when it is set. A project outside git is left uncommitted and
// reports false.
func CommitBump(ctx context.Context, g *git.Client, version, remote string, logger *slog.Logger) (bool, error) {
	err := g.Commit(ctx, fmt.Sprintf("Bump version to %s", version), PyprojectFile)

	switch {
	case err == nil:
		logger.Info("committed version bump", slog.String("version", version))
	case git.IsNothingToCommit(err):
		logger.Debug("version bump already committed", slog.String("version", version))
		return false, nil
	case git.IsNotRepository(err), errors.Is(err, exec.ErrNotFound):
		logger.Warn("version bump not committed", slog.String("error", err.Error()))
		return false, nil
	default:
		return false, fmt.Errorf("failed to commit version bump: %w", err)
	}

	if remote == "" {
		return true, nil
	}

	return true, pushBranch(ctx, g, remote)
}
