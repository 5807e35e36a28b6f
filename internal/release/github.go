package release

import (
	"context"
	"fmt"
	"strings"

	ghauth "github.com/cli/go-gh/v2/pkg/auth"
	"github.com/google/go-github/v82/github"
	"github.com/inovacc/datapull/internal/auth"
	"github.com/inovacc/datapull/internal/git"
	"golang.org/x/oauth2"
)

// DefaultHost is the GitHub host tokens are resolved for.
const DefaultHost = "github.com"

// TokenSource indicates where the token was found
type TokenSource string

const (
	TokenSourceFlag      TokenSource = "flag"
	TokenSourceEnvGitHub TokenSource = "GITHUB_TOKEN"
	TokenSourceEnvGH     TokenSource = "GH_TOKEN"
	TokenSourceGHCLI     TokenSource = "gh-cli"
	TokenSourceNone      TokenSource = "none"
)

const tokenHelp = `Provide a token via one of:
  * gh auth login             (auto-detected from gh CLI)
  * GITHUB_TOKEN env var
  * --token flag`

// ErrNoToken is returned when no GitHub token can be found.
var ErrNoToken = auth.ErrNoToken

// ResolveToken finds a GitHub token for host.
// Priority order:
//  1. flagToken (explicit --token flag)
//  2. GITHUB_TOKEN environment variable
//  3. GH_TOKEN environment variable
//  4. gh CLI auth for the host
func ResolveToken(flagToken, host string) (string, TokenSource, error) {
	if host == "" {
		host = DefaultHost
	}

	res, err := auth.NewResolver("GitHub").
		WithFlagValue(flagToken).
		WithEnvs(string(TokenSourceEnvGitHub), string(TokenSourceEnvGH)).
		WithProvider(func() (string, string, error) {
			token, _ := ghauth.TokenForHost(host)
			return token, string(TokenSourceGHCLI), nil
		}).
		WithHelpMessage(tokenHelp).
		Resolve()
	if err != nil {
		return "", TokenSourceNone, err
	}

	return res.Token, TokenSource(res.Name), nil
}

// NewGitHubClient creates an authenticated GitHub client using the provided token.
func NewGitHubClient(ctx context.Context, token string) *github.Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(ctx, ts)

	return github.NewClient(tc)
}

// DetectRepo derives "owner/name" from the URL of remote when it points at
// host.
func DetectRepo(ctx context.Context, g *git.Client, remote, host string) (string, error) {
	if host == "" {
		host = DefaultHost
	}

	rawURL, err := g.RemoteURL(ctx, remote)
	if err != nil {
		return "", err
	}

	u, err := git.ParseURL(rawURL)
	if err != nil {
		return "", err
	}

	if !strings.EqualFold(u.Hostname(), host) {
		return "", fmt.Errorf("remote %s is not hosted on %s", remote, host)
	}

	return git.RepoSlug(rawURL)
}
