// Package auth resolves credentials from an ordered list of sources.
package auth

import (
	"errors"
	"fmt"
	"os"
)

// ErrNoToken is returned by Resolve when no source yields a token.
var ErrNoToken = errors.New("token required")

// Result contains the resolved token and the name of its source
type Result struct {
	Token string
	Name  string // e.g. "flag", "GITHUB_TOKEN", "gh-cli"
}

// TokenProvider is a function that attempts to provide a token.
// Returns the token and source name if found, or empty string if not available.
// Returns an error only for unexpected failures (not for missing token).
type TokenProvider func() (token string, sourceName string, err error)

// Resolver resolves tokens from multiple sources in priority order
type Resolver struct {
	providers   []TokenProvider
	serviceName string
	helpMessage string
}

// NewResolver creates a new token resolver for a service
func NewResolver(serviceName string) *Resolver {
	return &Resolver{serviceName: serviceName}
}

// WithFlagValue adds an explicit value, typically a --token flag.
func (r *Resolver) WithFlagValue(value string) *Resolver {
	return r.WithProvider(func() (string, string, error) {
		return value, "flag", nil
	})
}

// WithEnvs adds environment variables as token sources (checked in order)
func (r *Resolver) WithEnvs(envVars ...string) *Resolver {
	for _, envVar := range envVars {
		r.WithProvider(func() (string, string, error) {
			return os.Getenv(envVar), envVar, nil
		})
	}

	return r
}

// WithProvider adds a custom token provider
func (r *Resolver) WithProvider(provider TokenProvider) *Resolver {
	r.providers = append(r.providers, provider)
	return r
}

// WithHelpMessage sets the help message shown when no token is found
func (r *Resolver) WithHelpMessage(msg string) *Resolver {
	r.helpMessage = msg
	return r
}

// Resolve returns the first non-empty token. The error wraps ErrNoToken
// when every source came up empty.
func (r *Resolver) Resolve() (*Result, error) {
	for _, provider := range r.providers {
		token, sourceName, err := provider()
		if err != nil {
			return nil, fmt.Errorf("token provider %s: %w", sourceName, err)
		}

		if token != "" {
			return &Result{Token: token, Name: sourceName}, nil
		}
	}

	if r.helpMessage != "" {
		return nil, fmt.Errorf("%s %w\n\n%s", r.serviceName, ErrNoToken, r.helpMessage)
	}

	return nil, fmt.Errorf("%s %w", r.serviceName, ErrNoToken)
}
