package model

import (
	"fmt"
	"sort"
	"strings"

	"github.com/inovacc/datapull/internal/application"
)

// Config holds the application configuration
type Config struct {
	// CacheDir is where cached frames are stored, relative to the project root
	CacheDir string `json:"cache_dir"`

	// Cacher selects the cache format (sqlite, csv, json)
	Cacher string `json:"cacher"`

	// Strategy is the default cache strategy name
	Strategy string `json:"strategy"`

	// Taskfile is the task definition file name, relative to the project root
	Taskfile string `json:"taskfile"`

	// DistDir holds build artifacts to publish
	DistDir string `json:"dist_dir"`

	// GitHubRepo is the owner/name used for releases (optional)
	GitHubRepo string `json:"github_repo,omitempty"`

	// IndexURL is the base of the package index JSON API
	IndexURL string `json:"index_url"`

	// PyPIRC is the .pypirc file consulted for repository URLs
	PyPIRC string `json:"pypirc"`

	// Repository is the .pypirc section name
	Repository string `json:"repository"`

	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		CacheDir:   ".cache",
		Cacher:     "sqlite",
		Strategy:   "check",
		Taskfile:   application.TaskfileName,
		DistDir:    "dist",
		IndexURL:   "https://pypi.org/pypi",
		PyPIRC:     "~/.pypirc",
		Repository: "pypi",
		LogLevel:   "info",
		LogFormat:  "auto",
	}
}

// configFields maps config keys to accessors for the CLI.
var configFields = map[string]func(*Config) *string{
	"cache_dir":   func(c *Config) *string { return &c.CacheDir },
	"cacher":      func(c *Config) *string { return &c.Cacher },
	"strategy":    func(c *Config) *string { return &c.Strategy },
	"taskfile":    func(c *Config) *string { return &c.Taskfile },
	"dist_dir":    func(c *Config) *string { return &c.DistDir },
	"github_repo": func(c *Config) *string { return &c.GitHubRepo },
	"index_url":   func(c *Config) *string { return &c.IndexURL },
	"pypirc":      func(c *Config) *string { return &c.PyPIRC },
	"repository":  func(c *Config) *string { return &c.Repository },
	"log_level":   func(c *Config) *string { return &c.LogLevel },
	"log_format":  func(c *Config) *string { return &c.LogFormat },
}

// ConfigKeys returns the settable keys in sorted order.
func ConfigKeys() []string {
	keys := make([]string, 0, len(configFields))
	for k := range configFields {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Get returns the value stored under key.
func (c *Config) Get(key string) (string, error) {
	field, ok := configFields[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(ConfigKeys(), ", "))
	}

	return *field(c), nil
}

// Set updates the value stored under key.
func (c *Config) Set(key, value string) error {
	field, ok := configFields[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(ConfigKeys(), ", "))
	}

	*field(c) = value

	return nil
}

// WithDefaults fills empty fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()

	for _, field := range configFields {
		if *field(&c) == "" {
			*field(&c) = *field(&def)
		}
	}

	return c
}
