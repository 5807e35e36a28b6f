// Package model defines the data structures shared by the datapull packages.
//
// # Config
//
// The [Config] struct holds persisted application settings. It is stored as
// JSON by the database package and edited with `datapull config`:
//
//	type Config struct {
//	    CacheDir   string // Cache directory relative to the project root
//	    Cacher     string // sqlite, csv or json
//	    Strategy   string // Default cache strategy
//	    Taskfile   string // Task definition file
//	    DistDir    string // Artifacts to publish
//	    GitHubRepo string // owner/name for releases
//	    IndexURL   string // Package index JSON API
//	}
//
// # TaskRun
//
// The [TaskRun] struct records one invocation of a Taskfile task together
// with the outcome of each step. Runs are appended to the history bucket.
package model
