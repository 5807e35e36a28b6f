package cmd

import (
	"fmt"

	"github.com/inovacc/datapull/internal/tasks"
	"github.com/spf13/cobra"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Check, publish and bump project releases",
	Long: `Release helpers for the project in the current directory (or --project).

  check    decide whether the current version may be released
  scan     scan the built artifacts for secrets
  publish  scan dist/, tag the version and create the GitHub release
  bump     increment the version in pyproject.toml

Examples:
  datapull release check
  datapull release publish --dry-run
  datapull release bump minor`,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
}

// runBuiltin runs a registered builtin against the project, outside any
// task pipeline.
func runBuiltin(cmd *cobra.Command, name string, configure func(*tasks.Env)) (bool, error) {
	s, err := openTaskSession()
	if err != nil {
		return false, err
	}
	defer s.Close()

	b, ok := tasks.DefaultRegistry().Lookup(name)
	if !ok {
		return false, fmt.Errorf("unknown builtin %q", name)
	}

	env := &tasks.Env{
		ProjectDir: s.project,
		Config:     s.cfg,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
	}

	if configure != nil {
		configure(env)
	}

	return b.Run(cmd.Context(), env)
}
