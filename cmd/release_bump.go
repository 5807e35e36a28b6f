package cmd

import (
	"fmt"
	"strings"

	"github.com/inovacc/datapull/internal/release"
	"github.com/inovacc/datapull/internal/tasks"
	"github.com/spf13/cobra"
)

var releaseBumpCmd = &cobra.Command{
	Use:   "bump <major|minor|patch|prerelease>",
	Short: "Increment the project version",
	Long: `Rewrites the version in pyproject.toml and commits the file. Comments and
layout are kept. With --remote the commit is pushed, setting the upstream
of a new branch.

Examples:
  datapull release bump patch
  datapull release bump prerelease --dry-run
  datapull release bump minor --remote origin`,
	Args: cobra.ExactArgs(1),
	ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return partNames(), cobra.ShellCompDirectiveNoFileComp
	},
	RunE: runReleaseBump,
}

func init() {
	releaseCmd.AddCommand(releaseBumpCmd)
	releaseBumpCmd.Flags().Bool("dry-run", false, "Print the next version without writing it")
	releaseBumpCmd.Flags().Bool("no-commit", false, "Leave the bumped pyproject.toml uncommitted")
	releaseBumpCmd.Flags().String("remote", "", "Git remote that receives the bump commit")
}

func runReleaseBump(cmd *cobra.Command, args []string) error {
	part, err := release.ParsePart(args[0])
	if err != nil {
		return fmt.Errorf("%w\nvalid parts: %s", err, strings.Join(partNames(), ", "))
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	noCommit, _ := cmd.Flags().GetBool("no-commit")
	remote, _ := cmd.Flags().GetString("remote")

	_, err = runBuiltin(cmd, tasks.BuiltinReleaseBump, func(env *tasks.Env) {
		env.BumpPart = part
		env.DryRun = dryRun
		env.NoCommit = noCommit
		env.Remote = remote
	})

	return err
}

func partNames() []string {
	names := make([]string, 0, len(release.Parts()))
	for _, p := range release.Parts() {
		names = append(names, string(p))
	}

	return names
}
