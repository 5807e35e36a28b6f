package cmd

import (
	"github.com/inovacc/datapull/internal/tasks"
	"github.com/spf13/cobra"
)

var releasePublishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Tag the version and publish the built artifacts",
	Long: `Scans the artifacts in the dist directory for secrets, tags v<version>,
optionally pushes the tag, and creates a GitHub release with the artifacts
attached. The repository is github_repo, or the owner/name of a github.com
remote. Without a token only the tag is published.

Examples:
  datapull release publish --dry-run
  datapull release publish --remote origin`,
	Args: cobra.NoArgs,
	RunE: runReleasePublish,
}

func init() {
	releaseCmd.AddCommand(releasePublishCmd)
	releasePublishCmd.Flags().Bool("dry-run", false, "Report what would happen without doing it")
	releasePublishCmd.Flags().String("remote", "", "Git remote that receives the tag")
	releasePublishCmd.Flags().String("token", "", "GitHub token (default: GITHUB_TOKEN, GH_TOKEN or gh CLI)")
}

func runReleasePublish(cmd *cobra.Command, _ []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	remote, _ := cmd.Flags().GetString("remote")
	token, _ := cmd.Flags().GetString("token")

	_, err := runBuiltin(cmd, tasks.BuiltinReleasePublish, func(env *tasks.Env) {
		env.DryRun = dryRun
		env.Remote = remote
		env.Token = token
	})

	return reportLeaks(cmd.ErrOrStderr(), err)
}
