package cmd

import (
	"github.com/inovacc/datapull/internal/git"
	"github.com/spf13/cobra"
)

var gitCmd = &cobra.Command{
	Use:   "git",
	Short: "Git helpers for projects and submodules",
	Long: `Git helpers used by the packaging pipeline.

Available Commands:
  status    Report whether a project has uncommitted changes
  clone     Clone a repository, optionally with its submodules
  foreach   Run a command in every submodule

Examples:
  datapull git status
  datapull git clone owner/repo --submodules
  datapull git foreach -- git pull`,
}

func init() {
	rootCmd.AddCommand(gitCmd)
}

// newGitClient returns a client that streams to the command's output.
func newGitClient(cmd *cobra.Command, dir string) *git.Client {
	c := git.NewClientForRepo(dir)
	c.Stdout = cmd.OutOrStdout()
	c.Stderr = cmd.ErrOrStderr()

	return c
}
