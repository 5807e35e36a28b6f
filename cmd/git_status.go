package cmd

import (
	"errors"
	"fmt"

	"github.com/inovacc/datapull/internal/git"
	"github.com/spf13/cobra"
)

// errDirty makes `git status --check` exit non-zero on a dirty tree.
var errDirty = errors.New("working tree has uncommitted changes")

var gitStatusCmd = &cobra.Command{
	Use:   "status [path]",
	Short: "Report whether a project has uncommitted changes",
	Long: `Report whether the git project at path (default: the project directory)
has uncommitted or untracked changes, and list them.

Examples:
  datapull git status
  datapull git status ../other --check`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGitStatus,
}

func init() {
	gitCmd.AddCommand(gitStatusCmd)
	gitStatusCmd.Flags().Bool("check", false, "Exit non-zero when there are changes")
}

func runGitStatus(cmd *cobra.Command, args []string) error {
	path, err := projectDir()
	if err != nil {
		return err
	}

	if len(args) == 1 {
		path = args[0]
	}

	client := newGitClient(cmd, path)
	ctx := cmd.Context()

	dirty, err := client.HasChanges(ctx, path)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if branch, err := client.CurrentBranch(ctx); err == nil {
		_, _ = fmt.Fprintf(w, "On branch %s\n", branch)
	}

	if !dirty {
		_, _ = fmt.Fprintln(w, okStyle.Render("nothing to commit, working tree clean"))
		return nil
	}

	_, _ = fmt.Fprintln(w, warnStyle.Render("Uncommitted changes:"))

	res, err := client.Run(ctx, []string{"status", "-s"}, git.RunOptions{Dir: path, Capture: true, Check: true})
	if err != nil {
		return err
	}

	_, _ = fmt.Fprint(w, res.Stdout)

	if check, _ := cmd.Flags().GetBool("check"); check {
		return errDirty
	}

	return nil
}
