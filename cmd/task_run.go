package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/inovacc/datapull/internal/model"
	"github.com/inovacc/datapull/internal/release"
	"github.com/inovacc/datapull/internal/tasks"
	"github.com/spf13/cobra"
)

var taskRunCmd = &cobra.Command{
	Use:   "run <name>...",
	Short: "Run one or more tasks in order",
	Long: `Runs each named task in order and stops at the first failure. Command
steps stream their output; their exit status decides success. A gate step
that closes ends its task without error.

Examples:
  datapull task run lock
  datapull task run deploy --remote origin
  datapull task run deploy --dry-run --allow-dirty`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTaskRun,
}

func init() {
	taskCmd.AddCommand(taskRunCmd)
	taskRunCmd.Flags().Bool("dry-run", false, "Report release actions without performing them")
	taskRunCmd.Flags().Bool("allow-dirty", false, "Do not require a clean working tree for release checks")
	taskRunCmd.Flags().String("bump", string(release.Patch), "Version part bumped by release.bump")
	taskRunCmd.Flags().String("remote", "", "Git remote that receives release tags and the bump commit")
	taskRunCmd.Flags().String("token", "", "GitHub token (default: GITHUB_TOKEN, GH_TOKEN or gh CLI)")
}

func runTaskRun(cmd *cobra.Command, args []string) error {
	s, err := openTaskSession()
	if err != nil {
		return err
	}
	defer s.Close()

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	allowDirty, _ := cmd.Flags().GetBool("allow-dirty")
	bump, _ := cmd.Flags().GetString("bump")
	remote, _ := cmd.Flags().GetString("remote")
	token, _ := cmd.Flags().GetString("token")

	part, err := release.ParsePart(bump)
	if err != nil {
		return err
	}

	env := &tasks.Env{
		ProjectDir: s.project,
		Config:     s.cfg,
		Stdout:     cmd.OutOrStdout(),
		Stderr:     cmd.ErrOrStderr(),
		Token:      token,
		DryRun:     dryRun,
		AllowDirty: allowDirty,
		BumpPart:   part,
		Remote:     remote,
	}

	runner, err := tasks.NewRunner(s.taskfile, tasks.DefaultRegistry(), env, s.store)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()

	for _, name := range args {
		run, err := runner.Run(ctx, name)
		if err != nil {
			return reportLeaks(cmd.ErrOrStderr(), err)
		}

		switch run.Status {
		case model.RunStatusGated:
			_, _ = fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf("Task %s stopped at a closed gate (%s)", name, run.Duration().Round(time.Millisecond))))
		default:
			_, _ = fmt.Fprintln(out, okStyle.Render(fmt.Sprintf("Task %s succeeded (%s)", name, run.Duration().Round(time.Millisecond))))
		}
	}

	return nil
}
