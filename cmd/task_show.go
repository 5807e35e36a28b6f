package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var taskShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the steps of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskShow,
}

func init() {
	taskCmd.AddCommand(taskShowCmd)
}

func runTaskShow(cmd *cobra.Command, args []string) error {
	s, err := openTaskSession()
	if err != nil {
		return err
	}
	defer s.Close()

	task, err := s.taskfile.Get(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintln(out, titleStyle.Render(args[0]))
	if task.Description != "" {
		_, _ = fmt.Fprintln(out, dimStyle.Render(task.Description))
	}

	for i, step := range task.Steps {
		kind := "run"

		switch {
		case step.Task != "":
			kind = "task"
		case step.Builtin != "":
			kind = "builtin"
		}

		line := fmt.Sprintf("  %d. [%s] %s", i+1, kind, step.Label())
		if step.Gate {
			line += " " + warnStyle.Render("(gate)")
		}

		if step.Dir != "" {
			line += dimStyle.Render(" in " + step.Dir)
		}

		_, _ = fmt.Fprintln(out, line)
	}

	return nil
}
