package cmd

import (
	"fmt"
	"strings"

	"github.com/inovacc/datapull/internal/tasks"
	"github.com/spf13/cobra"
)

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available tasks and builtins",
	Args:  cobra.NoArgs,
	RunE:  runTaskList,
}

func init() {
	taskCmd.AddCommand(taskListCmd)
	taskListCmd.Flags().Bool("builtins", false, "Also list builtin steps")
}

func runTaskList(cmd *cobra.Command, _ []string) error {
	s, err := openTaskSession()
	if err != nil {
		return err
	}
	defer s.Close()

	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintln(out, titleStyle.Render("Tasks")+" "+dimStyle.Render("from "+s.source()))

	width := 0
	for _, name := range s.taskfile.Names() {
		width = max(width, len(name))
	}

	for _, name := range s.taskfile.Names() {
		task := s.taskfile.Tasks[name]
		_, _ = fmt.Fprintf(out, "  %-*s  %s\n", width, name, task.Description)
	}

	if showBuiltins, _ := cmd.Flags().GetBool("builtins"); showBuiltins {
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, titleStyle.Render("Builtins"))

		for _, b := range tasks.DefaultRegistry().List() {
			_, _ = fmt.Fprintf(out, "  %-16s %s\n", b.Name, strings.TrimSpace(b.Description))
		}
	}

	return nil
}
