package cmd

import (
	"fmt"
	"os"

	"github.com/inovacc/datapull/internal/tasks"
	"github.com/spf13/cobra"
)

var taskInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default Taskfile into the project",
	Args:  cobra.NoArgs,
	RunE:  runTaskInit,
}

func init() {
	taskCmd.AddCommand(taskInitCmd)
	taskInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing Taskfile")
}

func runTaskInit(cmd *cobra.Command, _ []string) error {
	s, err := openTaskSession()
	if err != nil {
		return err
	}
	defer s.Close()

	force, _ := cmd.Flags().GetBool("force")

	if _, err := os.Stat(s.path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", s.path)
	}

	if err := tasks.DefaultTaskfile().Save(s.path); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Wrote "+s.path))

	return nil
}
