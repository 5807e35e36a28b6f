package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/inovacc/datapull/internal/model"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show recorded task runs",
	Long: `List recorded task runs, newest first, or show the steps of one run.

Examples:
  datapull history
  datapull history --task deploy --limit 5
  datapull history 3f2b9c1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().String("task", "", "Only runs of this task")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum runs to list (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if len(args) == 1 {
		run, err := store.GetRun(args[0])
		if err != nil {
			return err
		}

		printRun(cmd, run)

		return nil
	}

	task, _ := cmd.Flags().GetString("task")
	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := store.ListRuns(task, limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), dimStyle.Render("No runs recorded."))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tTASK\tSTATUS\tSTARTED\tDURATION")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.Task, r.Status, r.StartedAt.Local().Format(time.DateTime), r.Duration().Round(time.Millisecond))
	}

	return w.Flush()
}

func printRun(cmd *cobra.Command, run *model.TaskRun) {
	out := cmd.OutOrStdout()

	_, _ = fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("%s (%s)", run.Task, run.ID)))
	_, _ = fmt.Fprintf(out, "Project:  %s\n", run.ProjectDir)
	_, _ = fmt.Fprintf(out, "Status:   %s\n", statusStyle(run.Status).Render(string(run.Status)))
	_, _ = fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.DateTime))
	_, _ = fmt.Fprintf(out, "Duration: %s\n", run.Duration().Round(time.Millisecond))

	if run.Error != "" {
		_, _ = fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}

	_, _ = fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STEP\tSTATUS\tDURATION\tERROR")

	for _, s := range run.Steps {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Name, s.Status, s.Duration.Round(time.Millisecond), s.Error)
	}

	_ = w.Flush()
}
