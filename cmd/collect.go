package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/inovacc/datapull/internal/cache"
	"github.com/inovacc/datapull/internal/collect"
	"github.com/inovacc/datapull/internal/excel"
	"github.com/inovacc/datapull/internal/frame"
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect <dir>",
	Short: "Merge every workbook in a directory into one",
	Long: `Read every workbook matching --glob in <dir>, concatenate their rows
(the union of their columns) and write the result to --output. Inputs are
read in parallel through the frame cache. The output is rebuilt only when
an input is newer, unless --force is given.

With --watch the directory is monitored and the output rebuilt after every
change until interrupted.

Examples:
  datapull collect reports --output all.xlsx
  datapull collect reports --sheet Summary --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runCollect,
}

func init() {
	rootCmd.AddCommand(collectCmd)
	collectCmd.Flags().StringP("output", "o", "collected.xlsx", "Output workbook (bare names go inside <dir>)")
	collectCmd.Flags().String("glob", collect.DefaultGlob, "Input file pattern")
	collectCmd.Flags().String("sheet", "", "Sheet name, index or * to read from every input")
	collectCmd.Flags().String("strategy", "", "Cache strategy (default: configured strategy)")
	collectCmd.Flags().String("cacher", "", "Cache format: "+strings.Join(cache.Names(), ", "))
	collectCmd.Flags().IntP("jobs", "j", 0, "Parallel workbook reads (default: number of CPUs)")
	collectCmd.Flags().Bool("force", false, "Rebuild the output even when it is up to date")
	collectCmd.Flags().BoolP("watch", "w", false, "Rebuild whenever an input changes")
}

func runCollect(cmd *cobra.Command, args []string) error {
	s, err := openTaskSession()
	if err != nil {
		return err
	}
	defer s.Close()

	output, _ := cmd.Flags().GetString("output")
	glob, _ := cmd.Flags().GetString("glob")
	sheet, _ := cmd.Flags().GetString("sheet")
	strategyName, _ := cmd.Flags().GetString("strategy")
	cacherName, _ := cmd.Flags().GetString("cacher")
	jobs, _ := cmd.Flags().GetInt("jobs")
	force, _ := cmd.Flags().GetBool("force")
	watch, _ := cmd.Flags().GetBool("watch")

	if strategyName == "" {
		strategyName = s.cfg.Strategy
	}

	strategy, err := cache.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	if cacherName == "" {
		cacherName = s.cfg.Cacher
	}

	cacher, err := cache.New(cacherName, cache.Hooks{})
	if err != nil {
		return err
	}

	c, err := collect.NewCollector(args[0], output, collect.Options{
		Sheet:       excel.ParseSheetSelector(sheet),
		Glob:        glob,
		Cacher:      cacher,
		CacheDir:    s.cfg.CacheDir,
		Parallelism: jobs,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts := collect.CollectOptions{Strategy: strategy, Force: force}
	w := cmd.OutOrStdout()

	report := func(f *frame.Frame) {
		_, _ = fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("Collected %d rows x %d columns into %s",
			f.Len(), f.Width(), filepath.Base(c.OutputFile))))
	}

	if !watch {
		f, err := c.Collect(ctx, opts)
		if err != nil {
			return err
		}

		report(f)

		return nil
	}

	return c.Watch(ctx, collect.WatchOptions{
		CollectOptions: opts,
		OnCollect: func(f *frame.Frame, err error) error {
			if err != nil {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), warnStyle.Render("Collection failed: "+err.Error()))
				return nil
			}

			report(f)

			return nil
		},
	})
}
