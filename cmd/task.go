package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/inovacc/datapull/internal/database"
	"github.com/inovacc/datapull/internal/model"
	"github.com/inovacc/datapull/internal/tasks"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Run the project's packaging tasks",
	Long: `Run the named task pipelines defined in the project's Taskfile
(datapull.yaml). Without a Taskfile the default pipeline is used:

  lock    uv lock
  test    uv run pytest
  build   uv build
  bump    bump the project version
  deploy  release.check (gate), test, build, release.publish, bump

Examples:
  datapull task list
  datapull task run test build
  datapull task run deploy --dry-run`,
}

func init() {
	rootCmd.AddCommand(taskCmd)
}

// taskSession bundles what a task command needs. Its store opens the
// database per call, so long runs and watches do not lock out other
// commands.
type taskSession struct {
	store    database.Store
	cfg      model.Config
	project  string
	path     string
	found    bool
	taskfile *tasks.Taskfile
}

func (s *taskSession) Close() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func taskfilePath(project string, cfg model.Config) string {
	if filepath.IsAbs(cfg.Taskfile) {
		return cfg.Taskfile
	}

	return filepath.Join(project, cfg.Taskfile)
}

func openTaskSession() (*taskSession, error) {
	path, err := storePath()
	if err != nil {
		return nil, err
	}

	s := &taskSession{store: database.NewOnDemand(path)}

	if s.cfg, err = loadConfig(s.store); err != nil {
		s.Close()
		return nil, err
	}

	if s.project, err = projectDir(); err != nil {
		s.Close()
		return nil, err
	}

	s.path = taskfilePath(s.project, s.cfg)

	s.taskfile, s.found, err = tasks.LoadOrDefault(s.path)
	if err != nil {
		s.Close()
		return nil, err
	}

	if !s.found {
		slog.Debug("no taskfile, using the default pipeline", slog.String("path", s.path))
	}

	return s, nil
}

func (s *taskSession) source() string {
	if s.found {
		return s.path
	}

	return fmt.Sprintf("default pipeline (no %s)", filepath.Base(s.path))
}
