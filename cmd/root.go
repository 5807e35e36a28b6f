package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inovacc/datapull/internal/application"
	"github.com/inovacc/datapull/internal/database"
	"github.com/inovacc/datapull/internal/git"
	"github.com/inovacc/datapull/internal/logging"
	"github.com/inovacc/datapull/internal/model"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   application.AppName,
	Short: "Packaging task runner and spreadsheet data tools",
	Long: `Datapull runs a project's packaging pipeline (lock, test, build, deploy,
version bump), decides whether a version may be released, and provides the
data pulling helpers: cached spreadsheet reading, workbook collection,
TOML editing and git utilities.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
}

var rootFlags struct {
	db         string
	logLevel   string
	logFormat  string
	projectDir string
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, errStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// GetRootCmd returns the root command for introspection purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.db, "db", "", "Path to the datapull store (default: application directory)")
	pf.StringVar(&rootFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&rootFlags.logFormat, "log-format", "", "Log format: auto, text, json")
	pf.StringVarP(&rootFlags.projectDir, "project", "C", "", "Project directory (default: enclosing git project or cwd)")
}

// setupLogging installs the process logger. Flags win over the stored
// configuration; a store that cannot be opened leaves the defaults.
func setupLogging(cmd *cobra.Command, _ []string) error {
	cfg := model.DefaultConfig()

	if store, err := openStore(); err == nil {
		if stored, err := store.GetConfig(); err == nil {
			cfg = stored.WithDefaults()
		}

		_ = store.Close()
	}

	level, format := cfg.LogLevel, cfg.LogFormat
	if rootFlags.logLevel != "" {
		level = rootFlags.logLevel
	}

	if rootFlags.logFormat != "" {
		format = rootFlags.logFormat
	}

	logger, err := logging.New(logging.Options{Level: level, Format: format, Writer: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}

	slog.SetDefault(logger)

	return nil
}

func storePath() (string, error) {
	if rootFlags.db != "" {
		if err := os.MkdirAll(filepath.Dir(rootFlags.db), 0o755); err != nil {
			return "", fmt.Errorf("failed to create store directory: %w", err)
		}

		return rootFlags.db, nil
	}

	return application.DefaultDatabasePath()
}

func openStore() (database.Store, error) {
	path, err := storePath()
	if err != nil {
		return nil, err
	}

	return database.Open(path)
}

// loadConfig returns the stored configuration with defaults applied.
func loadConfig(store database.Store) (model.Config, error) {
	cfg, err := store.GetConfig()
	if err != nil {
		return model.Config{}, err
	}

	return cfg.WithDefaults(), nil
}

// projectDir resolves --project, else the enclosing git project, else cwd.
func projectDir() (string, error) {
	if rootFlags.projectDir != "" {
		return filepath.Abs(rootFlags.projectDir)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	if root, err := git.FindProjectRoot(cwd); err == nil {
		return root, nil
	}

	return cwd, nil
}
