package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/inovacc/datapull/internal/model"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage datapull configuration",
	Long: `Commands for managing the configuration kept in the datapull store.

Available Commands:
  show      Print every setting
  get       Print one setting
  set       Change one setting
  reset     Restore the defaults`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print every setting",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:       "get <key>",
	Short:     "Print one setting",
	Args:      cobra.ExactArgs(1),
	ValidArgs: model.ConfigKeys(),
	RunE:      runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. An empty value restores the default.

Examples:
  datapull config set github_repo acme/tools
  datapull config set cacher csv
  datapull config set index_url https://test.pypi.org/pypi`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: model.ConfigKeys(),
	RunE:      runConfigSet,
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigReset,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configGetCmd, configSetCmd, configResetCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cfg, err := loadConfig(store)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEY\tVALUE")

	for _, key := range model.ConfigKeys() {
		value, _ := cfg.Get(key)
		_, _ = fmt.Fprintf(w, "%s\t%s\n", key, value)
	}

	return w.Flush()
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cfg, err := loadConfig(store)
	if err != nil {
		return err
	}

	value, err := cfg.Get(args[0])
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cfg, err := loadConfig(store)
	if err != nil {
		return err
	}

	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}

	cfg = cfg.WithDefaults()

	if err := store.SaveConfig(&cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	value, _ := cfg.Get(args[0])
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("%s = %s", args[0], value)))

	return nil
}

func runConfigReset(cmd *cobra.Command, _ []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cfg := model.DefaultConfig()
	if err := store.SaveConfig(&cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Configuration reset to defaults"))

	return nil
}
