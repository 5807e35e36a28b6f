package cmd

import (
	"fmt"

	"github.com/inovacc/datapull/internal/tomlfile"
	"github.com/spf13/cobra"
)

var tomlMergeCmd = &cobra.Command{
	Use:   "merge <file> <source>",
	Short: "Merge the tables of one TOML file into another",
	Long: `Merge every key of <source> into <file>. Nested tables are merged
recursively; plain values in <source> win.

Example:
  datapull toml merge pyproject.toml defaults.toml`,
	Args: cobra.ExactArgs(2),
	RunE: runTomlMerge,
}

func init() {
	tomlCmd.AddCommand(tomlMergeCmd)
	tomlMergeCmd.Flags().Bool("raise", false, "Fail instead of replacing a plain value with a table")
}

func runTomlMerge(cmd *cobra.Command, args []string) error {
	src, err := tomlfile.Load(args[1])
	if err != nil {
		return err
	}

	if err := tomlfile.UpdateFile(args[0], src, collisionPolicy(cmd)); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Merged %s into %s", args[1], args[0])))

	return nil
}
