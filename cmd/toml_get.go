package cmd

import (
	"fmt"

	"github.com/inovacc/datapull/internal/tomlfile"
	"github.com/spf13/cobra"
)

var tomlGetCmd = &cobra.Command{
	Use:   "get <file> [key]",
	Short: "Print a value or table",
	Long: `Print the value at key. Tables are printed as TOML; without a key the
whole document is printed.

Examples:
  datapull toml get pyproject.toml project.version
  datapull toml get pyproject.toml tool.pytest`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runTomlGet,
}

func init() {
	tomlCmd.AddCommand(tomlGetCmd)
}

func runTomlGet(cmd *cobra.Command, args []string) error {
	doc, err := tomlfile.Load(args[0])
	if err != nil {
		return err
	}

	var chain []string
	if len(args) == 2 {
		chain = tomlfile.ParseKeyChain(args[1])
	}

	w := cmd.OutOrStdout()

	if table := tomlfile.GetTable(doc, chain); table != nil {
		data, err := tomlfile.Encode(table)
		if err != nil {
			return err
		}

		_, _ = fmt.Fprint(w, string(data))

		return nil
	}

	item := tomlfile.GetItem(doc, chain)
	if item == nil {
		return fmt.Errorf("key %q not found in %s", args[1], args[0])
	}

	_, _ = fmt.Fprintln(w, item)

	return nil
}
