package cmd

import (
	"fmt"

	"github.com/inovacc/datapull/internal/tomlfile"
	"github.com/spf13/cobra"
)

var tomlSetCmd = &cobra.Command{
	Use:   "set <file> <key> <value>",
	Short: "Set a value, creating tables on the way",
	Long: `Set the value at key. The value is parsed as a TOML value (numbers,
booleans, arrays, quoted strings); anything else is stored as a string.
Use --string to store the value verbatim.

Examples:
  datapull toml set pyproject.toml project.version 1.4.0
  datapull toml set pyproject.toml tool.pytest.ini_options.addopts '["-q"]'`,
	Args: cobra.ExactArgs(3),
	RunE: runTomlSet,
}

func init() {
	tomlCmd.AddCommand(tomlSetCmd)
	tomlSetCmd.Flags().Bool("raise", false, "Fail instead of replacing a plain value on the key path")
	tomlSetCmd.Flags().Bool("string", false, "Store the value as a string without parsing")
}

func runTomlSet(cmd *cobra.Command, args []string) error {
	path, key, raw := args[0], args[1], args[2]

	chain := tomlfile.ParseKeyChain(key)
	if len(chain) == 0 {
		return fmt.Errorf("empty key")
	}

	var value any = raw
	if asString, _ := cmd.Flags().GetBool("string"); !asString {
		value = tomlfile.ParseValue(raw)
	}

	if err := tomlfile.UpdateFileValue(path, chain, value, collisionPolicy(cmd)); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Set %s in %s", key, path)))

	return nil
}
