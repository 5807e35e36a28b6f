package cmd

import (
	"github.com/inovacc/datapull/internal/tomlfile"
	"github.com/spf13/cobra"
)

var tomlCmd = &cobra.Command{
	Use:   "toml",
	Short: "Read and edit TOML files",
	Long: `Read and edit TOML files such as pyproject.toml. Keys are dotted
chains (tool.poetry.version). Edits create missing tables; a key on the
path that holds a plain value is replaced by a table unless --raise is set.

Files are rewritten atomically. Comments and layout are not preserved.`,
}

func init() {
	rootCmd.AddCommand(tomlCmd)
}

func collisionPolicy(cmd *cobra.Command) tomlfile.CollisionPolicy {
	if raise, _ := cmd.Flags().GetBool("raise"); raise {
		return tomlfile.Raise
	}

	return tomlfile.Replace
}
