package cmd

import (
	"github.com/inovacc/datapull/internal/git"
	"github.com/spf13/cobra"
)

var gitForeachCmd = &cobra.Command{
	Use:   "foreach [path] -- <command...>",
	Short: "Run a command in every submodule",
	Long: `Run a command in every submodule of the project, recursively.

Examples:
  datapull git foreach -- git pull --ff-only
  datapull git foreach ../other --trust-local -- git status -s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGitForeach,
}

func init() {
	gitCmd.AddCommand(gitForeachCmd)
	gitForeachCmd.Flags().Bool("trust-local", false, "Allow submodules backed by local paths")
}

func runGitForeach(cmd *cobra.Command, args []string) error {
	path, err := projectDir()
	if err != nil {
		return err
	}

	command := args
	if dash := cmd.ArgsLenAtDash(); dash > 0 {
		path = args[0]
		command = args[dash:]
	}

	if len(command) == 0 {
		return cmd.Usage()
	}

	trustLocal, _ := cmd.Flags().GetBool("trust-local")

	client := newGitClient(cmd, path)
	_, err = client.SubmoduleForeach(cmd.Context(), command, path, git.CloneOptions{TrustLocalSubmodules: trustLocal})

	return err
}
