package cmd

import (
	"errors"

	"github.com/inovacc/datapull/internal/tasks"
	"github.com/spf13/cobra"
)

// errNotEligible makes an ineligible check exit non-zero after the
// reasons have been printed.
var errNotEligible = errors.New("release is not eligible")

var releaseCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Decide whether the current version may be released",
	Long: `A version is eligible when it is a valid release version, its tag
(v<version>) does not exist, the package index does not have it yet, and
the working tree is clean.`,
	Args: cobra.NoArgs,
	RunE: runReleaseCheck,
}

func init() {
	releaseCmd.AddCommand(releaseCheckCmd)
	releaseCheckCmd.Flags().Bool("allow-dirty", false, "Do not require a clean working tree")
}

func runReleaseCheck(cmd *cobra.Command, _ []string) error {
	allowDirty, _ := cmd.Flags().GetBool("allow-dirty")

	eligible, err := runBuiltin(cmd, tasks.BuiltinReleaseCheck, func(env *tasks.Env) {
		env.AllowDirty = allowDirty
	})
	if err != nil {
		return err
	}

	if !eligible {
		return errNotEligible
	}

	return nil
}
