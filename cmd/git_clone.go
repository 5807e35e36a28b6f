package cmd

import (
	"fmt"
	"os"
	"regexp"

	"github.com/inovacc/datapull/internal/git"
	"github.com/spf13/cobra"
)

var gitCloneCmd = &cobra.Command{
	Use:   "clone <repository> [<directory>]",
	Short: "Clone a repository",
	Long: `Clone a Git repository.

Supports multiple repository formats:
  - owner/repo           Clone from GitHub using owner/repo format
  - https://...          Clone using HTTPS URL
  - git@host:owner/repo  Clone using SSH URL
  - /path/to/repo        Clone a local repository

Examples:
  datapull git clone owner/repo
  datapull git clone owner/repo ~/projects/myrepo --submodules
  datapull git clone ../local-repo copy --submodules --trust-local
  datapull git clone owner/repo -c http.sslVerify=false`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGitClone,
}

func init() {
	gitCmd.AddCommand(gitCloneCmd)
	gitCloneCmd.Flags().BoolP("force", "f", false, "Remove the target directory first when it exists")
	gitCloneCmd.Flags().Bool("submodules", false, "Initialise submodules recursively")
	gitCloneCmd.Flags().Bool("trust-local", false, "Allow submodules cloned from local paths")
	gitCloneCmd.Flags().StringToStringP("config", "c", nil, "Extra git config key=value for the clone")
}

var shorthandRepo = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)

// expandRepository turns owner/repo into a GitHub HTTPS URL. Existing
// local paths are left alone.
func expandRepository(repo string) string {
	if !shorthandRepo.MatchString(repo) {
		return repo
	}

	if _, err := os.Stat(repo); err == nil {
		return repo
	}

	return fmt.Sprintf("https://github.com/%s.git", repo)
}

func runGitClone(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	submodules, _ := cmd.Flags().GetBool("submodules")
	trustLocal, _ := cmd.Flags().GetBool("trust-local")
	config, _ := cmd.Flags().GetStringToString("config")

	remote := expandRepository(args[0])

	local := ""
	if len(args) == 2 {
		local = args[1]
	} else {
		local = git.ExtractRepoName(remote)
	}

	if _, err := os.Stat(local); err == nil {
		if !force {
			return fmt.Errorf("destination %s already exists (use --force to replace it)", local)
		}

		if err := os.RemoveAll(local); err != nil {
			return fmt.Errorf("failed to remove %s: %w", local, err)
		}
	}

	client := newGitClient(cmd, "")

	if _, err := client.Clone(cmd.Context(), remote, local, git.CloneOptions{
		InitSubmodules:       submodules,
		TrustLocalSubmodules: trustLocal,
		ConfigOpts:           config,
	}); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("Cloned %s into %s", remote, local)))

	return nil
}
