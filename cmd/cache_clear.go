package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached frame",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	s, err := openTaskSession()
	if err != nil {
		return err
	}
	defer s.Close()

	reader, err := newCachedReader(s)
	if err != nil {
		return err
	}

	if err := reader.EmptyCacheDirectory(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render("Cleared "+reader.CacheDir))

	return nil
}
