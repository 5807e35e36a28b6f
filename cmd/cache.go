package cmd

import (
	"github.com/inovacc/datapull/internal/excel"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Read workbooks through the frame cache",
	Long: `Workbooks are read once and cached in the project's hidden cache
directory. Later reads are served from the cache according to a strategy:

  check       use the cache unless the workbook is newer (default)
  fallback    read the workbook, fall back to the cache when that fails
  force       always read the workbook and refresh the cache
  skip        read the workbook without touching the cache
  from-cache  read the cache, never the workbook`,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
}

// newCachedReader opens the cached reader rooted at the project directory.
func newCachedReader(s *taskSession) (*excel.CachedReader, error) {
	return excel.NewCachedReader(s.project, s.cfg.CacheDir, excel.ReaderOptions{})
}
