package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/inovacc/datapull/internal/security"
	"github.com/spf13/cobra"
)

var releaseScanCmd = &cobra.Command{
	Use:   "scan [path...]",
	Short: "Scan release artifacts for secrets",
	Long: `Scan the dist directory (or the given paths) with the gitleaks default
rules. Fingerprints listed in the project's .gitleaksignore are skipped.
The same scan runs before every publish.

Examples:
  datapull release scan
  datapull release scan dist/tools-1.2.0.tar.gz`,
	RunE: runReleaseScan,
}

func init() {
	releaseCmd.AddCommand(releaseScanCmd)
}

func runReleaseScan(cmd *cobra.Command, args []string) error {
	s, err := openTaskSession()
	if err != nil {
		return err
	}
	defer s.Close()

	paths := args
	if len(paths) == 0 {
		dist := s.cfg.DistDir
		if !filepath.IsAbs(dist) {
			dist = filepath.Join(s.project, dist)
		}

		paths = []string{dist}
	}

	scanner, err := security.NewLeakScanner(security.Options{IgnoreDir: s.project})
	if err != nil {
		return err
	}

	var result security.ScanResult

	for _, p := range paths {
		r, err := scanner.ScanDirectory(cmd.Context(), p)
		if err != nil {
			return err
		}

		result.ScannedPaths = append(result.ScannedPaths, r.ScannedPaths...)
		result.Findings = append(result.Findings, r.Findings...)
	}

	if result.HasLeaks() {
		return reportLeaks(cmd.ErrOrStderr(), &security.LeaksFoundError{Result: &result})
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), okStyle.Render(fmt.Sprintf("No secrets found in %d path(s)", len(result.ScannedPaths))))

	return nil
}

// reportLeaks prints the findings of a LeaksFoundError and returns err
// unchanged.
func reportLeaks(w io.Writer, err error) error {
	var leaks *security.LeaksFoundError
	if errors.As(err, &leaks) {
		_, _ = fmt.Fprint(w, warnStyle.Render(security.FormatFindings(leaks.Result.Findings)))
	}

	return err
}
