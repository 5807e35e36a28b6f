// Package security scans release artifacts for committed secrets before
// they are published.
package security

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zricethezav/gitleaks/v8/detect"
	"github.com/zricethezav/gitleaks/v8/report"
	"github.com/zricethezav/gitleaks/v8/sources"
)

// DefaultRedact is the share of each secret hidden in findings.
const DefaultRedact uint = 80

// IgnoreFile is the gitleaks ignore list looked up in the project root.
const IgnoreFile = ".gitleaksignore"

// Options configures NewLeakScanner.
type Options struct {
	// Redact is the percentage of each secret to mask. Zero means DefaultRedact.
	Redact uint

	// IgnoreDir holds a .gitleaksignore to load, when present.
	IgnoreDir string

	Logger *slog.Logger
}

// LeakScanner detects secrets with the default gitleaks rules.
type LeakScanner struct {
	detector *detect.Detector
	logger   *slog.Logger
}

// ScanResult contains the results of a leak scan
type ScanResult struct {
	ScannedPaths []string
	Findings     []Finding
}

// HasLeaks reports whether anything was found.
func (r *ScanResult) HasLeaks() bool {
	return len(r.Findings) > 0
}

// Finding represents a detected secret
type Finding struct {
	RuleID      string
	Description string
	File        string
	Line        int
	Secret      string // Redacted
}

// NewLeakScanner creates a scanner with the default gitleaks rules.
func NewLeakScanner(opts Options) (*LeakScanner, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load gitleaks config: %w", err)
	}

	detector.Redact = opts.Redact
	if detector.Redact == 0 {
		detector.Redact = DefaultRedact
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &LeakScanner{detector: detector, logger: logger}

	if opts.IgnoreDir != "" {
		if err := s.LoadGitleaksIgnore(opts.IgnoreDir); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// LoadGitleaksIgnore loads fingerprints from dir/.gitleaksignore if it exists.
func (s *LeakScanner) LoadGitleaksIgnore(dir string) error {
	ignorePath := filepath.Join(dir, IgnoreFile)
	if _, err := os.Stat(ignorePath); err != nil {
		return nil
	}

	if err := s.detector.AddGitleaksIgnore(ignorePath); err != nil {
		return fmt.Errorf("failed to load %s: %w", ignorePath, err)
	}

	s.logger.Debug("loaded gitleaks ignore list", slog.String("path", ignorePath))

	return nil
}

// ScanDirectory scans every file under path (or the single file at path).
func (s *LeakScanner) ScanDirectory(ctx context.Context, path string) (*ScanResult, error) {
	return s.ScanPaths(ctx, path)
}

// ScanPaths scans each path in turn and merges the findings.
func (s *LeakScanner) ScanPaths(ctx context.Context, paths ...string) (*ScanResult, error) {
	result := &ScanResult{}

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve path: %w", err)
		}

		source := &sources.Files{
			Path:   absPath,
			Config: &s.detector.Config,
			Sema:   s.detector.Sema,
		}

		findings, err := s.detector.DetectSource(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("scan of %s failed: %w", absPath, err)
		}

		result.ScannedPaths = append(result.ScannedPaths, absPath)
		result.Findings = append(result.Findings, convert(findings)...)
	}

	sort.Slice(result.Findings, func(i, j int) bool {
		a, b := result.Findings[i], result.Findings[j]
		if a.File != b.File {
			return a.File < b.File
		}

		return a.Line < b.Line
	})

	s.logger.Info("secret scan finished",
		slog.Int("paths", len(result.ScannedPaths)),
		slog.Int("findings", len(result.Findings)),
	)

	return result, nil
}

func convert(findings []report.Finding) []Finding {
	out := make([]Finding, 0, len(findings))

	for _, f := range findings {
		out = append(out, Finding{
			RuleID:      f.RuleID,
			Description: f.Description,
			File:        f.File,
			Line:        f.StartLine,
			Secret:      f.Secret,
		})
	}

	return out
}

// LeaksFoundError aborts a publish when a scan has findings.
type LeaksFoundError struct {
	Result *ScanResult
}

func (e *LeaksFoundError) Error() string {
	return fmt.Sprintf("found %d potential secret(s) in release artifacts", len(e.Result.Findings))
}

// FormatFindings formats findings for display
func FormatFindings(findings []Finding) string {
	if len(findings) == 0 {
		return ""
	}

	var sb strings.Builder

	_, _ = fmt.Fprintf(&sb, "Found %d potential secret(s):\n\n", len(findings))

	for i, f := range findings {
		_, _ = fmt.Fprintf(&sb, "  %d. %s\n", i+1, f.Description)
		_, _ = fmt.Fprintf(&sb, "     Rule: %s\n", f.RuleID)
		_, _ = fmt.Fprintf(&sb, "     File: %s:%d\n", f.File, f.Line)
		_, _ = fmt.Fprintf(&sb, "     Secret: %s\n\n", f.Secret)
	}

	return sb.String()
}
