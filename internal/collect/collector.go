// Package collect merges every workbook in a directory into one output
// workbook and serves it through the cached reader.
package collect

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/inovacc/datapull/internal/cache"
	"github.com/inovacc/datapull/internal/excel"
	"github.com/google/renameio/v2"
	"github.com/inovacc/datapull/internal/frame"
	"golang.org/x/sync/errgroup"
)

// DefaultGlob matches the inputs when no pattern is given.
const DefaultGlob = "*" + excel.Extension

// Options configures NewCollector.
type Options struct {
	Sheet excel.SheetSelector
	Glob  string

	// Cacher is used for every input and for the collected output.
	Cacher cache.Cacher

	// CacheDir is passed to the cached reader, relative to the input dir.
	CacheDir string

	// Parallelism bounds concurrent workbook reads. Defaults to NumCPU.
	Parallelism int

	Logger *slog.Logger
}

// Collector merges the workbooks matching Glob in InputDir into OutputFile.
type Collector struct {
	InputDir   string
	OutputFile string
	Sheet      excel.SheetSelector
	Glob       string

	cacher      cache.Cacher
	reader      *excel.CachedReader
	parallelism int
	logger      *slog.Logger
}

// NewCollector prepares a collector. A bare output name (no directory) is
// placed inside inputDir and receives the .xlsx extension when missing.
func NewCollector(inputDir, output string, opts Options) (*Collector, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if output == "" {
		return nil, fmt.Errorf("output file is required")
	}

	inputDir, err := filepath.Abs(inputDir)
	if err != nil {
		return nil, fmt.Errorf("resolve input dir: %w", err)
	}

	if filepath.Base(output) == output {
		if !strings.EqualFold(filepath.Ext(output), excel.Extension) {
			output += excel.Extension
		}

		output = filepath.Join(inputDir, output)
	}

	output, err = filepath.Abs(output)
	if err != nil {
		return nil, fmt.Errorf("resolve output file: %w", err)
	}

	reader, err := excel.NewCachedReader(inputDir, opts.CacheDir, excel.ReaderOptions{Logger: logger})
	if err != nil {
		return nil, err
	}

	glob := opts.Glob
	if glob == "" {
		glob = DefaultGlob
	}

	if _, err := filepath.Match(glob, ""); err != nil {
		return nil, fmt.Errorf("invalid glob %q: %w", glob, err)
	}

	cacher := opts.Cacher
	if cacher == nil {
		cacher = cache.Default()
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	return &Collector{
		InputDir:    inputDir,
		OutputFile:  output,
		Sheet:       opts.Sheet,
		Glob:        glob,
		cacher:      cacher,
		reader:      reader,
		parallelism: parallelism,
		logger:      logger,
	}, nil
}

// Inputs lists the regular files matching Glob, excluding the output and
// Office lock files, in name order.
func (c *Collector) Inputs() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(c.InputDir, c.Glob))
	if err != nil {
		return nil, err
	}

	outAbs, _ := filepath.Abs(c.OutputFile)

	var inputs []string

	for _, m := range matches {
		if strings.HasPrefix(filepath.Base(m), "~$") {
			continue
		}

		if abs, _ := filepath.Abs(m); abs == outAbs {
			continue
		}

		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		inputs = append(inputs, m)
	}

	sort.Strings(inputs)

	return inputs, nil
}

// manifestFile records the input names the current output was built from.
func (c *Collector) manifestFile() string {
	stem := strings.TrimSuffix(filepath.Base(c.OutputFile), filepath.Ext(c.OutputFile))

	return filepath.Join(c.reader.CacheDir, stem+".inputs.json")
}

func (c *Collector) readManifest() ([]string, bool) {
	data, err := os.ReadFile(c.manifestFile())
	if err != nil {
		return nil, false
	}

	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, false
	}

	return names, true
}

func (c *Collector) writeManifest(inputs []string) error {
	names := make([]string, len(inputs))
	for i, in := range inputs {
		names[i] = filepath.Base(in)
	}

	data, err := json.Marshal(names)
	if err != nil {
		return err
	}

	return renameio.WriteFile(c.manifestFile(), data, 0o644)
}

func sameInputs(recorded, inputs []string) bool {
	if len(recorded) != len(inputs) {
		return false
	}

	for i, in := range inputs {
		if recorded[i] != filepath.Base(in) {
			return false
		}
	}

	return true
}

// ShouldCollect reports whether the output is missing, older than any
// input, or was built from a different set of inputs.
func (c *Collector) ShouldCollect() (bool, error) {
	outInfo, err := os.Stat(c.OutputFile)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}

		return false, err
	}

	inputs, err := c.Inputs()
	if err != nil {
		return false, err
	}

	if recorded, ok := c.readManifest(); ok && !sameInputs(recorded, inputs) {
		c.logger.Debug("input set changed", slog.Int("recorded", len(recorded)), slog.Int("current", len(inputs)))
		return true, nil
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			continue
		}

		if info.ModTime().After(outInfo.ModTime()) {
			return true, nil
		}
	}

	return false, nil
}

// CollectOptions configures one Collect call.
type CollectOptions struct {
	Strategy cache.Strategy

	// Force rebuilds the output even when it is up to date.
	Force bool
}

// Collect rebuilds the output when needed and returns it, read through the
// cached reader with opts.Strategy.
func (c *Collector) Collect(ctx context.Context, opts CollectOptions) (*frame.Frame, error) {
	c.logger.Info("collecting workbooks",
		slog.String("dir", c.InputDir),
		slog.String("glob", c.Glob),
	)

	needed := opts.Force
	if !needed {
		var err error

		needed, err = c.ShouldCollect()
		if err != nil {
			return nil, err
		}
	}

	if needed {
		if err := c.perform(ctx, opts.Strategy); err != nil {
			return nil, err
		}
	} else {
		c.logger.Info("output up to date", slog.String("output", c.OutputFile))
	}

	return c.reader.ReadExcel(c.OutputFile, excel.ReadOptions{
		Cacher:   c.cacher,
		Strategy: opts.Strategy,
	})
}

func (c *Collector) perform(ctx context.Context, strategy cache.Strategy) error {
	inputs, err := c.Inputs()
	if err != nil {
		return err
	}

	if len(inputs) == 0 {
		return fmt.Errorf("no input files match %s in %s", c.Glob, c.InputDir)
	}

	c.logger.Info("reading input files", slog.Int("files", len(inputs)), slog.Int("parallel", c.parallelism))

	start := time.Now()
	frames := make([]*frame.Frame, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallelism)

	for i, in := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			f, err := c.reader.ReadExcel(in, excel.ReadOptions{
				Sheet:    c.Sheet,
				Cacher:   c.cacher,
				Strategy: strategy,
			})
			if err != nil {
				return fmt.Errorf("read %s: %w", filepath.Base(in), err)
			}

			frames[i] = f

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	collected := frame.Normalize(frame.Concat(frames...))

	c.logger.Info("saving result",
		slog.String("output", c.OutputFile),
		slog.Int("rows", collected.Len()),
		slog.Duration("elapsed", time.Since(start)),
	)

	if err := excel.WriteFile(c.OutputFile, excel.DefaultSheet, collected); err != nil {
		return err
	}

	if err := c.writeManifest(inputs); err != nil {
		c.logger.Warn("could not record inputs", slog.String("error", err.Error()))
	}

	return nil
}
