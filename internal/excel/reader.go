package excel

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/inovacc/datapull/internal/cache"
	"github.com/inovacc/datapull/internal/frame"
)

// Extension is the workbook file extension.
const Extension = ".xlsx"

// DefaultCacheDir is the cache directory name used when none is given.
const DefaultCacheDir = ".cache"

// CachedReader reads workbooks below RootDir and keeps a cached copy of
// every frame it returns in CacheDir.
type CachedReader struct {
	RootDir  string
	CacheDir string
	Logger   *slog.Logger
}

// ReaderOptions configures NewCachedReader.
type ReaderOptions struct {
	Logger *slog.Logger
}

// ReadOptions configures one ReadExcel call. The zero value reads the first
// sheet through the default cacher with the CheckCache strategy.
type ReadOptions struct {
	Sheet SheetSelector

	// CacheSuffix is inserted between the file name and the cacher suffix,
	// so several views of one workbook can be cached side by side.
	CacheSuffix string

	Cacher cache.Cacher

	// RootRelOffset is a sub directory of RootDir holding the workbook.
	RootRelOffset string

	Strategy cache.Strategy
}

// NewCachedReader validates rootDir and prepares the hidden cache
// directory. An empty rootDir means the working directory; a relative
// cacheDir is resolved against rootDir.
func NewCachedReader(rootDir, cacheDir string, opts ReaderOptions) (*CachedReader, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if rootDir == "" {
		rootDir = "."
	}

	info, err := os.Stat(rootDir)
	if err != nil {
		return nil, fmt.Errorf("root directory: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("root directory %s is not a directory", rootDir)
	}

	if cacheDir == "" {
		cacheDir = DefaultCacheDir
	}

	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(rootDir, cacheDir)
	}

	hidden, err := ensureHiddenDir(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("cache directory: %w", err)
	}

	logger.Debug("cache directory ready", slog.String("path", hidden))

	return &CachedReader{
		RootDir:  rootDir,
		CacheDir: hidden,
		Logger:   logger,
	}, nil
}

// ensureHiddenDir returns the hidden variant of dir, renaming or creating it
// as needed.
func ensureHiddenDir(dir string) (string, error) {
	target := hiddenName(dir)

	if _, err := os.Stat(target); err != nil {
		if !os.IsNotExist(err) {
			return "", err
		}

		if target != dir {
			if _, err := os.Stat(dir); err == nil {
				if err := os.Rename(dir, target); err != nil {
					return "", fmt.Errorf("hide %s: %w", dir, err)
				}
			}
		}

		if err := os.MkdirAll(target, 0o755); err != nil {
			return "", err
		}
	}

	if err := setHidden(target); err != nil {
		return "", err
	}

	return target, nil
}

func hiddenName(path string) string {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return path
	}

	return filepath.Join(filepath.Dir(path), "."+base)
}

// CacheFile returns <CacheDir>/<fileName><userSuffix><cacherSuffix>.
func (r *CachedReader) CacheFile(fileName, cacherSuffix, userSuffix string) string {
	return filepath.Join(r.CacheDir, fileName+userSuffix+cacherSuffix)
}

// InputFile resolves a workbook name to a path. Names without the .xlsx
// extension get it appended; absolute paths are used as given.
func (r *CachedReader) InputFile(fileName, rootRelOffset string) string {
	if !strings.EqualFold(filepath.Ext(fileName), Extension) {
		fileName += Extension
	}

	if filepath.IsAbs(fileName) {
		return fileName
	}

	return filepath.Join(r.RootDir, rootRelOffset, fileName)
}

// cacheStem names the cache entry for a workbook. Workbooks below RootDir
// are keyed by their flattened relative path; anything else by base name
// and a hash of its directory.
func (r *CachedReader) cacheStem(inputFile string, sel SheetSelector) string {
	stem := strings.TrimSuffix(filepath.Base(inputFile), filepath.Ext(inputFile))

	root, rootErr := filepath.Abs(r.RootDir)
	abs, absErr := filepath.Abs(inputFile)

	rel, relErr := filepath.Rel(root, abs)
	switch {
	case rootErr != nil || absErr != nil || relErr != nil:
	case rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)):
		sum := sha256.Sum256([]byte(filepath.Dir(abs)))
		stem += "@" + hex.EncodeToString(sum[:])[:12]
	default:
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
		stem = strings.ReplaceAll(filepath.ToSlash(rel), "/", "__")
	}

	if key := sel.Key(); key != "" {
		stem += "[" + key + "]"
	}

	return stem
}

// ReadExcel returns the selected sheets of a workbook, going through the
// cache according to opts.Strategy. The caller owns the returned frame.
func (r *CachedReader) ReadExcel(fileName string, opts ReadOptions) (*frame.Frame, error) {
	cacher := opts.Cacher
	if cacher == nil {
		cacher = cache.Default()
	}

	inputFile := r.InputFile(fileName, opts.RootRelOffset)
	cacheFile := r.CacheFile(r.cacheStem(inputFile, opts.Sheet), cacher.Suffix(), opts.CacheSuffix)

	r.Logger.Debug("reading workbook",
		slog.String("input", inputFile),
		slog.String("cache", cacheFile),
		slog.String("strategy", opts.Strategy.String()),
	)

	f, err := opts.Strategy.Apply(inputFile, cacheFile, cacher, func() (*frame.Frame, error) {
		return ReadFrame(inputFile, opts.Sheet)
	})
	if err != nil {
		return nil, err
	}

	return f.Copy(), nil
}

// EmptyCacheDirectory removes every entry in the cache directory.
func (r *CachedReader) EmptyCacheDirectory() error {
	entries, err := os.ReadDir(r.CacheDir)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(r.CacheDir, e.Name())); err != nil {
			return err
		}
	}

	r.Logger.Info("cache emptied", slog.String("path", r.CacheDir), slog.Int("entries", len(entries)))

	return nil
}
