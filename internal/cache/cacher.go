// Package cache persists frames next to their source files and decides,
// through a Strategy, when the source has to be read again.
package cache

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/inovacc/datapull/internal/frame"
)

// ErrCacheMissing is returned when a strategy needs a cache file that does
// not exist.
var ErrCacheMissing = errors.New("cache file does not exist")

// ProcessFunc transforms a frame before it is cached or after it is loaded.
type ProcessFunc func(*frame.Frame) *frame.Frame

// Cacher reads and writes cached frames in one on-disk format.
type Cacher interface {
	// Suffix is the file extension of cache files, including the dot.
	Suffix() string

	// PreProcess runs on freshly read data before it is written to the cache.
	PreProcess(f *frame.Frame) *frame.Frame

	// PostProcess runs on every frame handed back to the caller.
	PostProcess(f *frame.Frame) *frame.Frame

	// CacheHit reports whether cacheFile can stand in for inputFile.
	CacheHit(inputFile, cacheFile string) bool

	ReadCache(cacheFile string) (*frame.Frame, error)

	// WriteCache pre-processes f, persists it and returns what was persisted.
	WriteCache(cacheFile string, f *frame.Frame) (*frame.Frame, error)
}

// Hooks holds the optional user transforms and the default hit test.
// Concrete cachers embed it.
type Hooks struct {
	Pre  ProcessFunc
	Post ProcessFunc
}

func (h Hooks) PreProcess(f *frame.Frame) *frame.Frame {
	if h.Pre == nil {
		return f
	}

	return h.Pre(f)
}

func (h Hooks) PostProcess(f *frame.Frame) *frame.Frame {
	if h.Post == nil {
		return f
	}

	return h.Post(f)
}

// CacheHit is true when the cache exists and is at least as new as the
// input. A missing input with a present cache counts as a hit.
func (h Hooks) CacheHit(inputFile, cacheFile string) bool {
	cacheInfo, err := os.Stat(cacheFile)
	if err != nil {
		return false
	}

	inputInfo, err := os.Stat(inputFile)
	if err != nil {
		return true
	}

	return !inputInfo.ModTime().After(cacheInfo.ModTime())
}

// Exists reports whether a cache file is present.
func Exists(cacheFile string) bool {
	_, err := os.Stat(cacheFile)
	return err == nil
}

// Names lists the cacher names accepted by New.
func Names() []string {
	return []string{"sqlite", "csv", "json"}
}

// New returns the cacher registered under name. The empty name selects the
// default SQLite cacher.
func New(name string, hooks Hooks) (Cacher, error) {
	switch strings.ToLower(name) {
	case "", "sqlite":
		return NewSQLiteCacher(hooks), nil
	case "csv":
		return &CSVCacher{Hooks: hooks}, nil
	case "json":
		return &JSONCacher{Hooks: hooks}, nil
	default:
		return nil, fmt.Errorf("unknown cacher %q (valid: %s)", name, strings.Join(Names(), ", "))
	}
}

// Default returns the default cacher without hooks.
func Default() Cacher {
	return NewSQLiteCacher(Hooks{})
}
