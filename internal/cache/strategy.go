package cache

import (
	"fmt"
	"strings"

	"github.com/inovacc/datapull/internal/frame"
)

// Reader loads fresh data, normally from the input file.
type Reader func() (*frame.Frame, error)

// StrategyFunc decides how the input, the cache and the reader interact.
type StrategyFunc func(inputFile, cacheFile string, c Cacher, read Reader) (*frame.Frame, error)

// Strategy enumerates the built-in cache strategies.
type Strategy int

const (
	CheckCache       Strategy = iota // Use a fresh cache, otherwise read and cache (default)
	FallbackToCache                  // Like CheckCache, but serve a stale cache when reading fails
	ForceCacheUpdate                 // Always read and overwrite the cache
	SkipCache                        // Read without touching the cache
	FromCache                        // Serve the cache without reading
)

// DefaultStrategy is used when none is given.
const DefaultStrategy = CheckCache

var strategyNames = map[Strategy]string{
	CheckCache:       "check",
	FallbackToCache:  "fallback",
	ForceCacheUpdate: "force",
	SkipCache:        "skip",
	FromCache:        "from-cache",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Strategy(%d)", int(s))
}

// Strategies lists the built-in strategies in declaration order.
func Strategies() []Strategy {
	return []Strategy{CheckCache, FallbackToCache, ForceCacheUpdate, SkipCache, FromCache}
}

// ParseStrategy converts a name to a Strategy. Underscores and the long
// spellings (check_cache, fallback_to_cache, force_cache_update,
// skip_cache) are accepted.
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-") {
	case "", "check", "check-cache":
		return CheckCache, nil
	case "fallback", "fallback-to-cache":
		return FallbackToCache, nil
	case "force", "force-cache-update":
		return ForceCacheUpdate, nil
	case "skip", "skip-cache":
		return SkipCache, nil
	case "from-cache", "cache-only":
		return FromCache, nil
	default:
		return CheckCache, fmt.Errorf("unknown cache strategy %q", s)
	}
}

// Func returns the implementation of s.
func (s Strategy) Func() StrategyFunc {
	switch s {
	case FallbackToCache:
		return fallbackToCache
	case ForceCacheUpdate:
		return forceCacheUpdate
	case SkipCache:
		return skipCache
	case FromCache:
		return fromCache
	default:
		return checkCache
	}
}

// Apply runs the strategy.
func (s Strategy) Apply(inputFile, cacheFile string, c Cacher, read Reader) (*frame.Frame, error) {
	return s.Func()(inputFile, cacheFile, c, read)
}

func readCache(cacheFile string, c Cacher) (*frame.Frame, error) {
	f, err := c.ReadCache(cacheFile)
	if err != nil {
		return nil, err
	}

	return c.PostProcess(f), nil
}

func refresh(cacheFile string, c Cacher, f *frame.Frame) (*frame.Frame, error) {
	written, err := c.WriteCache(cacheFile, f)
	if err != nil {
		return nil, err
	}

	return c.PostProcess(written), nil
}

func checkCache(inputFile, cacheFile string, c Cacher, read Reader) (*frame.Frame, error) {
	if c.CacheHit(inputFile, cacheFile) {
		return readCache(cacheFile, c)
	}

	f, err := read()
	if err != nil {
		return nil, err
	}

	return refresh(cacheFile, c, f)
}

// fallbackToCache returns the original read error when no cache exists.
func fallbackToCache(inputFile, cacheFile string, c Cacher, read Reader) (*frame.Frame, error) {
	if c.CacheHit(inputFile, cacheFile) {
		return readCache(cacheFile, c)
	}

	f, err := read()
	if err != nil {
		if !Exists(cacheFile) {
			return nil, err
		}

		return readCache(cacheFile, c)
	}

	return refresh(cacheFile, c, f)
}

func forceCacheUpdate(_, cacheFile string, c Cacher, read Reader) (*frame.Frame, error) {
	f, err := read()
	if err != nil {
		return nil, err
	}

	return refresh(cacheFile, c, f)
}

func skipCache(_, _ string, c Cacher, read Reader) (*frame.Frame, error) {
	f, err := read()
	if err != nil {
		return nil, err
	}

	return c.PostProcess(c.PreProcess(f)), nil
}

func fromCache(_, cacheFile string, c Cacher, _ Reader) (*frame.Frame, error) {
	return readCache(cacheFile, c)
}
