package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/renameio/v2"
	"github.com/inovacc/datapull/internal/frame"
)

// JSONCacher stores frames as a {"columns": [...], "rows": [[...]]} document.
type JSONCacher struct {
	Hooks
}

func (c *JSONCacher) Suffix() string {
	return ".json"
}

func (c *JSONCacher) ReadCache(cacheFile string) (*frame.Frame, error) {
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCacheMissing, cacheFile)
		}

		return nil, fmt.Errorf("read cache %s: %w", cacheFile, err)
	}

	var f frame.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from %s: %w", cacheFile, err)
	}

	return frame.New(f.Columns, f.Rows), nil
}

func (c *JSONCacher) WriteCache(cacheFile string, f *frame.Frame) (*frame.Frame, error) {
	f = c.PreProcess(f)

	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := renameio.WriteFile(cacheFile, data, 0o644); err != nil {
		return nil, fmt.Errorf("write cache %s: %w", cacheFile, err)
	}

	return f, nil
}
