package cache

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/renameio/v2"
	"github.com/inovacc/datapull/internal/frame"
)

// CSVCacher stores frames as CSV with a header row.
type CSVCacher struct {
	Hooks
}

func (c *CSVCacher) Suffix() string {
	return ".csv"
}

func (c *CSVCacher) ReadCache(cacheFile string) (*frame.Frame, error) {
	file, err := os.Open(cacheFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrCacheMissing, cacheFile)
		}

		return nil, fmt.Errorf("open cache %s: %w", cacheFile, err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return frame.New(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache header %s: %w", cacheFile, err)
	}

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", cacheFile, err)
	}

	return frame.New(header, records), nil
}

func (c *CSVCacher) WriteCache(cacheFile string, f *frame.Frame) (*frame.Frame, error) {
	f = c.PreProcess(f)

	pendingFile, err := renameio.NewPendingFile(cacheFile)
	if err != nil {
		return nil, fmt.Errorf("create pending cache file: %w", err)
	}
	defer func() { _ = pendingFile.Cleanup() }()

	w := csv.NewWriter(pendingFile)
	if err := w.Write(f.Columns); err != nil {
		return nil, fmt.Errorf("write cache header: %w", err)
	}

	if err := w.WriteAll(f.Rows); err != nil {
		return nil, fmt.Errorf("write cache rows: %w", err)
	}

	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return nil, fmt.Errorf("atomically replace cache file: %w", err)
	}

	return f, nil
}
