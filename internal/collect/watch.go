package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/inovacc/datapull/internal/frame"
)

// DefaultDebounce is the quiet period before a change triggers collection.
const DefaultDebounce = 500 * time.Millisecond

// WatchOptions configures Watch.
type WatchOptions struct {
	CollectOptions

	// Debounce is the quiet period after the last relevant event.
	Debounce time.Duration

	// OnCollect receives the result of every collection. A returned error
	// stops the watch.
	OnCollect func(*frame.Frame, error) error
}

// Watch collects once, then again whenever a matching input changes, until
// ctx is cancelled. It returns nil on cancellation.
func (c *Collector) Watch(ctx context.Context, opts WatchOptions) error {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(c.InputDir); err != nil {
		return fmt.Errorf("watch %s: %w", c.InputDir, err)
	}

	c.logger.Info("watching for changes", slog.String("dir", c.InputDir), slog.String("glob", c.Glob))

	if err := c.collectAndReport(ctx, opts.CollectOptions, opts.OnCollect); err != nil {
		return err
	}

	// Collections triggered by an event always rebuild: a removed or
	// renamed input leaves every remaining mtime unchanged.
	triggered := opts.CollectOptions
	triggered.Force = true

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if !c.relevant(event) {
				continue
			}

			c.logger.Debug("input changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			timer.Reset(debounce)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			c.logger.Warn("watcher error", slog.String("error", werr.Error()))

		case <-timer.C:
			if err := c.collectAndReport(ctx, triggered, opts.OnCollect); err != nil {
				return err
			}
		}
	}
}

func (c *Collector) collectAndReport(ctx context.Context, opts CollectOptions, report func(*frame.Frame, error) error) error {
	f, err := c.Collect(ctx, opts)
	if errors.Is(err, context.Canceled) {
		return nil
	}

	if report != nil {
		return report(f, err)
	}

	if err != nil {
		c.logger.Error("collection failed", slog.String("error", err.Error()))
	}

	return nil
}

func (c *Collector) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
		return false
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, "~$") {
		return false
	}

	if abs, _ := filepath.Abs(event.Name); abs == c.OutputFile {
		return false
	}

	ok, _ := filepath.Match(c.Glob, name)

	return ok
}
