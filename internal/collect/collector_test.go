package collect

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inovacc/datapull/internal/cache"
	"github.com/inovacc/datapull/internal/excel"
	"github.com/inovacc/datapull/internal/frame"
	"github.com/inovacc/datapull/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func writeInput(t *testing.T, dir, name string, f *frame.Frame) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, excel.WriteFile(path, "", f))

	return path
}

func newCollector(t *testing.T, dir string) *Collector {
	t.Helper()

	c, err := NewCollector(dir, "combined", Options{
		Cacher: &cache.CSVCacher{},
		Logger: logging.Discard(),
	})
	require.NoError(t, err)

	return c
}

func TestNewCollector_OutputName(t *testing.T) {
	dir := t.TempDir()

	c := newCollector(t, dir)
	assert.Equal(t, filepath.Join(dir, "combined.xlsx"), c.OutputFile)
	assert.Equal(t, DefaultGlob, c.Glob)

	c2, err := NewCollector(dir, "report.xlsx", Options{Logger: logging.Discard()})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "report.xlsx"), c2.OutputFile)

	_, err = NewCollector(dir, "", Options{})
	assert.Error(t, err)

	_, err = NewCollector(dir, "out", Options{Glob: "[", Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestCollector_Inputs_ExcludesOutputAndLockFiles(t *testing.T) {
	dir := t.TempDir()
	c := newCollector(t, dir)

	f := frame.New([]string{"a"}, [][]string{{"1"}})
	writeInput(t, dir, "b.xlsx", f)
	writeInput(t, dir, "a.xlsx", f)
	writeInput(t, dir, "combined.xlsx", f)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$a.xlsx"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	inputs, err := c.Inputs()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.xlsx"), filepath.Join(dir, "b.xlsx")}, inputs)
}

func TestCollector_Collect(t *testing.T) {
	dir := t.TempDir()
	c := newCollector(t, dir)

	writeInput(t, dir, "north.xlsx", frame.New([]string{"region", "sales"}, [][]string{{"north", "10"}}))
	writeInput(t, dir, "south.xlsx", frame.New([]string{"region", "sales", "note"}, [][]string{{"south", "7", "nan"}}))

	got, err := c.Collect(context.Background(), CollectOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"region", "sales", "note"}, got.Columns)
	assert.Equal(t, [][]string{{"north", "10", ""}, {"south", "7", ""}}, got.Rows)
	assert.FileExists(t, c.OutputFile)

	again, err := c.ShouldCollect()
	require.NoError(t, err)
	assert.False(t, again)
}

func TestCollector_ShouldCollect(t *testing.T) {
	dir := t.TempDir()
	c := newCollector(t, dir)

	in := writeInput(t, dir, "a.xlsx", frame.New([]string{"a"}, [][]string{{"1"}}))

	ok, err := c.ShouldCollect()
	require.NoError(t, err)
	assert.True(t, ok, "missing output")

	writeInput(t, dir, "combined.xlsx", frame.New([]string{"a"}, nil))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(in, past, past))

	ok, err = c.ShouldCollect()
	require.NoError(t, err)
	assert.False(t, ok, "output newer than inputs")

	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(in, future, future))

	ok, err = c.ShouldCollect()
	require.NoError(t, err)
	assert.True(t, ok, "input newer than output")
}

func TestCollector_Collect_InputSetChanges(t *testing.T) {
	dir := t.TempDir()
	c := newCollector(t, dir)

	writeInput(t, dir, "a.xlsx", frame.New([]string{"v"}, [][]string{{"1"}}))
	b := writeInput(t, dir, "b.xlsx", frame.New([]string{"v"}, [][]string{{"2"}}))

	got, err := c.Collect(context.Background(), CollectOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}, {"2"}}, got.Rows)

	require.NoError(t, os.Remove(b))

	got, err = c.Collect(context.Background(), CollectOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}}, got.Rows, "removed input must drop its rows")

	// An input older than the output still changes the set.
	old := writeInput(t, dir, "c.xlsx", frame.New([]string{"v"}, [][]string{{"3"}}))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	ok, err := c.ShouldCollect()
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = c.Collect(context.Background(), CollectOptions{})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1"}, {"3"}}, got.Rows)
}

func TestCollector_Collect_NoInputs(t *testing.T) {
	c := newCollector(t, t.TempDir())

	_, err := c.Collect(context.Background(), CollectOptions{})
	assert.Error(t, err)
}

func TestCollector_Collect_Cancelled(t *testing.T) {
	dir := t.TempDir()
	c := newCollector(t, dir)
	writeInput(t, dir, "a.xlsx", frame.New([]string{"a"}, [][]string{{"1"}}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Collect(ctx, CollectOptions{Force: true})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCollector_Watch(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	dir := t.TempDir()
	c := newCollector(t, dir)
	writeInput(t, dir, "a.xlsx", frame.New([]string{"v"}, [][]string{{"1"}}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	results := make(chan *frame.Frame, 4)
	done := make(chan error, 1)

	go func() {
		done <- c.Watch(ctx, WatchOptions{
			Debounce: 50 * time.Millisecond,
			OnCollect: func(f *frame.Frame, err error) error {
				if err != nil {
					return err
				}
				results <- f
				return nil
			},
		})
	}()

	select {
	case f := <-results:
		assert.Equal(t, 1, f.Len())
	case <-time.After(5 * time.Second):
		t.Fatal("initial collection did not happen")
	}

	writeInput(t, dir, "b.xlsx", frame.New([]string{"v"}, [][]string{{"2"}}))

	select {
	case f := <-results:
		assert.Equal(t, 2, f.Len())
	case <-time.After(5 * time.Second):
		t.Fatal("change did not trigger collection")
	}

	require.NoError(t, os.Remove(filepath.Join(dir, "b.xlsx")))

	deadline := time.After(5 * time.Second)

	for removed := false; !removed; {
		select {
		case f := <-results:
			removed = f.Len() == 1
		case <-deadline:
			t.Fatal("removal did not trigger collection")
		}
	}

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
