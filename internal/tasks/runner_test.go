package tasks

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/inovacc/datapull/internal/database"
	"github.com/inovacc/datapull/internal/logging"
	"github.com/inovacc/datapull/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func requireUnixTools(t *testing.T) {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX true/false/sh")
	}

	for _, tool := range []string{"true", "false", "sh"} {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s not available", tool)
		}
	}
}

type recorder struct {
	calls []string
}

func (r *recorder) builtin(name string, open bool, err error) Builtin {
	return Builtin{Name: name, Run: func(context.Context, *Env) (bool, error) {
		r.calls = append(r.calls, name)
		return open, err
	}}
}

func newTestRunner(t *testing.T, tf *Taskfile, reg *Registry, store database.Store) (*Runner, *bytes.Buffer) {
	t.Helper()

	var out bytes.Buffer

	env := &Env{ProjectDir: t.TempDir(), Stdout: &out, Logger: logging.Discard()}

	r, err := NewRunner(tf, reg, env, store)
	require.NoError(t, err)

	return r, &out
}

func statuses(run *model.TaskRun) []model.RunStatus {
	out := make([]model.RunStatus, 0, len(run.Steps))
	for _, s := range run.Steps {
		out = append(out, s.Status)
	}

	return out
}

func TestRunner_Sequence(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	requireUnixTools(t)

	rec := &recorder{}
	reg := NewRegistry()
	reg.Register(rec.builtin("fake.publish", true, nil))

	tf := &Taskfile{Tasks: map[string]*Task{
		"build": {Steps: []Step{{Run: Command{"sh", "-c", "echo built > artifact.txt"}}}},
		"deploy": {Steps: []Step{
			{Task: "build"},
			{Builtin: "fake.publish"},
		}},
	}}

	r, _ := newTestRunner(t, tf, reg, nil)

	run, err := r.Run(context.Background(), "deploy")
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusSucceeded, run.Status)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, []string{"fake.publish"}, rec.calls)
	assert.Equal(t, "build: sh -c echo built > artifact.txt", run.Steps[0].Name)
	assert.FileExists(t, filepath.Join(r.Env.ProjectDir, "artifact.txt"))
}

func TestRunner_GateClosed(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	reg.Register(rec.builtin("fake.check", false, nil))
	reg.Register(rec.builtin("fake.publish", true, nil))

	tf := &Taskfile{Tasks: map[string]*Task{
		"deploy": {Steps: []Step{
			{Builtin: "fake.check", Gate: true},
			{Builtin: "fake.publish"},
		}},
	}}

	r, _ := newTestRunner(t, tf, reg, nil)

	run, err := r.Run(context.Background(), "deploy")
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusGated, run.Status)
	assert.Equal(t, []string{"fake.check"}, rec.calls)
	assert.Equal(t, []model.RunStatus{model.RunStatusGated, model.RunStatusSkipped}, statuses(run))
}

func TestRunner_NonGateFalseIsIgnored(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	reg.Register(rec.builtin("fake.lint", false, nil))
	reg.Register(rec.builtin("fake.publish", true, nil))

	tf := &Taskfile{Tasks: map[string]*Task{
		"deploy": {Steps: []Step{{Builtin: "fake.lint"}, {Builtin: "fake.publish"}}},
	}}

	r, _ := newTestRunner(t, tf, reg, nil)

	run, err := r.Run(context.Background(), "deploy")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSucceeded, run.Status)
	assert.Equal(t, []string{"fake.lint", "fake.publish"}, rec.calls)
}

func TestRunner_GateBuiltinWithoutGateFlag(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()

	check := rec.builtin("fake.check", false, nil)
	check.Gate = true
	reg.Register(check)
	reg.Register(rec.builtin("fake.publish", true, nil))

	tf := &Taskfile{Tasks: map[string]*Task{
		"deploy": {Steps: []Step{{Builtin: "fake.check"}, {Builtin: "fake.publish"}}},
	}}

	r, _ := newTestRunner(t, tf, reg, nil)

	run, err := r.Run(context.Background(), "deploy")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusGated, run.Status)
	assert.Equal(t, []string{"fake.check"}, rec.calls)
	assert.Equal(t, []model.RunStatus{model.RunStatusGated, model.RunStatusSkipped}, statuses(run))
}

func TestDefaultRegistry_Gates(t *testing.T) {
	reg := DefaultRegistry()

	for name, gate := range map[string]bool{
		BuiltinReleaseCheck:   true,
		BuiltinGitClean:       true,
		BuiltinReleasePublish: false,
		BuiltinReleaseBump:    false,
	} {
		b, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, gate, b.Gate, name)
	}
}

func TestRunner_CommandGate(t *testing.T) {
	requireUnixTools(t)

	tf := &Taskfile{Tasks: map[string]*Task{
		"maybe": {Steps: []Step{
			{Run: Command{"false"}, Gate: true},
			{Run: Command{"sh", "-c", "exit 3"}},
		}},
	}}

	r, _ := newTestRunner(t, tf, NewRegistry(), nil)

	run, err := r.Run(context.Background(), "maybe")
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusGated, run.Status)
}

func TestRunner_FailureStops(t *testing.T) {
	requireUnixTools(t)

	rec := &recorder{}
	reg := NewRegistry()
	reg.Register(rec.builtin("fake.publish", true, nil))

	tf := &Taskfile{Tasks: map[string]*Task{
		"test": {Steps: []Step{{Run: Command{"sh", "-c", "echo failing; exit 3"}}}},
		"deploy": {Steps: []Step{
			{Task: "test"},
			{Builtin: "fake.publish"},
		}},
	}}

	r, out := newTestRunner(t, tf, reg, nil)

	run, err := r.Run(context.Background(), "deploy")
	require.Error(t, err)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, "test", stepErr.Task)
	assert.Equal(t, 3, ExitCode(err))

	assert.Empty(t, rec.calls)
	assert.Equal(t, model.RunStatusFailed, run.Status)
	assert.Equal(t, []model.RunStatus{model.RunStatusFailed, model.RunStatusSkipped}, statuses(run))
	assert.Contains(t, out.String(), "failing")
}

func TestRunner_BuiltinError(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	boom := errors.New("boom")
	reg.Register(rec.builtin("fake.fail", true, boom))

	tf := &Taskfile{Tasks: map[string]*Task{"x": {Steps: []Step{{Builtin: "fake.fail"}}}}}
	r, _ := newTestRunner(t, tf, reg, nil)

	_, err := r.Run(context.Background(), "x")
	assert.ErrorIs(t, err, boom)
}

func TestRunner_EnvAndDir(t *testing.T) {
	requireUnixTools(t)

	tf := &Taskfile{Tasks: map[string]*Task{
		"env": {Steps: []Step{{
			Run: Command{"sh", "-c", `echo "$GREETING from $(basename "$PWD")"`},
			Dir: "sub",
			Env: map[string]string{"GREETING": "hello"},
		}}},
	}}

	r, out := newTestRunner(t, tf, NewRegistry(), nil)
	require.NoError(t, os.Mkdir(filepath.Join(r.Env.ProjectDir, "sub"), 0o755))

	_, err := r.Run(context.Background(), "env")
	require.NoError(t, err)
	assert.Equal(t, "hello from sub\n", out.String())
}

func TestRunner_UnknownTask(t *testing.T) {
	r, _ := newTestRunner(t, &Taskfile{Tasks: map[string]*Task{}}, NewRegistry(), nil)

	_, err := r.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestNewRunner_Invalid(t *testing.T) {
	tf := &Taskfile{Tasks: map[string]*Task{"x": {Steps: []Step{{Builtin: "nope"}}}}}

	_, err := NewRunner(tf, NewRegistry(), &Env{}, nil)

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestRunner_RecordsRuns(t *testing.T) {
	store, err := database.NewBolt(filepath.Join(t.TempDir(), "runs.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := &recorder{}
	reg := NewRegistry()
	reg.Register(rec.builtin("fake.ok", true, nil))

	tf := &Taskfile{Tasks: map[string]*Task{"x": {Steps: []Step{{Builtin: "fake.ok"}}}}}
	r, _ := newTestRunner(t, tf, reg, store)

	run, err := r.Run(context.Background(), "x")
	require.NoError(t, err)

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusSucceeded, got.Status)
	assert.Equal(t, "x", got.Task)
	require.Len(t, got.Steps, 1)
	assert.Equal(t, "fake.ok", got.Steps[0].Name)
}

func TestRunner_Cancelled(t *testing.T) {
	rec := &recorder{}
	reg := NewRegistry()
	reg.Register(rec.builtin("fake.ok", true, nil))

	tf := &Taskfile{Tasks: map[string]*Task{"x": {Steps: []Step{{Builtin: "fake.ok"}}}}}
	r, _ := newTestRunner(t, tf, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := r.Run(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.calls)
	assert.Equal(t, []model.RunStatus{model.RunStatusSkipped}, statuses(run))
}
