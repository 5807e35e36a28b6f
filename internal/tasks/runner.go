package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/inovacc/datapull/internal/database"
	"github.com/inovacc/datapull/internal/model"
)

// StepError reports the step that stopped a task.
type StepError struct {
	Task string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("task %s: step %q failed: %v", e.Task, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExitCode returns the exit status of a failed command step, or -1.
func ExitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}

// Runner executes tasks from a Taskfile.
type Runner struct {
	Taskfile *Taskfile
	Registry *Registry
	Env      *Env

	// Store records every run when set.
	Store database.Store
}

// NewRunner validates tf against reg and returns a runner.
func NewRunner(tf *Taskfile, reg *Registry, env *Env, store database.Store) (*Runner, error) {
	if reg == nil {
		reg = DefaultRegistry()
	}

	if err := tf.Validate(reg); err != nil {
		return nil, err
	}

	return &Runner{Taskfile: tf, Registry: reg, Env: env, Store: store}, nil
}

// Run executes the named task. Steps run in order and the first failure
// stops the task with a *StepError. A gate that closes ends the task
// successfully with the remaining steps skipped.
func (r *Runner) Run(ctx context.Context, name string) (*model.TaskRun, error) {
	logger := r.Env.logger()

	if _, err := r.Taskfile.Get(name); err != nil {
		return nil, err
	}

	run := &model.TaskRun{
		ID:         uuid.NewString(),
		Task:       name,
		ProjectDir: r.Env.ProjectDir,
		StartedAt:  time.Now().UTC(),
	}

	logger.Info("running task", slog.String("task", name), slog.String("run", run.ID))

	status, err := r.runTask(ctx, name, "", run)

	run.Status = status
	run.FinishedAt = time.Now().UTC()

	if err != nil {
		run.Error = err.Error()
	}

	logger.Info("task finished",
		slog.String("task", name),
		slog.String("status", string(run.Status)),
		slog.Duration("elapsed", run.Duration()),
	)

	if r.Store != nil {
		if serr := r.Store.SaveRun(run); serr != nil {
			logger.Warn("failed to record run", slog.String("error", serr.Error()))
		}
	}

	return run, err
}

func (r *Runner) runTask(ctx context.Context, name, prefix string, run *model.TaskRun) (model.RunStatus, error) {
	task, err := r.Taskfile.Get(name)
	if err != nil {
		return model.RunStatusFailed, err
	}

	for i, step := range task.Steps {
		label := prefix + step.Label()

		if err := ctx.Err(); err != nil {
			r.skip(run, prefix, task.Steps[i:])
			return model.RunStatusFailed, &StepError{Task: name, Step: label, Err: err}
		}

		if step.Task != "" {
			status, err := r.runTask(ctx, step.Task, prefix+step.Task+": ", run)
			if err != nil {
				r.skip(run, prefix, task.Steps[i+1:])
				return model.RunStatusFailed, err
			}

			if status == model.RunStatusGated {
				r.Env.logger().Info("nested task gated", slog.String("task", step.Task))
			}

			continue
		}

		gate := r.isGate(step)

		start := time.Now()
		open, err := r.runStep(ctx, step)

		rec := model.StepRun{Name: label, Duration: time.Since(start), Status: model.RunStatusSucceeded}

		switch {
		case err != nil:
			rec.Status = model.RunStatusFailed
			rec.Error = err.Error()
		case gate && !open:
			rec.Status = model.RunStatusGated
		}

		run.Steps = append(run.Steps, rec)

		if err != nil {
			r.skip(run, prefix, task.Steps[i+1:])
			return model.RunStatusFailed, &StepError{Task: name, Step: label, Err: err}
		}

		if rec.Status == model.RunStatusGated {
			r.Env.logger().Info("gate closed, skipping remaining steps",
				slog.String("task", name),
				slog.String("gate", label),
			)
			r.skip(run, prefix, task.Steps[i+1:])

			return model.RunStatusGated, nil
		}
	}

	return model.RunStatusSucceeded, nil
}

func (r *Runner) skip(run *model.TaskRun, prefix string, steps []Step) {
	for _, s := range steps {
		run.Steps = append(run.Steps, model.StepRun{Name: prefix + s.Label(), Status: model.RunStatusSkipped})
	}
}

// isGate reports whether a false result of step closes its task's gate.
func (r *Runner) isGate(step Step) bool {
	if step.Gate {
		return true
	}

	if step.Builtin == "" {
		return false
	}

	b, ok := r.Registry.Lookup(step.Builtin)

	return ok && b.Gate
}

// runStep runs a builtin or command step. For gates, a command's non-zero
// exit closes the gate instead of failing.
func (r *Runner) runStep(ctx context.Context, step Step) (bool, error) {
	logger := r.Env.logger()

	if step.Builtin != "" {
		b, ok := r.Registry.Lookup(step.Builtin)
		if !ok {
			return false, fmt.Errorf("unknown builtin %q", step.Builtin)
		}

		logger.Debug("running builtin", slog.String("builtin", b.Name))

		return b.Run(ctx, r.Env)
	}

	err := r.command(ctx, step).Run()
	if err == nil {
		return true, nil
	}

	if step.Gate && ExitCode(err) > 0 {
		return false, nil
	}

	return false, err
}

func (r *Runner) command(ctx context.Context, step Step) *exec.Cmd {
	cmd := exec.CommandContext(ctx, step.Run[0], step.Run[1:]...)

	cmd.Dir = r.Env.ProjectDir
	if step.Dir != "" {
		if filepath.IsAbs(step.Dir) {
			cmd.Dir = step.Dir
		} else {
			cmd.Dir = filepath.Join(r.Env.ProjectDir, step.Dir)
		}
	}

	cmd.Env = os.Environ()

	keys := make([]string, 0, len(step.Env))
	for k := range step.Env {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		cmd.Env = append(cmd.Env, k+"="+step.Env[k])
	}

	cmd.Stdout = r.Env.stdout()
	cmd.Stderr = r.Env.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = cmd.Stdout
	}

	r.Env.logger().Debug("running command",
		slog.String("cmd", step.Run.String()),
		slog.String("dir", cmd.Dir),
	)

	return cmd
}
