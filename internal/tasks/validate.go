package tasks

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a Taskfile.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid taskfile:\n  %s", strings.Join(e.Problems, "\n  "))
}

// Validate checks that every task has steps, every step has exactly one
// action, builtins and task references resolve, and references form no
// cycle.
func (tf *Taskfile) Validate(reg *Registry) error {
	var problems []string

	for _, name := range tf.Names() {
		task := tf.Tasks[name]
		if task == nil || len(task.Steps) == 0 {
			problems = append(problems, fmt.Sprintf("task %q has no steps", name))
			continue
		}

		for i, step := range task.Steps {
			where := fmt.Sprintf("task %q step %d", name, i+1)

			switch step.kinds() {
			case 0:
				problems = append(problems, where+": needs one of run, task or builtin")
				continue
			case 1:
			default:
				problems = append(problems, where+": run, task and builtin are mutually exclusive")
				continue
			}

			if step.Builtin != "" && reg != nil {
				if _, ok := reg.Lookup(step.Builtin); !ok {
					problems = append(problems, fmt.Sprintf("%s: unknown builtin %q", where, step.Builtin))
				}
			}

			if step.Task != "" {
				if _, ok := tf.Tasks[step.Task]; !ok {
					problems = append(problems, fmt.Sprintf("%s: unknown task %q", where, step.Task))
				}

				if step.Gate {
					problems = append(problems, where+": a task reference cannot be a gate")
				}
			}
		}
	}

	if cycle := tf.findCycle(); cycle != nil {
		problems = append(problems, "task cycle: "+strings.Join(cycle, " -> "))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}

	return nil
}

func (tf *Taskfile) findCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)

	state := make(map[string]int, len(tf.Tasks))

	var path []string

	var visit func(name string) []string
	visit = func(name string) []string {
		switch state[name] {
		case visiting:
			for i, n := range path {
				if n == name {
					return append(append([]string{}, path[i:]...), name)
				}
			}
		case done:
			return nil
		}

		task, ok := tf.Tasks[name]
		if !ok || task == nil {
			return nil
		}

		state[name] = visiting
		path = append(path, name)

		for _, step := range task.Steps {
			if step.Task == "" {
				continue
			}

			if cycle := visit(step.Task); cycle != nil {
				return cycle
			}
		}

		path = path[:len(path)-1]
		state[name] = done

		return nil
	}

	for _, name := range tf.Names() {
		if cycle := visit(name); cycle != nil {
			return cycle
		}
	}

	return nil
}
