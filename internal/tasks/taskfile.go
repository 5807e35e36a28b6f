// Package tasks loads a project's Taskfile and runs its named task
// pipelines: external commands, nested tasks and builtin release steps.
package tasks

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Command is an argv. In YAML it is either a list or a single string split
// on whitespace, honoring quotes.
type Command []string

// UnmarshalYAML accepts a scalar or a sequence.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		argv, err := SplitCommand(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}

		*c = argv

		return nil
	case yaml.SequenceNode:
		var argv []string
		if err := node.Decode(&argv); err != nil {
			return err
		}

		*c = argv

		return nil
	}

	return fmt.Errorf("line %d: run must be a string or a list", node.Line)
}

// MarshalYAML writes simple commands back as a single string.
func (c Command) MarshalYAML() (any, error) {
	for _, arg := range c {
		if arg == "" || strings.ContainsAny(arg, " \t\"'\\") {
			return []string(c), nil
		}
	}

	return strings.Join(c, " "), nil
}

func (c Command) String() string {
	return strings.Join(c, " ")
}

// SplitCommand splits s into arguments. Single and double quotes group,
// and a backslash escapes the next character outside single quotes.
func SplitCommand(s string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t' || r == '\n':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote in %q", quote, s)
	}

	if escaped {
		return nil, fmt.Errorf("trailing backslash in %q", s)
	}

	if inArg {
		args = append(args, cur.String())
	}

	return args, nil
}

// Step is one entry of a task. Exactly one of Run, Task or Builtin is set.
type Step struct {
	Name    string            `yaml:"name,omitempty"`
	Run     Command           `yaml:"run,omitempty"`
	Task    string            `yaml:"task,omitempty"`
	Builtin string            `yaml:"builtin,omitempty"`
	Gate    bool              `yaml:"gate,omitempty"`
	Dir     string            `yaml:"dir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`
}

// Label names the step for logs and run records.
func (s Step) Label() string {
	switch {
	case s.Name != "":
		return s.Name
	case len(s.Run) > 0:
		return s.Run.String()
	case s.Task != "":
		return "task " + s.Task
	case s.Builtin != "":
		return s.Builtin
	}

	return "(empty)"
}

func (s Step) kinds() int {
	n := 0

	if len(s.Run) > 0 {
		n++
	}

	if s.Task != "" {
		n++
	}

	if s.Builtin != "" {
		n++
	}

	return n
}

// Task is a named, ordered list of steps.
type Task struct {
	Description string `yaml:"description,omitempty"`
	Steps       []Step `yaml:"steps"`
}

// Taskfile maps task names to tasks.
type Taskfile struct {
	Tasks map[string]*Task `yaml:"tasks"`
}

// ErrTaskNotFound is returned for an unknown task name.
var ErrTaskNotFound = errors.New("task not found")

// Load reads a Taskfile from path.
func Load(path string) (*Taskfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taskfile: %w", err)
	}

	tf, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return tf, nil
}

// LoadOrDefault loads path, or returns DefaultTaskfile when it does not
// exist. The bool reports whether the file was found.
func LoadOrDefault(path string) (*Taskfile, bool, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultTaskfile(), false, nil
	}

	tf, err := Load(path)

	return tf, err == nil, err
}

// Parse decodes Taskfile YAML.
func Parse(data []byte) (*Taskfile, error) {
	var tf Taskfile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse taskfile: %w", err)
	}

	if tf.Tasks == nil {
		tf.Tasks = map[string]*Task{}
	}

	return &tf, nil
}

// Save writes the Taskfile atomically.
func (tf *Taskfile) Save(path string) error {
	data, err := yaml.Marshal(tf)
	if err != nil {
		return fmt.Errorf("failed to encode taskfile: %w", err)
	}

	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write taskfile: %w", err)
	}

	return nil
}

// Get returns the named task.
func (tf *Taskfile) Get(name string) (*Task, error) {
	t, ok := tf.Tasks[name]
	if !ok || t == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}

	return t, nil
}

// Names returns the task names in order.
func (tf *Taskfile) Names() []string {
	names := make([]string, 0, len(tf.Tasks))
	for name := range tf.Tasks {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// DefaultTaskfile is the packaging pipeline used when a project has no
// Taskfile: lock, test, build, and a deploy that releases and bumps.
func DefaultTaskfile() *Taskfile {
	return &Taskfile{Tasks: map[string]*Task{
		"lock": {
			Description: "Resolve and lock dependencies",
			Steps:       []Step{{Run: Command{"uv", "lock"}}},
		},
		"test": {
			Description: "Run the test suite",
			Steps:       []Step{{Run: Command{"uv", "run", "pytest"}}},
		},
		"build": {
			Description: "Build the distribution artifacts",
			Steps:       []Step{{Run: Command{"uv", "build"}}},
		},
		"bump": {
			Description: "Increment the project version",
			Steps:       []Step{{Builtin: BuiltinReleaseBump}},
		},
		"deploy": {
			Description: "Check eligibility, test, build, publish and bump",
			Steps: []Step{
				{Builtin: BuiltinReleaseCheck, Gate: true},
				{Task: "test"},
				{Task: "build"},
				{Builtin: BuiltinReleasePublish},
				{Task: "bump"},
			},
		},
	}}
}
