package git

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Common error messages from git
const (
	errMsgNotRepository    = "not a git repository"
	errMsgNoUpstream       = "no upstream branch"
	errMsgAuthFailed       = "Authentication failed"
	errMsgPermissionDenied = "Permission denied"
	errMsgAlreadyExists    = "already exists"
	errMsgNothingToCommit  = "nothing to commit"
)

// GitError represents a failed git command
type GitError struct {
	ExitCode int
	Stderr   string
	Args     []string
	err      error
}

// Error renders the command with credentials stripped from any URL.
func (e *GitError) Error() string {
	args := sanitizeArgs(e.Args)

	if strings.TrimSpace(e.Stderr) == "" {
		if e.err == nil {
			return fmt.Sprintf("git %s exited with status %d", args, e.ExitCode)
		}

		return fmt.Errorf("git %s failed: %w", args, e.err).Error()
	}

	return fmt.Sprintf("git %s failed: %s", args, strings.TrimSpace(e.Stderr))
}

func (e *GitError) Unwrap() error {
	return e.err
}

// NotADirectoryError is returned when a project path is not a directory.
type NotADirectoryError struct {
	Path string
}

func (e *NotADirectoryError) Error() string {
	return fmt.Sprintf("path provided is not a directory: %q", e.Path)
}

// NotAGitProjectError is returned when a directory has no .git.
type NotAGitProjectError struct {
	Path string
}

func (e *NotAGitProjectError) Error() string {
	return fmt.Sprintf("path provided is not a git project: %q", e.Path)
}

// IsNotRepository checks if the error indicates not a git repository
func IsNotRepository(err error) bool {
	var notProject *NotAGitProjectError
	if errors.As(err, &notProject) {
		return true
	}

	return containsError(err, errMsgNotRepository)
}

// IsAuthRequired checks if the error indicates authentication is required
func IsAuthRequired(err error) bool {
	return containsError(err, errMsgAuthFailed) || containsError(err, errMsgPermissionDenied)
}

// IsNoUpstream checks if the error indicates no upstream branch configured
func IsNoUpstream(err error) bool {
	return containsError(err, errMsgNoUpstream)
}

// IsAlreadyExists checks if the error indicates something already exists
func IsAlreadyExists(err error) bool {
	return containsError(err, errMsgAlreadyExists)
}

// IsNothingToCommit checks if the error indicates nothing to commit
func IsNothingToCommit(err error) bool {
	return containsError(err, errMsgNothingToCommit)
}

func containsError(err error, msg string) bool {
	if err == nil {
		return false
	}

	var gitErr *GitError
	if errors.As(err, &gitErr) {
		return strings.Contains(strings.ToLower(gitErr.Stderr), strings.ToLower(msg))
	}

	return strings.Contains(strings.ToLower(err.Error()), strings.ToLower(msg))
}

// NewGitError creates a GitError from command output and error
func NewGitError(args []string, stderr string, err error) *GitError {
	exitCode := -1

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	return &GitError{
		ExitCode: exitCode,
		Stderr:   stderr,
		Args:     args,
		err:      err,
	}
}
