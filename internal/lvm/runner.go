package lvm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// NotFoundRC is the exit code LVM tools reserve for "object not found".
// It is the only non-zero exit code that is not an error: probes map it
// to an ordinary false result.
const NotFoundRC = 5

// Runner executes an external command and reports its exit code and
// captured output.
//
// In production this is satisfied by ExecRunner. In tests it is
// satisfied by fake implementations returning canned report output.
type Runner interface {
	// Run executes name with args and returns the exit code along with
	// everything written to stdout and stderr. The returned error is
	// non-nil only when the command could not be started at all.
	Run(ctx context.Context, name string, args ...string) (rc int, stdout, stderr string, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (int, string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), stdout.String(), stderr.String(), nil
		}
		return -1, stdout.String(), stderr.String(), fmt.Errorf("failed to run %s: %w", name, err)
	}

	return 0, stdout.String(), stderr.String(), nil
}

// CommandError reports a command that ran but exited with a failure
// code other than NotFoundRC. It carries the raw stderr for diagnosis.
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
}

// Error implements the error interface.
func (e *CommandError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s",
		strings.Join(e.Args, " "), e.ExitCode, strings.TrimSpace(e.Stderr))
}

// ParseError reports malformed structured output from an LVM tool.
type ParseError struct {
	Cmd string
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed report output: %v", e.Cmd, e.Err)
}

// Unwrap supports errors.Is/As chains.
func (e *ParseError) Unwrap() error { return e.Err }

// ErrInconsistentReport indicates the volume manager returned more than
// one record for a fully qualified vg/lv lookup. By LVM construction
// this cannot happen; when it does it is an environment or programming
// bug, not a user error, and callers must abort rather than guess.
var ErrInconsistentReport = errors.New("lvm reported multiple records for a fully qualified volume")
