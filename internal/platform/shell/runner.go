package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// stderrTailLimit bounds how much stderr is kept on an ExitError.
const stderrTailLimit = 2048

// Command describes a single process invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// String renders the command line for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result holds the captured output of a finished command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes commands on the host.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExitError is returned when a command ran but exited non-zero,
// or could not be started at all (ExitCode -1).
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("command %q failed with exit code %d", e.Command, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCodeOf extracts the exit code carried by err, or -1.
func ExitCodeOf(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode
	}
	return -1
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	// Stream, if set, receives a live copy of stdout and stderr.
	Stream io.Writer
}

// NewExecRunner returns a runner that mirrors command output to stream.
func NewExecRunner(stream io.Writer) *ExecRunner {
	return &ExecRunner{Stream: stream}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	// #nosec G204 - commands are assembled by the platform clients, not taken from user input
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}

	var stdout, stderr bytes.Buffer
	if r.Stream != nil {
		c.Stdout = io.MultiWriter(&stdout, r.Stream)
		c.Stderr = io.MultiWriter(&stderr, r.Stream)
	} else {
		c.Stdout = &stdout
		c.Stderr = &stderr
	}

	err := c.Run()
	result := &Result{
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		ExitCode: c.ProcessState.ExitCode(),
	}
	if err == nil {
		return result, nil
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("%s: %w", cmd, ctx.Err())
	}

	code := -1
	var execExit *exec.ExitError
	if errors.As(err, &execExit) {
		code = execExit.ExitCode()
	}
	result.ExitCode = code

	return result, &ExitError{
		Command:  cmd.String(),
		ExitCode: code,
		Stderr:   tail(stderr.String(), stderrTailLimit),
		Err:      err,
	}
}

// DryRunRunner logs commands instead of executing them.
type DryRunRunner struct {
	Out io.Writer
}

// Run implements Runner.
func (r *DryRunRunner) Run(_ context.Context, cmd Command) (*Result, error) {
	out := r.Out
	if out == nil {
		out = os.Stdout
	}
	if cmd.Dir != "" {
		_, _ = fmt.Fprintf(out, "[dry-run] (cd %s) %s\n", cmd.Dir, cmd)
	} else {
		_, _ = fmt.Fprintf(out, "[dry-run] %s\n", cmd)
	}
	return &Result{}, nil
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return "..." + s[len(s)-limit:]
}
