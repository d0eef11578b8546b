package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrCommandFailed is matched by every *CommandError.
var ErrCommandFailed = errors.New("external command failed")

// Command describes one external invocation.
type Command struct {
	Name string   // executable, resolved through PATH
	Args []string // passed verbatim as discrete arguments
	Dir  string   // absolute working directory; empty means the current one
	Env  []string // extra KEY=VALUE pairs layered over the process environment
}

// String renders the command for logs and error messages. The output is for
// humans only and is never handed to a shell.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Name)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Runner is the interface the scaffolder uses to reach external tools.
type Runner interface {
	// Run blocks until the command exits. A non-zero exit is reported as a
	// *CommandError.
	Run(ctx context.Context, cmd Command) error

	// Output runs the command and returns its trimmed stdout.
	Output(ctx context.Context, cmd Command) (string, error)

	// Start launches the command without waiting for it and returns its pid.
	Start(cmd Command) (int, error)
}

// CommandError reports a command that exited non-zero or could not start.
type CommandError struct {
	Command  Command
	ExitCode int // -1 when the process never ran
	Err      error
}

func (e *CommandError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("running %s: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("%s exited with status %d", e.Command, e.ExitCode)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrCommandFailed) true for any CommandError.
func (e *CommandError) Is(target error) bool { return target == ErrCommandFailed }

// ExitCode extracts the exit status carried by err. It returns 1 for errors
// that did not come from a command, and 0 for nil.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ce *CommandError
	if errors.As(err, &ce) && ce.ExitCode > 0 {
		return ce.ExitCode
	}
	return 1
}
