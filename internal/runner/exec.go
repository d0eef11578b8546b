package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Exec runs commands with os/exec. Output streams to Stdout and Stderr so the
// operator sees what the package manager is doing.
type Exec struct {
	// Stdout and Stderr can be set for testing; defaults to os.Stdout/os.Stderr.
	Stdout io.Writer
	Stderr io.Writer
	Log    *zap.Logger
}

// NewExec returns an Exec wired to the process streams.
func NewExec(log *zap.Logger) *Exec {
	if log == nil {
		log = zap.NewNop()
	}
	return &Exec{Stdout: os.Stdout, Stderr: os.Stderr, Log: log}
}

// Run executes cmd and waits for it.
func (e *Exec) Run(ctx context.Context, cmd Command) error {
	c := e.build(ctx, cmd)
	c.Stdout = e.stdout()
	c.Stderr = e.stderr()

	e.logger().Debug("running command", zap.String("cmd", cmd.String()), zap.String("dir", cmd.Dir))
	return wrap(cmd, c.Run())
}

// Output executes cmd and returns its stdout. Stderr is still forwarded.
func (e *Exec) Output(ctx context.Context, cmd Command) (string, error) {
	c := e.build(ctx, cmd)
	var buf bytes.Buffer
	c.Stdout = &buf
	c.Stderr = e.stderr()

	e.logger().Debug("probing command", zap.String("cmd", cmd.String()))
	if err := wrap(cmd, c.Run()); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// Start launches cmd and releases it. The child keeps the terminal streams
// but nobody waits for it.
func (e *Exec) Start(cmd Command) (int, error) {
	c := e.build(context.Background(), cmd)
	c.Stdout = e.stdout()
	c.Stderr = e.stderr()

	e.logger().Debug("starting detached command", zap.String("cmd", cmd.String()), zap.String("dir", cmd.Dir))
	if err := c.Start(); err != nil {
		return 0, &CommandError{Command: cmd, ExitCode: -1, Err: err}
	}
	pid := c.Process.Pid
	if err := c.Process.Release(); err != nil {
		e.logger().Warn("releasing detached process", zap.Int("pid", pid), zap.Error(err))
	}
	return pid, nil
}

func (e *Exec) build(ctx context.Context, cmd Command) *exec.Cmd {
	c := exec.CommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	return c
}

func (e *Exec) stdout() io.Writer {
	if e.Stdout == nil {
		return os.Stdout
	}
	return e.Stdout
}

func (e *Exec) stderr() io.Writer {
	if e.Stderr == nil {
		return os.Stderr
	}
	return e.Stderr
}

func (e *Exec) logger() *zap.Logger {
	if e.Log == nil {
		return zap.NewNop()
	}
	return e.Log
}

// wrap converts an os/exec error into a *CommandError.
func wrap(cmd Command, err error) error {
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CommandError{Command: cmd, ExitCode: exitErr.ExitCode(), Err: err}
	}
	return &CommandError{Command: cmd, ExitCode: -1, Err: err}
}
