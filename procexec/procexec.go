// Package procexec runs external tools to completion, capturing their output,
// and makes sure nothing they spawned outlives a cancelled or timed out call.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

var ErrNotInstalled = errors.New("executable not found")

const defaultGracePeriod = 5 * time.Second

type Cmd struct {
	Name string
	Args []string
	Dir  string
	// Timeout bounds this single invocation. Zero means only ctx bounds it.
	Timeout time.Duration
}

type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	TimedOut bool
}

func (r Result) Success() bool {
	return r.ExitCode == 0 && !r.TimedOut
}

// Runner executes a command synchronously. A command that ran and exited
// non-zero, or hit its own Timeout, is reported through Result with a nil
// error. Errors are reserved for commands that could not be started and for
// cancellation of ctx.
type Runner interface {
	Run(ctx context.Context, c Cmd) (Result, error)
}

// Available reports ErrNotInstalled if name cannot be resolved to an executable.
func Available(name string) error {
	if _, err := exec.LookPath(name); nil != err {
		return fmt.Errorf("%w: %s: %v", ErrNotInstalled, name, err)
	}

	return nil
}

type Exec struct {
	// GracePeriod is how long a signalled process group gets to exit before it
	// is killed.
	GracePeriod time.Duration
}

func NewExec() *Exec {
	return &Exec{GracePeriod: defaultGracePeriod}
}

func (e *Exec) Run(ctx context.Context, c Cmd) (Result, error) {
	path, err := exec.LookPath(c.Name)
	if nil != err {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrNotInstalled, c.Name, err) //nolint:exhaustruct
	}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	grace := e.GracePeriod
	if grace <= 0 {
		grace = defaultGracePeriod
	}

	cmd := exec.CommandContext(runCtx, path, c.Args...)
	cmd.Dir = c.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	stop := killGroupOnCancel(cmd, grace)
	defer stop()
	cmd.WaitDelay = grace + time.Second

	runErr := cmd.Run()

	res := Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		TimedOut: false,
	}
	if nil != cmd.ProcessState {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err := ctx.Err(); nil != err {
		return res, fmt.Errorf("%s was interrupted: %w", c.Name, err)
	}

	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		return res, nil
	}

	if nil != runErr {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) || errors.Is(runErr, exec.ErrWaitDelay) {
			return res, nil
		}

		return res, fmt.Errorf("failed to run %s: %w", c.Name, runErr)
	}

	return res, nil
}
