// Package executil is the process-spawn boundary of the discovery engine.
// Every external tool invocation (ping, arping, arp, route inspection) goes
// through the Runner interface so probing logic can be tested against fakes
// instead of real subprocesses.
package executil

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"time"
)

// ErrToolNotFound is returned when the requested command is not present in
// PATH. Callers treat it as "try the next alternative", never a hard failure.
var ErrToolNotFound = errors.New("tool not found in PATH")

// Result holds the captured outcome of a finished command.
type Result struct {
	Stdout string
	// ExitOK is true when the command exited with status zero.
	ExitOK bool
}

// Runner executes an external command with a wall-clock budget and captured
// stdout.
type Runner interface {
	Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error)
}

// Local runs commands on the local host.
type Local struct{}

// Run executes name with args, killing the process once timeout elapses.
// A nonzero exit status is not an error: the result carries ExitOK=false and
// whatever stdout was produced. A missing binary maps to ErrToolNotFound and
// an exceeded budget to context.DeadlineExceeded.
func (Local) Run(ctx context.Context, timeout time.Duration, name string, args ...string) (Result, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = io.Discard

	err := cmd.Run()
	switch {
	case err == nil:
		return Result{Stdout: stdout.String(), ExitOK: true}, nil
	case errors.Is(err, exec.ErrNotFound):
		return Result{}, ErrToolNotFound
	case cctx.Err() != nil:
		return Result{Stdout: stdout.String()}, context.DeadlineExceeded
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{Stdout: stdout.String()}, nil
		}
		return Result{}, err
	}
}
