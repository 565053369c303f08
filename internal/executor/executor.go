// Package executor runs one external program per call under a wall-clock
// limit and a per-stream capture limit.
//
// Programs are started directly from an argument vector; no shell is ever
// involved. On unix each child leads its own process group, and the whole
// group is killed when the deadline passes, when the caller goes away, and
// after every normal exit, so no grandchild outlives the call.
//
// Hitting the capture limit does not stop the program. Capture for that
// stream stops, the result is flagged truncated, and the program runs on
// until it exits or the deadline kills it.
package executor

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/pkg/errors"
	"github.com/shirenchuang/pcli2-mcp/pkg/logger"
)

// ExitTerminated is reported as the exit code of a process the executor
// killed. Real exit codes are never negative.
const ExitTerminated = -1

// Limits bounds a single execution.
type Limits struct {
	Timeout        time.Duration
	MaxOutputBytes int64
	// WaitDelay bounds how long to wait for output pipes after the
	// process is gone (held open by stray grandchildren).
	WaitDelay time.Duration
}

// Result is what one execution produced.
type Result struct {
	ExitCode        int
	Stdout          []byte
	Stderr          []byte
	StdoutTruncated bool
	StderrTruncated bool
	TimedOut        bool
	// Canceled is set when the caller's context ended first.
	Canceled bool
	Duration time.Duration
}

// Truncated reports whether either stream lost bytes
func (r *Result) Truncated() bool {
	return r.StdoutTruncated || r.StderrTruncated
}

// Terminated reports whether the executor killed the process
func (r *Result) Terminated() bool {
	return r.ExitCode == ExitTerminated
}

// SpawnError means the program could not be started at all.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Executor runs programs under fixed limits. It holds no per-call state
// and is safe for concurrent use.
type Executor struct {
	limits Limits
}

// New creates an executor
func New(limits Limits) *Executor {
	return &Executor{limits: limits}
}

// Limits returns the configured limits
func (e *Executor) Limits() Limits {
	return e.limits
}

// Execute runs argv[0] with argv[1:] as discrete arguments. A nil error
// always comes with a Result; a *SpawnError never does.
func (e *Executor) Execute(ctx context.Context, argv []string) (*Result, error) {
	if len(argv) == 0 {
		return nil, &SpawnError{Err: errors.New("empty command")}
	}

	runCtx, cancel := context.WithTimeout(ctx, e.limits.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	setProcessGroup(cmd)
	cmd.WaitDelay = e.limits.WaitDelay

	stdout := newBoundedBuffer(e.limits.MaxOutputBytes)
	stderr := newBoundedBuffer(e.limits.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Program: argv[0], Err: err}
	}

	waitErr := cmd.Wait()

	// reap anything the child left behind in its group
	if err := killProcessGroup(cmd); err != nil {
		logger.Debugf("process group cleanup for pid %d: %v", cmd.Process.Pid, err)
	}

	result := &Result{
		Stdout:          stdout.Bytes(),
		Stderr:          stderr.Bytes(),
		StdoutTruncated: stdout.Truncated(),
		StderrTruncated: stderr.Truncated(),
		Duration:        time.Since(start),
	}

	// a clean exit that races the deadline still counts as a clean exit
	switch {
	case waitErr != nil && ctx.Err() != nil:
		result.Canceled = true
		result.ExitCode = ExitTerminated
	case waitErr != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.TimedOut = true
		result.ExitCode = ExitTerminated
	default:
		result.ExitCode = exitCode(cmd, waitErr)
	}

	return result, nil
}

// exitCode extracts the exit status. A process ended by a signal the
// executor did not send still reports ExitTerminated.
func exitCode(cmd *exec.Cmd, waitErr error) int {
	if waitErr != nil && !errors.Is(waitErr, exec.ErrWaitDelay) {
		var exitErr *exec.ExitError
		if !errors.As(waitErr, &exitErr) {
			logger.Warnf("wait for %s failed: %v", cmd.Path, waitErr)
			return ExitTerminated
		}
	}
	if cmd.ProcessState == nil {
		return ExitTerminated
	}
	if code := cmd.ProcessState.ExitCode(); code >= 0 {
		return code
	}
	return ExitTerminated
}
