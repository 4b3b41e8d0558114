// Package runner executes external commands and captures their output.
//
// Standard output and standard error are drained concurrently into separate
// mutex-guarded buffers while the caller blocks on process exit. A timeout
// kills the process group and is reported through Result.TimedOut rather
// than as an error, so callers decide whether a timeout is fatal. Reads stop
// at most Exec.WaitDelay after the kill, even when a descendant still holds
// the output pipes.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Command describes one process invocation.
type Command struct {
	// Name is the executable name or path.
	Name string
	// Args are passed verbatim, without shell interpretation.
	Args []string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env replaces the environment when non-nil.
	Env []string
	// Timeout bounds the wall-clock time of the process; zero means no limit.
	Timeout time.Duration
}

// String renders the command line for logs and error messages.
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

// Result is the captured outcome of a finished (or killed) process.
type Result struct {
	Stdout string
	Stderr string
	// Combined interleaves both streams line by line in arrival order.
	Combined string
	// ExitCode is -1 when the process was killed on timeout.
	ExitCode int
	TimedOut bool
	Duration time.Duration
}

// Runner runs commands. Exec is the production implementation.
type Runner interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// DefaultWaitDelay is how long Run keeps reading output after a timeout or
// cancellation before it closes the pipes.
const DefaultWaitDelay = 2 * time.Second

// Exec runs commands with os/exec.
type Exec struct {
	// WaitDelay bounds the reads once the process has been killed. Output
	// pipes may be held open by descendants that outlive the kill. Zero
	// means DefaultWaitDelay.
	WaitDelay time.Duration
}

// lockedBuffer is a strings.Builder guarded by a mutex.
type lockedBuffer struct {
	mu sync.Mutex
	sb strings.Builder
}

func (b *lockedBuffer) WriteString(s string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sb.WriteString(s)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sb.String()
}

// Run starts the command and blocks until it exits or its timeout elapses.
// The returned error is non-nil only when the process could not be started
// or its output could not be read; a non-zero exit status is not an error.
func (e Exec) Run(ctx context.Context, c Command) (*Result, error) {
	waitDelay := e.WaitDelay
	if waitDelay <= 0 {
		waitDelay = DefaultWaitDelay
	}

	runCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(runCtx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if c.Env != nil {
		cmd.Env = c.Env
	}
	// Termination is best effort; a failed kill must not mask the timeout.
	setProcessGroup(cmd)
	cmd.Cancel = func() error {
		killProcessGroup(cmd)
		return nil
	}
	cmd.WaitDelay = waitDelay

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", c.Name, err)
	}

	var stdout, stderr, combined lockedBuffer
	var g errgroup.Group
	g.Go(func() error { return drain(stdoutPipe, &stdout, &combined) })
	g.Go(func() error { return drain(stderrPipe, &stderr, &combined) })

	readsDone := make(chan struct{})
	go closeAfterCancel(runCtx, readsDone, waitDelay, stdoutPipe, stderrPipe)

	// All reads must finish before Wait closes the pipes.
	readErr := g.Wait()
	close(readsDone)
	waitErr := cmd.Wait()

	result := &Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Combined: combined.String(),
		ExitCode: exitCode(cmd),
		Duration: time.Since(start),
	}

	if c.Timeout > 0 && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		result.TimedOut = true
		result.ExitCode = -1
		return result, nil
	}

	if ctx.Err() != nil {
		return result, fmt.Errorf("running %s: %w", c.Name, ctx.Err())
	}

	if readErr != nil {
		return result, fmt.Errorf("reading output of %s: %w", c.Name, readErr)
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) && !errors.Is(waitErr, exec.ErrWaitDelay) {
		return result, fmt.Errorf("waiting for %s: %w", c.Name, waitErr)
	}

	return result, nil
}

// closeAfterCancel closes the read ends once ctx is done and the readers
// are still blocked after delay.
func closeAfterCancel(ctx context.Context, readsDone <-chan struct{}, delay time.Duration, pipes ...io.Closer) {
	select {
	case <-readsDone:
		return
	case <-ctx.Done():
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-readsDone:
	case <-timer.C:
		for _, p := range pipes {
			_ = p.Close()
		}
	}
}

// drain copies r line by line into own and combined.
func drain(r io.Reader, own, combined *lockedBuffer) error {
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			own.WriteString(line)
			combined.WriteString(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
}

// exitCode gets the exit code from a completed command.
func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}
