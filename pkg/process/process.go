// Package process runs external commands and reports their combined output and exit code.
package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	breverrors "github.com/brevdev/fleet/pkg/errors"
)

type Command struct {
	Argv []string
	Dir  string
}

func (c Command) String() string {
	return strings.Join(c.Argv, " ")
}

// Output is what a finished command produced. A non-zero ExitCode is not an error from
// the Executor's point of view; callers decide.
type Output struct {
	Stdout   string
	Combined string
	ExitCode int
}

func (o Output) Success() bool {
	return o.ExitCode == 0
}

// Executor runs a command to completion. It returns an error only when the command
// could not be started or waited on.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

type OSExecutor struct{}

var _ Executor = OSExecutor{}

func (OSExecutor) Run(ctx context.Context, cmd Command) (Output, error) {
	if len(cmd.Argv) == 0 {
		return Output{}, breverrors.WrapAndTrace(fmt.Errorf("no command provided"))
	}

	c := exec.CommandContext(ctx, cmd.Argv[0], cmd.Argv[1:]...) // #nosec G204
	c.Dir = cmd.Dir

	var stdout, combined bytes.Buffer
	shared := &lockedWriter{w: &combined}
	c.Stdout = io.MultiWriter(&stdout, shared)
	c.Stderr = shared

	err := c.Run()
	out := Output{Stdout: stdout.String(), Combined: combined.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if breverrors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, breverrors.WrapAndTrace(err, cmd.String())
	}
	return out, nil
}

// lockedWriter lets the stdout and stderr copy goroutines share one buffer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
