// Package sshexec runs commands on hosts over ssh using the connection profiles written
// during provisioning.
package sshexec

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/alessio/shellescape"

	"github.com/brevdev/fleet/pkg/entity"
	breverrors "github.com/brevdev/fleet/pkg/errors"
	"github.com/brevdev/fleet/pkg/process"
)

// Conn is a host's connection handle. It is safe to Close from another goroutine.
type Conn struct {
	info        entity.ConnectionInfo
	profilePath string
	executor    process.Executor

	mu     sync.Mutex
	closed bool
}

var _ entity.Connection = &Conn{}

func NewConn(info entity.ConnectionInfo, profilePath string, executor process.Executor) *Conn {
	if executor == nil {
		executor = process.OSExecutor{}
	}
	return &Conn{info: info, profilePath: profilePath, executor: executor}
}

func (c *Conn) Info() entity.ConnectionInfo {
	return c.info
}

// Run executes command through `bash -lc` on the remote host and returns its combined
// output. A non-zero remote exit status is an error.
func (c *Conn) Run(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return "", breverrors.WrapAndTrace(fmt.Errorf("connection to %s is closed", HostLabel(c.info)))
	}

	argv := BuildSSHArgs(c.info, c.profilePath, command)
	out, err := c.executor.Run(ctx, process.Command{Argv: argv})
	if err != nil {
		return out.Combined, breverrors.WrapAndTrace(err)
	}
	if !out.Success() {
		return out.Combined, fmt.Errorf("ssh to %s failed for command %q: exit status %d\noutput:\n%s", HostLabel(c.info), command, out.ExitCode, out.Combined)
	}
	return out.Combined, nil
}

func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// BuildSSHArgs builds the ssh argv. With a profile path the profile is handed to ssh
// with -F and the alias is the target; otherwise the connection fields are passed
// explicitly.
func BuildSSHArgs(info entity.ConnectionInfo, profilePath string, command string) []string {
	args := []string{"ssh"}
	target := fmt.Sprintf("%s@%s", info.User, info.Hostname)

	if profilePath != "" {
		args = append(args, "-F", profilePath)
		target = info.Alias
	} else {
		if info.IdentityFile != "" {
			args = append(args, "-i", info.IdentityFile)
		}
		args = append(args, "-p", strconv.Itoa(info.Port))
		if len(info.Options) > 0 {
			keys := make([]string, 0, len(info.Options))
			for k := range info.Options {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, key := range keys {
				args = append(args, "-o", fmt.Sprintf("%s=%s", key, info.Options[key]))
			}
		}
	}

	args = append(args, "-o", "BatchMode=yes", target, "--", "bash", "-lc", shellescape.Quote(command))
	return args
}

func HostLabel(info entity.ConnectionInfo) string {
	return fmt.Sprintf("%s@%s:%d", info.User, info.Hostname, info.Port)
}
