// Package execx runs external commands with a wall-clock timeout and
// guaranteed process cleanup.
package execx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// ErrTimeout reports that a command exceeded its wall-clock budget.
var ErrTimeout = errors.New("execx: command timed out")

// Opts holds parameters for a single command invocation.
type Opts struct {
	Binary  string
	Args    []string
	Stdin   string            // piped to the process if non-empty
	Env     map[string]string // overlaid on the inherited environment
	Dir     string
	Timeout time.Duration // 0 means no timeout
}

// Result captures the outcome of a completed command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Available reports whether the named binary can be found on PATH.
func Available(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// Run executes the command described by opts and blocks until it exits or
// the timeout fires. Arguments are passed as a list; no shell is involved.
// On timeout the process receives SIGTERM, then SIGKILL after a grace
// period, and ErrTimeout is returned.
func Run(ctx context.Context, opts Opts) (Result, error) {
	if opts.Binary == "" {
		return Result{}, fmt.Errorf("execx: binary is required")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, opts.Binary, opts.Args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if opts.Stdin != "" {
		cmd.Stdin = strings.NewReader(opts.Stdin)
	}
	cmd.Env = mergeEnv(os.Environ(), opts.Env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 10 * time.Second

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() == context.DeadlineExceeded {
		return res, fmt.Errorf("%w: %s after %s", ErrTimeout, opts.Binary, opts.Timeout)
	}
	// A caller abort is not a command failure; keep it distinguishable.
	if ctx.Err() == context.Canceled {
		return res, fmt.Errorf("execx: run %s: %w", opts.Binary, context.Canceled)
	}
	if err != nil {
		return res, fmt.Errorf("execx: run %s: %w", opts.Binary, err)
	}
	return res, nil
}

// mergeEnv overlays extra entries on a base KEY=VALUE environment.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}
	merged := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if _, ok := extra[key]; ok {
			continue
		}
		merged = append(merged, kv)
	}
	for k, v := range extra {
		merged = append(merged, k+"="+v)
	}
	return merged
}
