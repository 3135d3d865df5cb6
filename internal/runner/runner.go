// Package runner launches test targets through an external command and
// maps the process exit status to pass/fail.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/google/uuid"
)

// Result is the outcome of one target launch.
type Result struct {
	InvocationID string
	Target       string
	Passed       bool
	ExitCode     int
	Duration     time.Duration
	Output       string // combined stdout and stderr
}

// Runner launches dotted targets, one process per target. Command is the
// argv prefix (for example ["python", "-m", "unittest"]); the target is
// appended as the final argument.
type Runner struct {
	Command []string
	Dir     string        // working directory, normally the project root
	Timeout time.Duration // per launch; zero means no limit
}

// Run launches a single target and waits for it. A non-zero exit status is
// a failed Result, not an error; errors are reserved for launches that never
// produced a real exit status (missing binary, timeout, cancellation).
func (r *Runner) Run(ctx context.Context, target string) (*Result, error) {
	if len(r.Command) == 0 {
		return nil, errors.New("runner: empty command")
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	argv := append(append([]string{}, r.Command...), target)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	err := cmd.Run()

	res := &Result{
		InvocationID: uuid.NewString(),
		Target:       target,
		Duration:     time.Since(start),
		Output:       buf.String(),
	}

	if err == nil {
		res.Passed = true
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// A context kill also surfaces as an exit error; report it as
		// the timeout/cancellation it is.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("running %s: %w", target, ctxErr)
		}
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return nil, fmt.Errorf("running %s: %w", target, err)
}

// RunAll launches targets sequentially in order. It stops early only when a
// launch itself fails; test failures are collected and returned.
func (r *Runner) RunAll(ctx context.Context, targets []string) ([]*Result, error) {
	results := make([]*Result, 0, len(targets))
	for _, target := range targets {
		res, err := r.Run(ctx, target)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
