// Package procharness spawns the shell subprocess backing a single corpus
// test and captures its output, grounded on the teacher's agent-process
// runner but adapted for run-to-completion shell commands rather than a
// long-lived RPC session.
package procharness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/armon/circbuf"

	"github.com/cctr-dev/cctr/internal/corpus"
	"github.com/cctr-dev/cctr/internal/shellvariant"
)

// defaultMaxOutputBytes bounds how much stdout/stderr a single test can
// retain; beyond this the tail is kept, matching the teacher's tailBuffer
// strategy for runaway subprocess output.
const defaultMaxOutputBytes = 4 * 1024 * 1024

// Request describes one command to run under a resolved shell.
type Request struct {
	Shell   corpus.Shell
	Command string
	Dir     string
	Env     []string
}

// Result is what came back from running a Request.
type Result struct {
	Stdout       string
	Stderr       string
	ExitCode     int
	Duration     time.Duration
	CmdWarning   bool // true if MultilineCmdWarning applies
	SpawnFailure error
}

// Run launches req's command under its shell and waits for it to finish (or
// for ctx to be canceled). A non-zero exit code is reported in
// Result.ExitCode, not returned as an error; only a failure to spawn the
// process is returned as an error.
func Run(ctx context.Context, req Request) (Result, error) {
	launch, err := shellvariant.Launch(req.Shell, req.Command)
	if err != nil {
		return Result{}, fmt.Errorf("procharness: %w", err)
	}

	stdout, err := circbuf.NewBuffer(defaultMaxOutputBytes)
	if err != nil {
		return Result{}, fmt.Errorf("procharness: allocate stdout buffer: %w", err)
	}
	stderr, err := circbuf.NewBuffer(defaultMaxOutputBytes)
	if err != nil {
		return Result{}, fmt.Errorf("procharness: allocate stderr buffer: %w", err)
	}

	cmd := exec.CommandContext(ctx, launch.Path, launch.Args...) //nolint:gosec // command text comes from the corpus file under test.
	if req.Dir != "" {
		cmd.Dir = req.Dir
	}
	if len(req.Env) > 0 {
		cmd.Env = req.Env
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	configureProcessGroup(cmd)

	start := time.Now()
	runErr := cmd.Run()
	duration := time.Since(start)

	res := Result{
		Stdout:     normalizeNewlines(stdout.Bytes()),
		Stderr:     normalizeNewlines(stderr.Bytes()),
		Duration:   duration,
		CmdWarning: shellvariant.MultilineCmdWarning(req.Shell, req.Command),
	}

	if runErr == nil {
		res.ExitCode = 0
		return res, nil
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}

	res.SpawnFailure = runErr
	return res, fmt.Errorf("procharness: spawn %q: %w", launch.Path, runErr)
}

// normalizeNewlines rewrites CRLF sequences to LF so Windows-produced output
// compares equal to the corpus's LF-only expected blocks.
func normalizeNewlines(b []byte) string {
	return string(bytes.ReplaceAll(b, []byte("\r\n"), []byte("\n")))
}
