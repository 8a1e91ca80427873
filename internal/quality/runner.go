package quality

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrToolNotFound means the tool binary is not on PATH.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolTimeout means the tool did not finish within the step timeout.
	ErrToolTimeout = errors.New("tool timeout")
)

// Command is one external tool invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Stdin string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// CommandResult is the captured outcome of a command. A non-zero exit code
// is not an error: linters report findings that way.
type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Output returns stdout, or stderr when stdout is empty.
func (r CommandResult) Output() string {
	if strings.TrimSpace(r.Stdout) != "" {
		return r.Stdout
	}
	return r.Stderr
}

// CommandRunner executes external tools.
type CommandRunner interface {
	Run(ctx context.Context, cmd Command) (CommandResult, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes cmd. It returns ErrToolNotFound for a missing binary and
// ErrToolTimeout when ctx expires first.
func (ExecRunner) Run(ctx context.Context, cmd Command) (CommandResult, error) {
	path, err := exec.LookPath(cmd.Name)
	if err != nil {
		return CommandResult{}, fmt.Errorf("%w: %s", ErrToolNotFound, cmd.Name)
	}

	c := exec.CommandContext(ctx, path, cmd.Args...)
	c.Dir = cmd.Dir
	if cmd.Stdin != "" {
		c.Stdin = strings.NewReader(cmd.Stdin)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err = c.Run()
	res := CommandResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return res, fmt.Errorf("%w: %s", ErrToolTimeout, cmd.Name)
		}
		return res, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("running %s: %w", cmd.Name, err)
	}
	return res, nil
}
