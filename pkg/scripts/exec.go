package scripts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"

	errs "github.com/matzehuels/bonnie/pkg/errors"
)

// ExitError reports a command that ran but exited with a non-zero status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string { return fmt.Sprintf("exit status %d", e.Code) }

// ExecOptions configures [Execute]. Zero values inherit from the process.
type ExecOptions struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Dir    string
	Env    []string // KEY=VALUE pairs; nil means os.Environ()
}

// Execute runs cmd with the built-in POSIX shell interpreter, so scripts
// behave the same on every platform.
func Execute(ctx context.Context, cmd string, opts ExecOptions) error {
	prog, err := syntax.NewParser().Parse(strings.NewReader(cmd), "")
	if err != nil {
		return errs.Wrap(errs.ErrCodeParse, err, "parse command")
	}

	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Env == nil {
		opts.Env = os.Environ()
	}

	runnerOpts := []interp.RunnerOption{
		interp.StdIO(opts.Stdin, opts.Stdout, opts.Stderr),
		interp.Env(expand.ListEnviron(opts.Env...)),
	}
	if opts.Dir != "" {
		runnerOpts = append(runnerOpts, interp.Dir(opts.Dir))
	}

	runner, err := interp.New(runnerOpts...)
	if err != nil {
		return fmt.Errorf("create interpreter: %w", err)
	}

	if err := runner.Run(ctx, prog); err != nil {
		var status interp.ExitStatus
		if errors.As(err, &status) {
			return &ExitError{Code: int(status)}
		}
		return err
	}
	return nil
}
