// Package operator runs privileged file operations through external helper binaries.
//
// The operator never interprets why a helper failed. Every failure, whether a non-zero
// exit, a signal or a failed launch, surfaces as a *CommandError. There is no rollback:
// callers sequence operations and decide what to do when one fails.
package operator

import (
	"log/slog"
)

// Operator copies, moves and removes files with elevated privileges.
type Operator struct {
	runner  Runner
	helpers Helpers
}

// New returns an operator running the given helpers through runner.
func New(runner Runner, helpers Helpers) *Operator {
	return &Operator{runner: runner, helpers: helpers}
}

// Copy behaves as `cp -rfp src dst`.
func (op *Operator) Copy(src string, dst string) error {
	return op.run("cp", op.helpers.Copy, "-rfp", src, dst)
}

// Remove behaves as `rm -rf path`.
func (op *Operator) Remove(path string) error {
	return op.run("rm", op.helpers.Remove, "-rf", path)
}

// Move behaves as `mv -f src dst`.
func (op *Operator) Move(src string, dst string) error {
	return op.run("mv", op.helpers.Move, "-f", src, dst)
}

// run executes a single helper and maps anything but a clean exit to a *CommandError.
func (op *Operator) run(command string, binary string, args ...string) error {
	slog.Debug("Running helper", slog.String("command", command), slog.String("binary", binary), slog.Any("args", args))

	reason, out, err := op.runner.Run(binary, args...)
	if len(out) > 0 {
		slog.Debug("Helper output", slog.String("command", command), slog.String("output", string(out)))
	}

	if err != nil {
		return &CommandError{Command: command, Err: err}
	}

	if !reason.Success() {
		return &CommandError{Command: command, Reason: reason}
	}

	return nil
}
