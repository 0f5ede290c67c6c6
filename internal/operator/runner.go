package operator

import (
	"errors"
	"os/exec"
	"syscall"
)

// Runner runs a helper binary to completion. The returned error is non-nil only when the
// process could not be started; a process that ran and failed is reported via Termination.
type Runner interface {
	Run(name string, args ...string) (Termination, []byte, error)
}

// LocalRunner runs helpers as child processes of the current process.
type LocalRunner struct{}

// Run implements Runner.
func (LocalRunner) Run(name string, args ...string) (Termination, []byte, error) {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err == nil {
		return Exited(0), out, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return Termination{}, out, err
	}

	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return Signaled(ws.Signal().String()), out, nil
	}

	return Exited(exitErr.ExitCode()), out, nil
}
