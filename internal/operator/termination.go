package operator

import (
	"fmt"
)

// Termination describes how a helper process ended.
type Termination struct {
	Code   int    // Code is the exit status, valid when Signal is empty.
	Signal string // Signal is the name of the signal that killed the process, if any.
}

// Exited returns a termination for a process that exited with the given code.
func Exited(code int) Termination {
	return Termination{Code: code}
}

// Signaled returns a termination for a process that was killed by a signal.
func Signaled(signal string) Termination {
	return Termination{Code: -1, Signal: signal}
}

// Success reports whether the process exited with status 0.
func (t Termination) Success() bool {
	return (t.Signal == "") && (t.Code == 0)
}

// String renders the termination the way it is shown to the user.
func (t Termination) String() string {
	if t.Signal != "" {
		return fmt.Sprintf("signal(%s)", t.Signal)
	}

	return fmt.Sprintf("exit(%d)", t.Code)
}

// CommandError is returned when a helper process could not be launched or did not exit cleanly.
type CommandError struct {
	Command string      // Command is the helper name, e.g. "cp".
	Reason  Termination // Reason is how the process ended; zero when it never started.
	Err     error       // Err is the launch failure, if the process never started.
}

// Error implements error.
func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s command failed to launch: %v", e.Command, e.Err)
	}

	return fmt.Sprintf("%s command failed with reason: %s", e.Command, e.Reason)
}

// Unwrap returns the launch failure, if any.
func (e *CommandError) Unwrap() error {
	return e.Err
}
