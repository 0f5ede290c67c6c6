package operator

import (
	"errors"
	"fmt"

	"al.essio.dev/pkg/shellescape"
	"golang.org/x/crypto/ssh"
)

// SSHRunner runs helpers on a remote device, one SSH session per command.
type SSHRunner struct {
	client *ssh.Client
}

// NewSSHRunner returns a runner that executes helpers through the given SSH connection.
func NewSSHRunner(client *ssh.Client) *SSHRunner {
	return &SSHRunner{client: client}
}

// Run implements Runner.
func (r *SSHRunner) Run(name string, args ...string) (Termination, []byte, error) {
	// Open session
	session, err := r.client.NewSession()
	if err != nil {
		return Termination{}, nil, fmt.Errorf("open SSH session: %w", err)
	}

	defer session.Close()

	// Run command line
	out, err := session.CombinedOutput(commandLine(name, args))
	if err == nil {
		return Exited(0), out, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Signal() != "" {
			return Signaled(exitErr.Signal()), out, nil
		}

		return Exited(exitErr.ExitStatus()), out, nil
	}

	var missingErr *ssh.ExitMissingError
	if errors.As(err, &missingErr) {
		return Signaled("unknown"), out, nil
	}

	return Termination{}, out, fmt.Errorf("run remote command: %w", err)
}

// commandLine joins name and args into a line for the remote POSIX shell.
func commandLine(name string, args []string) string {
	return shellescape.QuoteCommand(append([]string{name}, args...))
}
