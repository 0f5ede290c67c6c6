package device

import (
	"fmt"
	"net"

	"github.com/pkg/sftp"
	"github.com/spf13/afero"
	"github.com/spf13/afero/sftpfs"
	"golang.org/x/crypto/ssh"

	"github.com/crissyfield/supericons/internal/config"
)

// Session is an SSH connection to the device together with an SFTP view of its filesystem.
type Session struct {
	SSH  *ssh.Client
	SFTP *sftp.Client
}

// Connect establishes SSH and SFTP connections to the device.
func Connect(cfg config.SSHConfig) (*Session, error) {
	// Establish SSH connection
	sshClient, err := ssh.Dial(
		"tcp",
		net.JoinHostPort(cfg.Host, cfg.Port),
		&ssh.ClientConfig{
			User:            cfg.User,
			Auth:            []ssh.AuthMethod{ssh.Password(cfg.Password)},
			HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
			Timeout:         cfg.Timeout,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("establish SSH connect: %w", err)
	}

	// Establish SFTP connection
	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close() //nolint

		return nil, fmt.Errorf("establish SFTP connect: %w", err)
	}

	return &Session{SSH: sshClient, SFTP: sftpClient}, nil
}

// Fs returns the device filesystem as seen through SFTP.
func (s *Session) Fs() afero.Fs {
	return sftpfs.New(s.SFTP)
}

// Close tears down both connections.
func (s *Session) Close() {
	s.SFTP.Close() //nolint
	s.SSH.Close()  //nolint
}
