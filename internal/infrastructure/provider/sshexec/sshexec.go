// Package sshexec runs commands on freshly rented servers with root password
// authentication.
package sshexec

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/orris-inc/keyhub/internal/shared/config"
)

const (
	defaultPort           = 22
	defaultUser           = "root"
	defaultConnectTimeout = 15 * time.Second
	defaultCommandTimeout = 10 * time.Minute
	maxOutput             = 64 << 10
)

// Client opens one SSH connection per command.
type Client struct {
	port           int
	user           string
	connectTimeout time.Duration
	commandTimeout time.Duration
	hostKey        ssh.HostKeyCallback
}

func New(cfg config.SSHConfig) *Client {
	c := &Client{
		port:           cfg.Port,
		user:           cfg.User,
		connectTimeout: cfg.ConnectTimeout,
		commandTimeout: cfg.CommandTimeout,
		// A VM that was created minutes ago has no host key we could know.
		hostKey: ssh.InsecureIgnoreHostKey(),
	}
	if c.port == 0 {
		c.port = defaultPort
	}
	if c.user == "" {
		c.user = defaultUser
	}
	if c.connectTimeout == 0 {
		c.connectTimeout = defaultConnectTimeout
	}
	if c.commandTimeout == 0 {
		c.commandTimeout = defaultCommandTimeout
	}
	return c
}

// Run executes command on host, feeding stdin when given, and returns the
// combined output. A non-zero exit status is an error carrying the output tail.
func (c *Client) Run(ctx context.Context, host, password, command string, stdin []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.commandTimeout)
	defer cancel()

	addr := net.JoinHostPort(host, strconv.Itoa(c.port))
	dialer := net.Dialer{Timeout: c.connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            c.user,
		Auth:            []ssh.AuthMethod{ssh.Password(password)},
		HostKeyCallback: c.hostKey,
		Timeout:         c.connectTimeout,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open ssh connection to %s: %w", addr, err)
	}
	client := ssh.NewClient(sshConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer session.Close()

	var out limitedBuffer
	session.Stdout = &out
	session.Stderr = &out
	if stdin != nil {
		session.Stdin = bytes.NewReader(stdin)
	}

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case <-ctx.Done():
		client.Close()
		return out.Bytes(), fmt.Errorf("ssh command interrupted: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return out.Bytes(), fmt.Errorf("ssh command failed: %w: %s", err, tail(out.String()))
		}
		return out.Bytes(), nil
	}
}

// Upload writes content to path with owner-only permissions.
func (c *Client) Upload(ctx context.Context, host, password, path string, content []byte) error {
	_, err := c.Run(ctx, host, password, "umask 077 && cat > "+ShellQuote(path), content)
	return err
}

// ChangeRootPassword implements provider.PasswordChanger.
func (c *Client) ChangeRootPassword(ctx context.Context, host, currentPassword, newPassword string) error {
	_, err := c.Run(ctx, host, currentPassword, "chpasswd", []byte("root:"+newPassword+"\n"))
	return err
}

// ShellQuote wraps s in single quotes for a POSIX shell.
func ShellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

type limitedBuffer struct {
	bytes.Buffer
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	if room := maxOutput - b.Len(); room < len(p) {
		if room > 0 {
			b.Buffer.Write(p[:room])
		}
		return len(p), nil
	}
	return b.Buffer.Write(p)
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 512 {
		return s[len(s)-512:]
	}
	return s
}
