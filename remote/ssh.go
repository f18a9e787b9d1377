package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSSHPort        = 22
	DefaultConnectTimeout = 10 * time.Second
)

// SSHConfig describes how to reach and authenticate against the remote host.
type SSHConfig struct {
	Host string
	Port int
	User string
	// Password enables password authentication when set.
	Password string
	// KeyFile is a private key path; a leading ~ is expanded.
	KeyFile string
	// KeyPassphrase decrypts KeyFile when it is encrypted.
	KeyPassphrase string
	// KnownHosts is a known_hosts path used to verify the host key.
	// When empty any host key is accepted.
	KnownHosts     string
	ConnectTimeout time.Duration
}

// Addr returns host:port.
func (c *SSHConfig) Addr() string {
	port := c.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// SSHDialer opens a fresh SSH connection on every Dial.
type SSHDialer struct {
	addr           string
	clientConfig   *ssh.ClientConfig
	connectTimeout time.Duration
}

// NewSSHDialer validates cfg and prepares the client configuration. Key and
// known_hosts files are read once here.
func NewSSHDialer(cfg *SSHConfig) (*SSHDialer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil ssh config", ErrInvalidConfig)
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: ssh host is required", ErrInvalidConfig)
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("%w: ssh user is required", ErrInvalidConfig)
	}

	clientConfig, err := buildClientConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	clientConfig.Timeout = timeout

	return &SSHDialer{
		addr:           cfg.Addr(),
		clientConfig:   clientConfig,
		connectTimeout: timeout,
	}, nil
}

// Addr returns the address the dialer connects to.
func (d *SSHDialer) Addr() string {
	return d.addr
}

// Dial connects and authenticates. The handshake is bounded by both ctx and
// the connect timeout.
func (d *SSHDialer) Dial(ctx context.Context) (Channel, error) {
	dialer := &net.Dialer{Timeout: d.connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrConnect, d.addr, err)
	}

	deadline := time.Now().Add(d.connectTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, d.addr, d.clientConfig)
	stopped := stop()
	if err != nil {
		_ = conn.Close()
		if !stopped && ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("%w: handshake with %s: %w", ErrConnect, d.addr, err)
	}
	if !stopped {
		_ = sshConn.Close()
		return nil, fmt.Errorf("%w: handshake with %s: %w", ErrConnect, d.addr, ctx.Err())
	}
	_ = conn.SetDeadline(time.Time{})

	return &sshChannel{client: ssh.NewClient(sshConn, chans, reqs)}, nil
}

func buildClientConfig(cfg *SSHConfig) (*ssh.ClientConfig, error) {
	var auth []ssh.AuthMethod

	if cfg.KeyFile != "" {
		signer, err := loadSigner(cfg.KeyFile, cfg.KeyPassphrase)
		if err != nil {
			return nil, err
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}

	if cfg.Password != "" {
		auth = append(auth, ssh.Password(cfg.Password))
	}

	if len(auth) == 0 {
		return nil, errors.New("no ssh authentication method configured (need key file or password)")
	}

	hostKeyCallback, err := hostKeyCallback(cfg.KnownHosts)
	if err != nil {
		return nil, err
	}

	return &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
	}, nil
}

func loadSigner(keyFile, passphrase string) (ssh.Signer, error) {
	path, err := homedir.Expand(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to expand key file path: %w", err)
	}

	key, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh key file: %w", err)
	}

	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh key: %w", err)
	}
	return signer, nil
}

func hostKeyCallback(knownHostsFile string) (ssh.HostKeyCallback, error) {
	if knownHostsFile == "" {
		return ssh.InsecureIgnoreHostKey(), nil //nolint:gosec // host key checking is opt-in via known_hosts
	}

	path, err := homedir.Expand(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to expand known_hosts path: %w", err)
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load known_hosts file: %w", err)
	}
	return callback, nil
}

type sshChannel struct {
	client *ssh.Client

	mu     sync.Mutex
	closed bool
}

// Exec runs cmd in a new session and collects its output. Timeout and context
// cancellation kill the remote process and close the session.
func (c *sshChannel) Exec(ctx context.Context, cmd string, timeout time.Duration) (*Result, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("%w: open session: %w", ErrSession, err)
	}
	defer session.Close()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrSession, err)
	}
	stderr, err := session.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %w", ErrSession, err)
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if err := session.Start(cmd); err != nil {
		return nil, fmt.Errorf("%w: start command: %w", ErrSession, err)
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})

	done := make(chan error, 1)
	go func() {
		if err := g.Wait(); err != nil {
			done <- err
			return
		}
		done <- session.Wait()
	}()

	select {
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGKILL)
		_ = session.Close()
		return nil, fmt.Errorf("%w: %w", ErrTimeout, ctx.Err())
	case err := <-done:
		return collect(&outBuf, &errBuf, err)
	}
}

func collect(stdout, stderr *bytes.Buffer, waitErr error) (*Result, error) {
	result := &Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if waitErr == nil {
		return result, nil
	}

	var exitErr *ssh.ExitError
	if errors.As(waitErr, &exitErr) {
		result.ExitStatus = exitErr.ExitStatus()
		return result, nil
	}

	return nil, fmt.Errorf("%w: %w", ErrSession, waitErr)
}

// Close closes the underlying connection. It is safe to call more than once.
func (c *sshChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.client.Close()
}
