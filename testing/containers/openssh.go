//go:build integration

package containers

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const sshContainerPort = "2222/tcp"

// OpenSSHContainerConfig holds configuration for the OpenSSH test container
type OpenSSHContainerConfig struct {
	// ImageTag specifies the linuxserver/openssh-server version (default: "latest")
	ImageTag string
	// User is the login created inside the container (default: "remotecurl")
	User string
	// Password enables password authentication for User (default: "remotecurl")
	Password string
	// InstallCurl installs curl with apk once the container is up (default: true)
	InstallCurl bool
	// StartupTimeout for container initialization (default: 90 seconds)
	StartupTimeout time.Duration
}

// DefaultOpenSSHConfig returns an OpenSSHContainerConfig populated with defaults.
func DefaultOpenSSHConfig() *OpenSSHContainerConfig {
	return &OpenSSHContainerConfig{
		ImageTag:       "latest",
		User:           "remotecurl",
		Password:       "remotecurl",
		InstallCurl:    true,
		StartupTimeout: 90 * time.Second,
	}
}

// OpenSSHContainer wraps a running OpenSSH server container
type OpenSSHContainer struct {
	container testcontainers.Container
	host      string
	port      int
	user      string
	password  string
}

// StartOpenSSHContainer starts an OpenSSH server the remote package can dial.
// The test is skipped when Docker is not available.
func StartOpenSSHContainer(ctx context.Context, t *testing.T, cfg *OpenSSHContainerConfig) (*OpenSSHContainer, error) {
	t.Helper()

	if cfg == nil {
		cfg = DefaultOpenSSHConfig()
	}

	if !dockerAvailable(ctx) {
		t.Skip("Docker is not available - skipping integration test. Install Docker Desktop or ensure Docker daemon is running.")
		return nil, nil
	}

	req := testcontainers.ContainerRequest{
		Image:        fmt.Sprintf("lscr.io/linuxserver/openssh-server:%s", cfg.ImageTag),
		ExposedPorts: []string{sshContainerPort},
		Env: map[string]string{
			"USER_NAME":       cfg.User,
			"USER_PASSWORD":   cfg.Password,
			"PASSWORD_ACCESS": "true",
			"SUDO_ACCESS":     "false",
		},
		WaitingFor: wait.ForListeningPort(sshContainerPort).WithStartupTimeout(cfg.StartupTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start OpenSSH container: %w", err)
	}

	if cfg.InstallCurl {
		if err := execInContainer(ctx, container, "apk", "add", "--no-cache", "curl"); err != nil {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("failed to install curl: %w", err)
		}
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get OpenSSH host: %w", err)
	}

	mappedPort, err := container.MappedPort(ctx, sshContainerPort)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get OpenSSH port: %w", err)
	}

	port := mappedPort.Int()
	t.Logf("OpenSSH container started successfully at %s:%d", host, port)

	return &OpenSSHContainer{
		container: container,
		host:      host,
		port:      port,
		user:      cfg.User,
		password:  cfg.Password,
	}, nil
}

func execInContainer(ctx context.Context, container testcontainers.Container, cmd ...string) error {
	code, out, err := container.Exec(ctx, cmd)
	if err != nil {
		return err
	}
	if code != 0 {
		output, _ := io.ReadAll(out)
		return fmt.Errorf("%v exited with %d: %s", cmd, code, output)
	}
	return nil
}

// Host returns the container host
func (c *OpenSSHContainer) Host() string {
	return c.host
}

// Port returns the mapped SSH port (2222)
func (c *OpenSSHContainer) Port() int {
	return c.port
}

// User returns the login name
func (c *OpenSSHContainer) User() string {
	return c.user
}

// Password returns the login password
func (c *OpenSSHContainer) Password() string {
	return c.password
}

// Terminate stops and removes the container
func (c *OpenSSHContainer) Terminate(ctx context.Context) error {
	if c.container == nil {
		return nil
	}
	return c.container.Terminate(ctx)
}

// MustStartOpenSSHContainer starts the container and fails the test if startup fails.
func MustStartOpenSSHContainer(ctx context.Context, t *testing.T, cfg *OpenSSHContainerConfig) *OpenSSHContainer {
	t.Helper()

	container, err := StartOpenSSHContainer(ctx, t, cfg)
	if err != nil {
		t.Fatalf("Failed to start OpenSSH container: %v", err)
	}

	return container
}

// WithCleanup registers a cleanup function to terminate the container when the test finishes
func (c *OpenSSHContainer) WithCleanup(t *testing.T) *OpenSSHContainer {
	t.Helper()
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate OpenSSH container: %v", err)
		}
	})
	return c
}
