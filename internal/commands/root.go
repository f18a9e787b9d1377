// Package commands implements the remote-curl command line.
package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gaborage/go-remotecurl/config"
	"github.com/gaborage/go-remotecurl/remote"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitRequestFailed = 1
	ExitUsage         = 2
	ExitConfig        = 3
	ExitConnection    = 4
)

// DialerFactory builds the dialer for a resolved SSH configuration.
type DialerFactory func(cfg *remote.SSHConfig) (remote.Dialer, error)

// Options customize the command tree. Zero values select production defaults.
type Options struct {
	Version   string
	BuildTime string
	NewDialer DialerFactory
}

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// ExitCode maps an error returned by the command tree to a process exit code.
// Errors without an explicit code are usage errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsage
}

type globalFlags struct {
	configFile string
	host       string
	port       int
	user       string
	password   string
	identity   string
	knownHosts string
	logLevel   string
	pretty     bool
}

// NewRootCommand assembles the remote-curl command tree.
func NewRootCommand(opts Options) *cobra.Command {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.BuildTime == "" {
		opts.BuildTime = "unknown"
	}
	if opts.NewDialer == nil {
		opts.NewDialer = sshDialer
	}

	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "remote-curl",
		Short: "Run HTTP requests from a remote host over SSH",
		Long: `remote-curl runs curl on a remote host over SSH and rebuilds a structured
HTTP response from its output. Configuration is read from defaults, an optional
YAML file, a .env file, REMOTECURL_* environment variables and flags, in that
order of precedence.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "Path to a YAML config file")
	pf.StringVar(&g.host, "host", "", "SSH host (env: REMOTECURL_SSH_HOST)")
	pf.IntVar(&g.port, "port", remote.DefaultSSHPort, "SSH port (env: REMOTECURL_SSH_PORT)")
	pf.StringVar(&g.user, "user", "", "SSH user (env: REMOTECURL_SSH_USER)")
	pf.StringVar(&g.password, "password", "", "SSH password (env: REMOTECURL_SSH_PASSWORD)")
	pf.StringVarP(&g.identity, "identity", "i", "", "SSH private key file (env: REMOTECURL_SSH_KEY_FILE)")
	pf.StringVar(&g.knownHosts, "known-hosts", "", "known_hosts file used to verify the host key")
	pf.StringVar(&g.logLevel, "log-level", "info", "Log level: trace, debug, info, warn, error, disabled")
	pf.BoolVar(&g.pretty, "pretty", false, "Human readable log output")

	root.AddCommand(newRequestCommand(g, opts), newVersionCommand(opts))
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute(version, buildTime string) int {
	root := NewRootCommand(Options{Version: version, BuildTime: buildTime})
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), color.RedString("Error: %v", err))
	}
	return ExitCode(err)
}

// overrides collects the persistent flags the user actually set.
func (g *globalFlags) overrides(cmd *cobra.Command) map[string]any {
	out := map[string]any{}
	set := func(flag, key string, value any) {
		if cmd.Flags().Changed(flag) {
			out[key] = value
		}
	}
	set("host", "ssh.host", g.host)
	set("port", "ssh.port", g.port)
	set("user", "ssh.user", g.user)
	set("password", "ssh.password", g.password)
	set("identity", "ssh.key_file", g.identity)
	set("known-hosts", "ssh.known_hosts", g.knownHosts)
	set("log-level", "log.level", g.logLevel)
	set("pretty", "log.pretty", g.pretty)
	return out
}

func (g *globalFlags) loadConfig(overrides map[string]any, skipSSH bool) (*config.Config, error) {
	opts := []config.LoadOption{config.WithOverrides(overrides)}
	if g.configFile != "" {
		opts = append(opts, config.WithFile(g.configFile))
	}
	if skipSSH {
		opts = append(opts, config.WithoutSSHValidation())
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, withExitCode(ExitConfig, err)
	}
	return cfg, nil
}

func sshDialer(cfg *remote.SSHConfig) (remote.Dialer, error) {
	d, err := remote.NewSSHDialer(cfg)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func sshConfig(cfg *config.Config) *remote.SSHConfig {
	return &remote.SSHConfig{
		Host:           cfg.SSH.Host,
		Port:           cfg.SSH.Port,
		User:           cfg.SSH.User,
		Password:       cfg.SSH.Password,
		KeyFile:        cfg.SSH.KeyFile,
		KeyPassphrase:  cfg.SSH.KeyPassphrase,
		KnownHosts:     cfg.SSH.KnownHosts,
		ConnectTimeout: cfg.SSH.ConnectTimeout,
	}
}
