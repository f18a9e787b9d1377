package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/go-remotecurl/config"
	"github.com/gaborage/go-remotecurl/curl"
	"github.com/gaborage/go-remotecurl/http"
	"github.com/gaborage/go-remotecurl/logger"
	"github.com/gaborage/go-remotecurl/observability"
	"github.com/gaborage/go-remotecurl/remote"
)

const (
	outputText = "text"
	outputJSON = "json"
)

type requestFlags struct {
	headers    []string
	data       string
	jsonBody   string
	params     []string
	insecure   bool
	noLocation bool
	maxTime    time.Duration
	retries    int
	backoff    time.Duration
	maxBackoff time.Duration
	output     string
	include    bool
	dryRun     bool
}

func newRequestCommand(g *globalFlags, opts Options) *cobra.Command {
	f := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "request METHOD URL [-- curl-args...]",
		Short: "Run one HTTP request through curl on the remote host",
		Long: `Run one HTTP request through curl on the remote host.

Examples:
  remote-curl request GET https://internal.example.com/health --host bastion --user ops -i ~/.ssh/id_ed25519
  remote-curl request POST https://api.internal/items --json '{"name":"x"}' -H 'Authorization: Bearer ...'
  remote-curl request GET https://api.internal/search -G q=term --retries 3 -o json
  remote-curl request GET https://api.internal/ --dry-run -- --compressed`,
		Args: requestArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, args, g, f, opts)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "Request header 'Name: value' (repeatable)")
	fl.StringVarP(&f.data, "data", "d", "", "Request body sent verbatim")
	fl.StringVar(&f.jsonBody, "json", "", "JSON request body; sets Content-Type: application/json")
	fl.StringArrayVarP(&f.params, "param", "G", nil, "Query parameter key=value (repeatable)")
	fl.BoolVarP(&f.insecure, "insecure", "k", false, "Skip TLS certificate verification on the remote curl")
	fl.BoolVar(&f.noLocation, "no-location", false, "Do not follow redirects")
	fl.DurationVar(&f.maxTime, "max-time", 0, "Maximum transfer time (e.g. 10s)")
	fl.IntVar(&f.retries, "retries", 0, "Retries after the first attempt")
	fl.DurationVar(&f.backoff, "backoff", 0, "Base delay of the exponential backoff")
	fl.DurationVar(&f.maxBackoff, "max-backoff", 0, "Upper bound of a single backoff delay (0 = none)")
	fl.StringVarP(&f.output, "output", "o", outputText, "Output format: text, json")
	fl.BoolVar(&f.include, "include", false, "Print the final response headers before the body")
	fl.BoolVar(&f.dryRun, "dry-run", false, "Print the redacted curl command line and exit")
	cmd.MarkFlagsMutuallyExclusive("data", "json")

	return cmd
}

// requestArgs accepts exactly METHOD and URL before an optional "--".
func requestArgs(cmd *cobra.Command, args []string) error {
	positional := len(args)
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		positional = dash
	}
	if positional != 2 {
		return fmt.Errorf("expected METHOD and URL, got %d argument(s)", positional)
	}
	return nil
}

func (f *requestFlags) overrides(cmd *cobra.Command, out map[string]any) {
	set := func(flag, key string, value any) {
		if cmd.Flags().Changed(flag) {
			out[key] = value
		}
	}
	set("insecure", "request.insecure", f.insecure)
	set("no-location", "request.follow_redirects", !f.noLocation)
	set("max-time", "request.timeout", f.maxTime.String())
	set("retries", "request.retries", f.retries)
	set("backoff", "request.backoff", f.backoff.String())
	set("max-backoff", "request.max_backoff", f.maxBackoff.String())
}

func runRequest(cmd *cobra.Command, args []string, g *globalFlags, f *requestFlags, opts Options) error {
	if f.output != outputText && f.output != outputJSON {
		return fmt.Errorf("unknown output format %q (want %s or %s)", f.output, outputText, outputJSON)
	}

	overrides := g.overrides(cmd)
	f.overrides(cmd, overrides)
	cfg, err := g.loadConfig(overrides, f.dryRun)
	if err != nil {
		return err
	}

	log := logger.NewWithWriter(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr())
	log.WithFields(map[string]any{"config": cfg.All()}).Debug().Msg("Configuration loaded")

	req, err := buildRequest(args, cmd.ArgsLenAtDash(), f, cfg)
	if err != nil {
		return err
	}

	if f.dryRun {
		built, err := curl.Build(req)
		if err != nil {
			return withExitCode(ExitRequestFailed, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), http.RedactCommand(built, nil))
		return nil
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithRemoteCounter(ctx)

	var obsCfg observability.Config
	if err := cfg.Unmarshal("observability", &obsCfg); err != nil {
		return withExitCode(ExitConfig, fmt.Errorf("invalid observability configuration: %w", err))
	}
	provider, err := observability.NewProvider(&obsCfg,
		observability.WithLogger(log),
		observability.WithConsoleWriter(cmd.ErrOrStderr()),
	)
	if err != nil {
		return withExitCode(ExitConfig, err)
	}
	defer func() {
		if err := observability.Shutdown(provider, observability.DefaultShutdownTimeout); err != nil {
			log.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	dialer, err := opts.NewDialer(sshConfig(cfg))
	if err != nil {
		if errors.Is(err, remote.ErrInvalidConfig) {
			return withExitCode(ExitConfig, err)
		}
		return withExitCode(ExitConnection, err)
	}

	client := http.NewBuilder(dialer, log).
		WithRetries(cfg.Request.Retries).
		WithBackoff(cfg.Request.Backoff).
		WithMaxBackoff(cfg.Request.MaxBackoff).
		WithExecTimeout(cfg.Request.ExecTimeout).
		WithRequestIDHeader(cfg.Request.RequestID).
		WithTracePropagation(cfg.Request.TracePropagation).
		Build()

	resp, err := client.Do(ctx, req)
	log.Debug().
		Int64("remote_calls", logger.GetRemoteCounter(ctx)).
		Dur("remote_elapsed", time.Duration(logger.GetRemoteElapsed(ctx))).
		Msg("Remote execution summary")
	if err != nil {
		if http.IsErrorType(err, http.TypeConnection) {
			return withExitCode(ExitConnection, err)
		}
		return withExitCode(ExitRequestFailed, err)
	}

	if f.output == outputJSON {
		return writeJSON(cmd.OutOrStdout(), resp)
	}
	writeText(cmd.OutOrStdout(), cmd.ErrOrStderr(), resp, f.include)
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// buildRequest merges config defaults with the command line. Headers given
// with -H replace configured headers of the same name.
func buildRequest(args []string, dash int, f *requestFlags, cfg *config.Config) (*curl.Request, error) {
	req := &curl.Request{
		Method:          strings.ToUpper(args[0]),
		URL:             args[1],
		Headers:         make(map[string]string, len(cfg.Request.Headers)+len(f.headers)),
		Params:          make(map[string]string, len(f.params)),
		Insecure:        cfg.Request.Insecure,
		FollowRedirects: cfg.Request.FollowRedirects,
		Timeout:         cfg.Request.Timeout,
	}
	if dash >= 0 {
		req.CurlArgs = append([]string(nil), args[dash:]...)
	}

	for name, value := range cfg.Request.Headers {
		req.Headers[name] = value
	}
	for _, h := range f.headers {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q (want 'Name: value')", h)
		}
		for existing := range req.Headers {
			if strings.EqualFold(existing, name) {
				delete(req.Headers, existing)
			}
		}
		req.Headers[name] = strings.TrimSpace(value)
	}

	for _, p := range f.params {
		key, value, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q (want key=value)", p)
		}
		req.Params[key] = value
	}

	switch {
	case f.jsonBody != "":
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(f.jsonBody)); err != nil {
			return nil, fmt.Errorf("invalid --json body: %w", err)
		}
		req.Data = json.RawMessage(buf.Bytes())
	case f.data != "":
		req.Data = f.data
	}

	return req, nil
}
