package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/relief/relief/internal/config"
	"github.com/relief/relief/internal/domain/emergency"
	"github.com/relief/relief/internal/platform/apiclient"
	"github.com/relief/relief/internal/platform/auth"
	"github.com/relief/relief/internal/platform/notification"
	"github.com/relief/relief/internal/platform/validation"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, os.Getenv))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer, getenv func(string) string) int {
	root := newRootCmd(stdout, stderr, getenv)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(stderr, userMessage(err))
		return 1
	}
	return 0
}

// app holds what every command shares. It is filled in by the persistent
// pre-run hook once flags are parsed.
type app struct {
	out    io.Writer
	errOut io.Writer
	getenv func(string) string

	flags struct {
		api      string
		stateDir string
		logLevel string
	}

	cfg      *config.Config
	logger   zerolog.Logger
	store    *auth.FileStore
	jar      *auth.FileJar
	client   *apiclient.Client
	notifier notification.Notifier
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	a := &app{out: stdout, errOut: stderr, getenv: getenv}

	root := &cobra.Command{
		Use:               "relief",
		Short:             "Relief patient emergency client",
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.api, "api", "", "backend base URL (overrides API_BASE_URL)")
	pf.StringVar(&a.flags.stateDir, "state-dir", "", "directory for the login marker and cookies (overrides STATE_DIR)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	root.AddCommand(serveCmd(a))
	root.AddCommand(loginCmd(a))
	root.AddCommand(registerCmd(a))
	root.AddCommand(logoutCmd(a))
	root.AddCommand(whoamiCmd(a))
	root.AddCommand(requestCmd(a))
	root.AddCommand(profileCmd(a))
	return root
}

// setup loads configuration, applies flag overrides and runs the auth gate
// for the command about to execute.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.flags.api != "" {
		cfg.APIBaseURL = a.flags.api
	}
	if a.flags.stateDir != "" {
		cfg.StateDir = a.flags.stateDir
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	a.cfg = cfg

	level, err := zerolog.ParseLevel(cfg.ResolvedLogLevel("warn"))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: a.errOut}).Level(level).With().Timestamp().Logger()
	a.notifier = notification.NewWriterNotifier(a.out)
	a.store = auth.NewFileStore(cfg.StateDir, auth.NewMarkerCodec(cfg.SessionSecret, cfg.LoginMarkerTTL))

	return a.gate(cmd)
}

var (
	errLoginRequired   = errors.New("you are not logged in; run `relief login` first")
	errAlreadyLoggedIn = errors.New("you are already logged in; run `relief logout` to switch accounts")
)

// gate applies the command's auth annotation, inherited from the nearest
// annotated ancestor.
func (a *app) gate(cmd *cobra.Command) error {
	req := requirementOf(cmd)
	if req == auth.Public {
		return nil
	}
	switch auth.Decide(req, a.store.IsAuthenticated(cmd.Context())) {
	case auth.RedirectToLogin:
		return errLoginRequired
	case auth.RedirectAway:
		return errAlreadyLoggedIn
	default:
		return nil
	}
}

func requirementOf(cmd *cobra.Command) auth.Requirement {
	for c := cmd; c != nil; c = c.Parent() {
		if v, ok := c.Annotations["auth"]; ok {
			return auth.ParseRequirement(v)
		}
	}
	return auth.Public
}

func annotate(req auth.Requirement) map[string]string {
	return map[string]string{"auth": req.String()}
}

// backend returns the API client, building it on first use. The CLI keeps
// backend cookies in a jar under the state directory.
func (a *app) backend() (*apiclient.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	jar, err := a.cookieJar()
	if err != nil {
		return nil, err
	}
	a.client = apiclient.New(apiclient.Config{
		BaseURL: a.cfg.APIBaseURL,
		Timeout: a.cfg.RequestTimeout,
		Jar:     jar,
	}, a.logger, apiclient.WithUnauthorizedHandler(apiclient.UnauthorizedFunc(a.onUnauthorized)))
	return a.client, nil
}

func (a *app) cookieJar() (*auth.FileJar, error) {
	if a.jar != nil {
		return a.jar, nil
	}
	jar, err := auth.OpenFileJar(a.cfg.StateDir)
	if err != nil {
		return nil, err
	}
	a.jar = jar
	return jar, nil
}

// onUnauthorized forgets the local session when the backend rejects it.
func (a *app) onUnauthorized(ctx context.Context) {
	if err := a.store.Logout(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("failed to clear login marker")
	}
	if a.jar != nil {
		if err := a.jar.Clear(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to clear cookies")
		}
	}
}

// userMessage is what the CLI prints for a failed command.
func userMessage(err error) string {
	if ve, ok := validation.As(err); ok {
		return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
	}
	var le *emergency.LocationError
	switch {
	case errors.As(err, &le):
		return le.RetryPrompt() + " (set --lat/--lng or RELIEF_LAT/RELIEF_LNG)"
	case apiclient.IsUnauthorized(err):
		return "You were logged out, please login again."
	case apiclient.IsServerError(err), apiclient.IsTransport(err):
		return "Something went wrong. Please try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The request took too long, please try again."
	}
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}
