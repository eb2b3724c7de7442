package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/geocoder89/marketlink/internal/api"
	"github.com/geocoder89/marketlink/internal/config"
	"github.com/geocoder89/marketlink/internal/domain/user"
	"github.com/geocoder89/marketlink/internal/observability"
	"github.com/geocoder89/marketlink/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var errNotLoggedIn = errors.New("not logged in; run 'marketlink login' first")

// app is the process-wide wiring shared by every command.
type app struct {
	out    io.Writer
	errOut io.Writer

	// flags
	apiURL  string
	asJSON  bool
	verbose bool

	cfg     config.Config
	log     *slog.Logger
	sess    *session.Session
	client  *api.Client
	metrics *observability.ClientMetrics
	rl      *readline.Instance

	closers []func(context.Context) error
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "marketlink",
		Short:         "Browse, sell and rate on the marketplace from your terminal",
		Version:       observability.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "marketplace API base URL (overrides MARKETLINK_API_URL)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print results as JSON")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log API calls to stderr")

	root.AddCommand(
		newSignupCmd(a),
		newVerifyCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newProductsCmd(a),
		newUsersCmd(a),
		newProfileCmd(a),
		newRateCmd(a),
		newContactCmd(a),
		newSubscribeCmd(a),
		newAboutCmd(a),
		newHelpCenterCmd(a),
		newShellCmd(a),
	)
	return root
}

// open loads config and builds the session, tracer and API client once.
func (a *app) open(ctx context.Context) error {
	if a.client != nil {
		return nil
	}

	a.cfg = config.Load()
	if a.apiURL != "" {
		a.cfg.APIURL = strings.TrimRight(a.apiURL, "/")
	}

	a.log = observability.NewLogger(a.cfg.Env, observability.LoggerOptions{
		Out:   a.errOut,
		Text:  true,
		Quiet: !a.verbose,
	})

	shutdownTracer, err := observability.InitTracer(ctx, "marketlink-cli", a.cfg.OTELEndpoint)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, shutdownTracer)

	sess, closeSession, err := session.Open(a.cfg)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return closeSession() })
	a.sess = sess

	a.metrics = observability.NewClientMetrics(prometheus.NewRegistry())
	a.client = api.New(a.cfg.APIURL, sess, api.Options{
		Timeout: a.cfg.APITimeout,
		Logger:  a.log,
		Metrics: a.metrics,
	})

	a.log.Debug("client ready", "api_url", a.cfg.APIURL, "session_backend", a.cfg.SessionBackend)
	return nil
}

func (a *app) close() {
	if a.rl != nil {
		_ = a.rl.Close()
		a.rl = nil
	}

	ctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && a.log != nil {
			a.log.Warn("shutdown step failed", "err", err)
		}
	}
	a.closers = nil
}

func (a *app) render() renderer {
	return renderer{out: a.out, asJSON: a.asJSON}
}

// me is the logged-in user or errNotLoggedIn.
func (a *app) me(ctx context.Context) (*user.User, error) {
	u, err := a.sess.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errNotLoggedIn
	}
	return u, nil
}

// line returns the shared readline instance, creating it on first use.
func (a *app) line() (*readline.Instance, error) {
	if a.rl != nil {
		return a.rl, nil
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}
	a.rl = rl
	return rl, nil
}

// ask reads one line after prompt.
func (a *app) ask(prompt string) (string, error) {
	rl, err := a.line()
	if err != nil {
		return "", err
	}
	rl.SetPrompt(prompt)
	input, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}

// askSecret reads a line without echo.
func (a *app) askSecret(prompt string) (string, error) {
	rl, err := a.line()
	if err != nil {
		return "", err
	}
	b, err := rl.ReadPassword(prompt)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// confirm asks a yes/no question; anything but y/yes is no.
func (a *app) confirm(prompt string) bool {
	answer, err := a.ask(prompt + " [y/N] ")
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}
