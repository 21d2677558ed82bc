package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"expensedash/internal/amqp"
	"expensedash/internal/backend"
	"expensedash/internal/cli"
	"expensedash/internal/config"
	"expensedash/internal/dashboard"
	"expensedash/internal/gateway"
	"expensedash/internal/log"
	"expensedash/internal/session"
)

var errNotLoggedIn = errors.New("not logged in; run `expensedash login` first")

// app is the fully wired object graph for one command invocation.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	gw      *gateway.Client
	session *session.Store
	dash    *dashboard.Controller
	prompt  *cli.Prompter
	render  *cli.Renderer
	events  *amqp.Client
	out     io.Writer
	errOut  io.Writer

	cleanups []func() error
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger, stdin io.Reader, stdout, stderr io.Writer) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: logger,
		out:    stdout,
		errOut: stderr,
		prompt: cli.NewPrompter(stdin, stdout),
		render: cli.NewRenderer(stdout),
	}

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}
	a.cleanups = append(a.cleanups, store.Cleanup)

	a.gw, err = gateway.New(cfg.APIBaseURL,
		gateway.WithHTTPClient(gateway.NewHTTPClient(cfg.HTTPTimeout, logger.WithComponent(log.ComponentGateway))),
		gateway.WithTokenSource(session.StoredToken{KV: store.Storage}),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.session = session.NewStore(ctx, store.Storage, a.gw, logger)

	opts := []dashboard.Option{
		dashboard.WithLogger(logger),
		dashboard.WithSession(a.session),
		dashboard.WithConfirmer(a.prompt),
	}
	if cfg.EventsEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// Events are best effort; the dashboard works without them.
			logger.WarnContext(ctx, "AMQP unavailable, expense events disabled", log.FieldError, err)
		} else {
			a.events = client
			a.cleanups = append(a.cleanups, client.Close)
			opts = append(opts, dashboard.WithEventPublisher(client))
		}
	}
	a.dash = dashboard.New(a.gw, opts...)
	return a, nil
}

func (a *app) requireLogin(ctx context.Context) error {
	if !a.session.IsAuthenticated(ctx) {
		return errNotLoggedIn
	}
	return nil
}

func (a *app) close() {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			a.logger.Warn("Cleanup failed", log.FieldError, err)
		}
	}
	a.cleanups = nil
}
