package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/streamnode/streamnode/internal/accounts"
	"github.com/streamnode/streamnode/internal/metrics"
	"github.com/streamnode/streamnode/internal/platform"
	"github.com/streamnode/streamnode/internal/routes"
	"github.com/streamnode/streamnode/internal/session"
)

// ErrNotEnoughRoutes is returned when routed mode is enabled with fewer
// routes than accounts. It fires before any session starts and the caller
// treats it as fatal.
var ErrNotEnoughRoutes = errors.New("orchestrator: not enough routes for the number of accounts")

// Config carries everything the fan-out needs to build sessions.
type Config struct {
	APIBase           string
	GatewayURL        string
	HeartbeatInterval time.Duration
	ReconnectDelay    time.Duration

	// UseRoutes switches between direct mode (one session per account) and
	// routed mode (every account fanned out across every route).
	UseRoutes bool
}

// Orchestrator fans sessions out across the account × route matrix and owns
// their collective lifetime.
type Orchestrator struct {
	cfg      Config
	accounts []accounts.Account
	routes   []routes.Route
	reg      *metrics.Registry
	log      *slog.Logger

	// runSession starts one session and blocks until it ends.
	// Injectable for tests.
	runSession func(ctx context.Context, cell session.Config) error
}

// New builds an Orchestrator over the given account and route lists. Both
// lists are read-only from here on.
func New(cfg Config, accts []accounts.Account, rts []routes.Route, reg *metrics.Registry, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		accounts: accts,
		routes:   rts,
		reg:      reg,
		log:      log,
	}
	o.runSession = o.startSession
	return o
}

// Run computes the session matrix and starts every cell concurrently, with
// no throttling. It blocks until all sessions end (normally only at process
// shutdown, since sessions reconnect forever).
//
// In routed mode the matrix is the full cross-product: every account gets
// one session per loaded route. The routes >= accounts gate runs first, as a
// capacity floor, before any session starts.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.cfg.UseRoutes && len(o.routes) < len(o.accounts) {
		return ErrNotEnoughRoutes
	}

	cells := o.matrix()
	o.log.Info("starting sessions",
		"accounts", len(o.accounts),
		"routes", len(o.routes),
		"routed", o.cfg.UseRoutes,
		"sessions", len(cells),
	)

	g, ctx := errgroup.WithContext(ctx)
	for _, cell := range cells {
		cell := cell
		g.Go(func() error { return o.runSession(ctx, cell) })
	}
	return g.Wait()
}

// matrix expands the configured fan-out shape into session configs.
func (o *Orchestrator) matrix() []session.Config {
	var cells []session.Config
	for _, acct := range o.accounts {
		if !o.cfg.UseRoutes {
			cells = append(cells, o.cell(acct, routes.Direct))
			continue
		}
		for _, rt := range o.routes {
			cells = append(cells, o.cell(acct, rt))
		}
	}
	return cells
}

func (o *Orchestrator) cell(acct accounts.Account, rt routes.Route) session.Config {
	return session.Config{
		Account:           acct,
		Route:             rt,
		GatewayURL:        o.cfg.GatewayURL,
		HeartbeatInterval: o.cfg.HeartbeatInterval,
		ReconnectDelay:    o.cfg.ReconnectDelay,
	}
}

// startSession is the production runSession: build the session with a
// platform client egressing via its route and run it to completion. Session
// construction failures are contained to the one cell.
func (o *Orchestrator) startSession(ctx context.Context, cell session.Config) error {
	api := platform.New(o.cfg.APIBase, cell.Route)
	s, err := session.New(cell, api, o.reg, o.log)
	if err != nil {
		o.log.Error("could not build session",
			"account", cell.Account.Email,
			"route", cell.Route.Label(),
			"err", err,
		)
		return nil
	}
	return s.Run(ctx)
}
