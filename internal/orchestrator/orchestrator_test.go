package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/streamnode/streamnode/internal/accounts"
	"github.com/streamnode/streamnode/internal/metrics"
	"github.com/streamnode/streamnode/internal/routes"
	"github.com/streamnode/streamnode/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func acct(email string) accounts.Account {
	return accounts.Account{Email: email, Password: "pw"}
}

// capture replaces runSession and records every cell that was started.
type capture struct {
	mu    sync.Mutex
	cells []session.Config
}

func (c *capture) run(_ context.Context, cell session.Config) error {
	c.mu.Lock()
	c.cells = append(c.cells, cell)
	c.mu.Unlock()
	return nil
}

func newTestOrchestrator(cfg Config, accts []accounts.Account, rts []routes.Route) (*Orchestrator, *capture) {
	o := New(cfg, accts, rts, metrics.New(), testLogger())
	rec := &capture{}
	o.runSession = rec.run
	return o, rec
}

func baseConfig(useRoutes bool) Config {
	return Config{
		APIBase:           "https://api.example.com",
		GatewayURL:        "wss://gw.example.com/connect",
		HeartbeatInterval: time.Minute,
		ReconnectDelay:    5 * time.Second,
		UseRoutes:         useRoutes,
	}
}

func TestRun_DirectMode_OneSessionPerAccount(t *testing.T) {
	accts := []accounts.Account{acct("a@x.com"), acct("b@x.com")}
	o, rec := newTestOrchestrator(baseConfig(false), accts, nil)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rec.cells) != 2 {
		t.Fatalf("sessions: got %d, want 2", len(rec.cells))
	}
	for _, cell := range rec.cells {
		if !cell.Route.IsDirect() {
			t.Errorf("account %s: expected direct route, got %q", cell.Account.Email, cell.Route.Proxy)
		}
	}
}

func TestRun_RoutedMode_FullCrossProduct(t *testing.T) {
	accts := []accounts.Account{acct("a@x.com"), acct("b@x.com")}
	rts := []routes.Route{
		{Proxy: "http://p1:8080"},
		{Proxy: "http://p2:8080"},
		{Proxy: "http://p3:8080"},
	}
	o, rec := newTestOrchestrator(baseConfig(true), accts, rts)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(rec.cells) != 6 {
		t.Fatalf("sessions: got %d, want 6 (2 accounts x 3 routes)", len(rec.cells))
	}

	seen := make(map[string]bool)
	for _, cell := range rec.cells {
		seen[cell.Account.Email+"|"+cell.Route.Proxy] = true
	}
	var keys []string
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) != 6 {
		t.Errorf("matrix cells not unique: %v", keys)
	}
}

func TestRun_RoutedMode_RefusesInsufficientRoutes(t *testing.T) {
	accts := []accounts.Account{acct("a@x.com"), acct("b@x.com"), acct("c@x.com")}
	rts := []routes.Route{{Proxy: "http://p1:8080"}, {Proxy: "http://p2:8080"}}
	o, rec := newTestOrchestrator(baseConfig(true), accts, rts)

	err := o.Run(context.Background())
	if !errors.Is(err, ErrNotEnoughRoutes) {
		t.Fatalf("Run: got %v, want ErrNotEnoughRoutes", err)
	}
	if len(rec.cells) != 0 {
		t.Errorf("sessions started before the gate: %d", len(rec.cells))
	}
}

func TestRun_CellsCarryTiming(t *testing.T) {
	cfg := baseConfig(false)
	cfg.HeartbeatInterval = 30 * time.Second
	cfg.ReconnectDelay = 2 * time.Second
	o, rec := newTestOrchestrator(cfg, []accounts.Account{acct("a@x.com")}, nil)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	cell := rec.cells[0]
	if cell.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval: got %v", cell.HeartbeatInterval)
	}
	if cell.ReconnectDelay != 2*time.Second {
		t.Errorf("ReconnectDelay: got %v", cell.ReconnectDelay)
	}
	if cell.GatewayURL != cfg.GatewayURL {
		t.Errorf("GatewayURL: got %q", cell.GatewayURL)
	}
}
