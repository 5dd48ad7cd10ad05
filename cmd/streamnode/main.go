package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/streamnode/streamnode/internal/accounts"
	"github.com/streamnode/streamnode/internal/config"
	"github.com/streamnode/streamnode/internal/metrics"
	"github.com/streamnode/streamnode/internal/orchestrator"
	"github.com/streamnode/streamnode/internal/routes"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	fmt.Fprintln(os.Stderr, "streamnode — multi-account stream client")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	logger.Info("config loaded",
		"api_base", cfg.Platform.APIBase,
		"gateway", cfg.Platform.GatewayURL,
		"heartbeat", cfg.Client.HeartbeatInterval,
		"reconnect_delay", cfg.Client.ReconnectDelay,
	)

	accts, err := accounts.Load(cfg.Client.AccountsFile)
	if err != nil {
		logger.Error("failed to load accounts", "err", err)
		os.Exit(1)
	}
	if len(accts) == 0 {
		logger.Error("no usable accounts", "path", cfg.Client.AccountsFile)
		os.Exit(1)
	}
	logger.Info("accounts loaded", "count", len(accts))

	useRoutes := resolveUseRoutes(cfg.Client.UseRoutes)

	var rts []routes.Route
	if useRoutes {
		rts, err = routes.Load(cfg.Client.RoutesFile)
		if err != nil {
			logger.Error("failed to load routes", "err", err)
			os.Exit(1)
		}
		logger.Info("routes loaded", "count", len(rts))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := metrics.New()
	if cfg.Metrics.ListenAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", reg)
		srv := &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			logger.Info("metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", "err", err)
			}
		}()
	}

	// Watch the config file for changes. Live sessions keep the snapshot
	// they started with; a reload only logs until the next restart.
	go func() {
		if err := config.Watch(ctx, *configPath, logger, func(updated *config.Config) {
			logger.Info("config updated on disk — restart to apply",
				"heartbeat", updated.Client.HeartbeatInterval)
		}); err != nil {
			logger.Error("config watcher stopped", "err", err)
		}
	}()

	orch := orchestrator.New(orchestrator.Config{
		APIBase:           cfg.Platform.APIBase,
		GatewayURL:        cfg.Platform.GatewayURL,
		HeartbeatInterval: cfg.Client.HeartbeatInterval,
		ReconnectDelay:    cfg.Client.ReconnectDelay,
		UseRoutes:         useRoutes,
	}, accts, rts, reg, logger)

	if err := orch.Run(ctx); err != nil {
		if errors.Is(err, orchestrator.ErrNotEnoughRoutes) {
			logger.Error("not enough routes for the number of accounts",
				"accounts", len(accts), "routes", len(rts))
			os.Exit(1)
		}
		logger.Error("orchestrator stopped", "err", err)
		os.Exit(1)
	}

	logger.Info("streamnode shutting down")
}

// resolveUseRoutes returns the routed-mode setting, letting an interactive
// operator override the config value. Non-interactive runs (pipes, systemd)
// take the config value as-is.
func resolveUseRoutes(fromConfig bool) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fromConfig
	}
	fmt.Fprint(os.Stderr, "Use proxy routes? (y/n): ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fromConfig
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}
