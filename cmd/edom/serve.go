package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/edom-dev/edom/internal/config"
	"github.com/edom-dev/edom/pkg/edom"
	"github.com/edom-dev/edom/pkg/middleware"
	"github.com/edom-dev/edom/pkg/rows"
	"github.com/edom-dev/edom/pkg/server"
	"github.com/edom-dev/edom/pkg/todo"
)

// apps are the applications serve can run, by name.
var apps = map[string]func(cfg *config.Config) server.App{
	"rows": func(cfg *config.Config) server.App {
		return func() func(*edom.Cursor) {
			return rows.New(rows.WithCount(cfg.Bench.Rows)).Render
		}
	},
	"todo": func(*config.Config) server.App {
		return func() func(*edom.Cursor) {
			return todo.New().Render
		}
	},
}

func appNames() []string {
	names := make([]string, 0, len(apps))
	for name := range apps {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func serveCmd(load func() (*config.Config, error)) *cobra.Command {
	var (
		appName string
		addr    string
		dev     bool
		slow    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a demo application",
		Long: fmt.Sprintf(`Serve a demo application in the browser.

Every page load starts a session with its own engine. Events travel over
a WebSocket and each one comes back as a frame of host operations.

Applications: %s

Examples:
  edom serve
  edom serve --app todo --addr :3000
  edom serve --dev`, strings.Join(appNames(), ", ")),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}
			if dev {
				cfg.Server.DevMode = true
			}
			srv, err := newServer(cmd.Context(), cfg, appName, slow)
			if err != nil {
				return err
			}
			success("Serving %s on %s", appName, cfg.Server.Address)
			return srv.Run()
		},
	}

	cmd.Flags().StringVarP(&appName, "app", "a", "rows", "Application to serve")
	cmd.Flags().StringVar(&addr, "addr", "", "Address to listen on (default from edom.yaml)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Development mode: no client caching")
	cmd.Flags().DurationVar(&slow, "slow", 100*time.Millisecond, "Log cycles slower than this at warn level")

	return cmd
}

// newServer wires cfg into a server for the named application.
func newServer(ctx context.Context, cfg *config.Config, appName string, slow time.Duration) (*server.Server, error) {
	newApp, ok := apps[appName]
	if !ok {
		return nil, fmt.Errorf("unknown app %q (have %s)", appName, strings.Join(appNames(), ", "))
	}

	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	opts := []server.Option{
		server.WithLogger(logger.With("component", "server")),
		server.WithRegistry(reg),
		server.WithEngineOptions(append(cfg.EngineOptions(), edom.WithLogger(logger))...),
		server.WithMiddleware(cycleMiddleware(cfg, reg, logger, slow)...),
	}

	store, err := cfg.OpenSnapshots(ctx)
	if err != nil {
		return nil, err
	}
	if store != nil {
		opts = append(opts, server.WithSnapshots(store))
		info("Snapshots stored with the %s driver", cfg.Snapshot.Driver)
	}

	return server.New(newApp(cfg), cfg.ServerConfig(), opts...), nil
}

// cycleMiddleware returns the configured middleware, outermost first.
func cycleMiddleware(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger, slow time.Duration) []server.Middleware {
	var mws []server.Middleware
	if cfg.Tracing.Enabled {
		mws = append(mws, middleware.OpenTelemetry(
			middleware.WithTracerName(cfg.Tracing.TracerName),
		))
	}
	if cfg.Metrics.Enabled {
		mws = append(mws, middleware.Prometheus(
			middleware.WithNamespace(cfg.Metrics.Namespace),
			middleware.WithRegistry(reg),
		))
	}
	return append(mws, middleware.Logging(logger, slow))
}
