package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ripplekit/ripple/internal/config"
	"github.com/ripplekit/ripple/pkg/component"
	"github.com/ripplekit/ripple/pkg/middleware"
	"github.com/ripplekit/ripple/pkg/server"
)

func serveCmd() *cobra.Command {
	var configPath string
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the live server",
		Long: `Run the Ripple live server.

Each WebSocket connection on /live gets its own reactive session.
Configuration is read from ripple.yaml (or --config), with
RIPPLE_ADDR and RIPPLE_LOG_LEVEL environment overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Address = addr
			}

			logger := newLogger(cfg)
			slog.SetDefault(logger)

			srvCfg := server.DefaultConfig().
				WithAddress(cfg.Server.Address).
				WithMaxSessions(cfg.Server.MaxSessions)
			srvCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout.Std()
			srvCfg.Session.HeartbeatInterval = cfg.Server.HeartbeatInterval.Std()
			srvCfg.Session.FlushBudget = cfg.Server.FlushBudget
			if cfg.Server.AllowAllOrigins {
				srvCfg.CheckOrigin = server.AllowAllOrigins
			}

			mw := []func(http.Handler) http.Handler{
				middleware.Tracing(),
			}
			if cfg.Metrics.Enabled {
				mw = append(mw, middleware.Prometheus(
					middleware.WithNamespace(cfg.Metrics.Namespace),
				))
			}

			srv := server.New(srvCfg,
				server.WithLogger(logger),
				server.WithHTTPMiddleware(mw...),
				server.WithSessionSetup(counterSession),
			)

			printBanner()
			success("listening on %s", cfg.Server.Address)
			info("live endpoint at ws://%s/live", cfg.Server.Address)

			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logger.Info("shutdown signal received", "signal", sig.String())
			}

			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (overrides config)")

	return cmd
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// asInt coerces a state value to int. Counts written by a client set
// frame arrive as JSON numbers (float64); anything non-numeric counts
// as zero.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

// counterSession is the default demo: a counter node whose increment and
// decrement events drive a bound "count" value.
func counterSession(s *server.Session) {
	s.State().Set("count", 0)

	counter := component.NewNode("counter")
	if err := s.Root().AppendChild(counter); err != nil {
		return
	}
	s.RegisterNode("counter", counter)

	step := func(delta int) {
		n := asInt(s.State().Get("count"))
		s.State().Set("count", n+delta)
	}
	counter.On("increment", func(args ...any) bool {
		step(1)
		return false
	})
	counter.On("decrement", func(args ...any) bool {
		step(-1)
		return false
	})

	s.Bind("count", func() any {
		v := s.State().Get("count")
		return v
	})
}
