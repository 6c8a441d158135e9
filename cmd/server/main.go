/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the roster engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and the YAML config file
  2. Initialize the store (SQLite or in-memory)
  3. Wire metrics, event publishing and the planner
  4. Configure HTTP router and the weekly scheduler
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (default: built-in defaults)
  -port    HTTP server port, overrides server.port
  -db      SQLite database path, overrides store.path
           Use ":memory:" for in-memory database
  -print-config  Print the default config file and exit

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close the event connection and the database

EXAMPLES:
  # Run with a config file
  ./server -config=roster.yaml

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - config/config.go: Config file format and defaults
  - api/server.go: Router configuration
  - api/scheduler.go: Weekly generation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/roster-engine/api"
	"github.com/warp/roster-engine/config"
	"github.com/warp/roster-engine/metrics"
	"github.com/warp/roster-engine/notify"
	"github.com/warp/roster-engine/planning"
	"github.com/warp/roster-engine/roster"
	"github.com/warp/roster-engine/roster/store"
	"github.com/warp/roster-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	printConfig := flag.Bool("print-config", false, "Print the default config and exit")
	flag.Parse()

	if *printConfig {
		fmt.Print(config.DefaultYAML)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Store.Driver, cfg.Store.Path = "sqlite", *dbPath
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Initialize store
	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer closeStore()

	// Metrics
	var (
		collector      metrics.Collector = metrics.NewNop()
		metricsHandler http.Handler
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		collector = metrics.NewPrometheus(reg, cfg.Metrics.Namespace)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	// Events
	var publisher notify.Publisher = notify.NewNop()
	if cfg.NATS.URL != "" {
		nc, err := notify.Connect(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()
		publisher = nc
		logger.Info("publishing plan events", "url", cfg.NATS.URL, "prefix", cfg.NATS.SubjectPrefix)
	}

	planner := planning.New(st, planning.Options{
		Logger:    logger,
		Metrics:   collector,
		Publisher: publisher,
		Report:    roster.ReportOptions{GroupOrder: cfg.Report.GroupOrder},
		Equipment: roster.MatchOptions{SharedPool: cfg.Equipment.SharedPool},
	})
	mode, err := planning.ParseMode(cfg.Scheduler.Mode)
	if err != nil {
		return err
	}

	handler := api.NewHandler(st, planner, logger)
	handler.DefaultMode = mode
	router := api.NewRouter(handler, api.RouterOptions{
		CORSOrigins: cfg.Server.CORSOrigins,
		Metrics:     metricsHandler,
	})

	// Scheduler
	tenants := make([]roster.TenantID, len(cfg.Scheduler.Tenants))
	for i, t := range cfg.Scheduler.Tenants {
		tenants[i] = roster.TenantID(t)
	}
	scheduler := api.NewWeeklyScheduler(planner, tenants)
	scheduler.Mode = mode
	scheduler.CheckInterval = cfg.Scheduler.Interval
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.Log = logger
	scheduler.Metrics = collector
	scheduler.Start()
	defer scheduler.Stop()

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "store", cfg.Store.Driver, "metrics", cfg.Metrics.Enabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errc:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func openStore(cfg config.StoreConfig) (api.Store, func(), error) {
	switch cfg.Driver {
	case "memory":
		return store.NewMemory(), func() {}, nil
	default:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, nil, err
			}
		}
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { s.Close() }, nil
	}
}
