/*
main.go - Application entry point

PURPOSE:
  Builds the loan fact table and serves the dashboard API.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load configuration (defaults, YAML file, LOANS_* environment)
  3. Open the configured source
  4. Build the initial fact table
  5. Configure HTTP router and refresh scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config   YAML configuration file (optional)
  -port     HTTP server port (overrides server.port)
  -source   sample | csv | xlsx | sqlite (overrides data.kind)
  -data     CSV directory, workbook or database path (overrides data.path)
  -geojson  Boundary file for /api/map (overrides data.geojson)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the refresh scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (server.shutdown_timeout)
  4. Close the source
  5. Exit

EXAMPLES:
  # Run on the bundled sample data
  ./server

  # Run on a directory of CSV extracts
  ./server -source=csv -data=./data -geojson=./data/us-states.geojson

  # Run from a SQLite import on a different port
  ./server -source=sqlite -data=./data/loans.db -port=3000

ENVIRONMENT:
  LOANS_SERVER_PORT, LOANS_DATA_KIND, LOANS_DATA_PATH, LOANS_LOGGING_LEVEL, ...
  See config/config.go for the full list. Flags win over the environment.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - app/app.go: Source and build wiring
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/warp/loan-insights/api"
	"github.com/warp/loan-insights/app"
	"github.com/warp/loan-insights/config"
	"github.com/warp/loan-insights/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Flags
	configPath := flag.String("config", "", "YAML configuration file")
	port := flag.Int("port", 0, "HTTP server port")
	kind := flag.String("source", "", "Data source kind: sample, csv, xlsx or sqlite")
	dataPath := flag.String("data", "", "CSV directory, XLSX workbook or SQLite database")
	geoPath := flag.String("geojson", "", "GeoJSON boundary file for the choropleth")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	cfg = cfg.With(config.Overrides{
		Port:    *port,
		Kind:    *kind,
		Path:    *dataPath,
		GeoJSON: *geoPath,
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	// Initialize source
	src, closer, err := app.OpenSource(cfg.Data)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer closer.Close()

	// Initialize handler
	handler := api.NewHandler(api.Options{
		Build:       app.Builder(cfg.Data, src, logger),
		GeoJSONPath: cfg.Data.GeoJSON,
		Logger:      logger,
	})

	// Build the fact table before accepting traffic
	if _, err := handler.Reload(context.Background()); err != nil {
		return fmt.Errorf("failed to build fact table: %w", err)
	}

	scheduler := api.NewRefreshScheduler(handler, cfg.Data.RefreshInterval, logger)
	scheduler.Start()
	defer scheduler.Stop()

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{AllowedOrigins: cfg.Server.AllowedOrigins})

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			zap.String("addr", server.Addr),
			zap.String("source", src.Name()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-quit:
		logger.Info("Shutting down server", zap.String("signal", sig.String()))
	}

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return nil
}
