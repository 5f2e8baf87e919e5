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
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"markercluster.opengeo.dev/internal/app"
	"markercluster.opengeo.dev/internal/config"
	"markercluster.opengeo.dev/internal/geo"
	"markercluster.opengeo.dev/internal/markers"
	"markercluster.opengeo.dev/internal/report"
	"markercluster.opengeo.dev/internal/utils"
)

const version = "1.0.0"

// configMaxRetries bounds the retry loop when fetching remote config or
// marker bundles at startup.
const configMaxRetries = 3

// demoBounds is where generated markers land when the server starts
// without any configured sources.
var demoBounds = geo.BoundingBox{
	MinLat: 47.5,
	MaxLat: 47.75,
	MinLon: -122.45,
	MaxLon: -122.2,
}

func main() {
	var (
		port = flag.Int("port", 4000, "API server port")
		env  = flag.String("env", "development", "Environment (development|staging|production)")

		configFile  = flag.String("config-file", "", "Path to a local JSON configuration file")
		configURL   = flag.String("config-url", "", "URL to a remote JSON configuration file")
		cacheDir    = flag.String("cache-dir", "cache", "Directory for cached marker bundles")
		demoMarkers = flag.Int("demo-markers", 500, "Number of generated markers when no sources are configured")
	)

	flag.Parse()

	configAuthUser := os.Getenv("CONFIG_AUTH_USER")
	configAuthPass := os.Getenv("CONFIG_AUTH_PASS")

	if err := config.ValidateConfigFlags(configFile, configURL); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	report.SetupSentry()
	defer report.FlushSentry()
	report.ConfigureScope(*env, version)

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	client := app.NewPooledClient()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		doc config.Document
		err error
	)

	switch {
	case *configFile != "":
		doc, err = config.LoadConfigFromFile(*configFile)
	case *configURL != "":
		doc, err = config.LoadConfigFromURL(ctx, client, *configURL, configAuthUser, configAuthPass, configMaxRetries)
	}

	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	if err = config.ValidateSources(doc.Sources); err != nil {
		fmt.Printf("Error validating configuration: %v\n", err)
		os.Exit(1)
	}

	cfg := config.NewConfig(*port, *env, doc)
	application := app.New(cfg, logger, client, *cacheDir, version)

	if err = utils.CreateCacheDirectory(*cacheDir, logger); err != nil {
		logger.Error("Failed to create cache directory", "error", err)
		os.Exit(1)
	}

	sources := cfg.GetSources()
	if len(sources) > 0 {
		application.MarkerService.LoadSources(ctx, sources, configMaxRetries)

		// Cron job to re-download marker bundles for all sources every 24 hours
		go application.MarkerService.RefreshSources(ctx, sources, 24*time.Hour, configMaxRetries)
	} else {
		logger.Info("no marker sources configured, generating markers", "count", *demoMarkers)
		application.MarkerService.Store.Set("generated", markers.Generate(*demoMarkers, demoBounds))
	}

	application.StartEngine()
	application.StartMetricsCollection(ctx, 30*time.Second)

	// If a remote URL is specified, refresh the configuration every minute
	if *configURL != "" {
		go application.ConfigService.RefreshConfig(ctx, *configURL, configAuthUser, configAuthPass, time.Minute, configMaxRetries)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      application.Routes(ctx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	shutdownErr := make(chan error)
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		shutdownErr <- srv.Shutdown(sctx)
	}()

	logger.Info("starting server", "addr", srv.Addr, "env", cfg.Env)

	err = srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		report.ReportError(err, sentry.LevelFatal)
		report.FlushSentry()
		logger.Error(err.Error())
		os.Exit(1)
	}

	if err = <-shutdownErr; err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
