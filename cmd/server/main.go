// Command server is the Trellis LDP server's entrypoint: load config,
// wire every collaborator once, build the router, run with graceful
// shutdown on SIGTERM.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"github.com/trellis-ldp/trellis-core/application/audit"
	"github.com/trellis-ldp/trellis-core/application/eventing"
	"github.com/trellis-ldp/trellis-core/application/pipeline"
	"github.com/trellis-ldp/trellis-core/domain/rdf"
	"github.com/trellis-ldp/trellis-core/infrastructure/config"
	"github.com/trellis-ldp/trellis-core/infrastructure/constraint"
	"github.com/trellis-ldp/trellis-core/infrastructure/messaging"
	"github.com/trellis-ldp/trellis-core/infrastructure/metrics"
	"github.com/trellis-ldp/trellis-core/infrastructure/persistence/binary"
	"github.com/trellis-ldp/trellis-core/infrastructure/persistence/triplestore"
	"github.com/trellis-ldp/trellis-core/infrastructure/rdfio"
	"github.com/trellis-ldp/trellis-core/interfaces/http/handlers"
	"github.com/trellis-ldp/trellis-core/interfaces/http/rest"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfgManager, err := config.NewManager(cfg, os.Getenv("CONFIG_FILE"), logger)
	if err != nil {
		logger.Fatal("failed to start configuration manager", zap.Error(err))
	}
	cfgManager.Start()
	defer cfgManager.Stop()

	conn, err := newConnection(cfg)
	if err != nil {
		logger.Fatal("failed to open triplestore connection", zap.Error(err))
	}

	resourceSvc := triplestore.NewServiceWithOptions(conn, cfg.VersioningEnabled)
	if err := resourceSvc.Initialize(ctx, rdf.IRI(internalRoot)); err != nil {
		logger.Fatal("failed to bootstrap root container", zap.Error(err))
	}

	binarySvc, err := binary.New(cfg.BinaryStorageRoot)
	if err != nil {
		logger.Fatal("failed to open binary storage", zap.Error(err))
	}

	tracerProvider := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tracerProvider)
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracer provider shutdown error", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	transport := messaging.NewLoggingTransport(logger)
	dispatcher := messaging.NewDispatcher(transport, logger)
	emitter := eventing.NewEmitter(dispatcher, resourceSvc.Touch)

	h := handlers.New(handlers.Deps{
		Resource:   resourceSvc,
		Binary:     binarySvc,
		IO:         rdfio.New(),
		Constraint: constraint.New(),
		Audit:      audit.New(),
		Events:     emitter,
		Config:     cfg,
		Logger:     logger,
		BaseURL:    cfg.BaseURL,
	})

	p := pipeline.New(logger)
	p.Use(pipeline.NewTracingBehavior("github.com/trellis-ldp/trellis-core"))
	p.Use(pipeline.NewLoggingBehavior(logger))
	p.Use(pipeline.NewMetricsBehavior(m))
	p.Use(pipeline.NewPerformanceBehavior(logger, 1*time.Second))

	router := rest.NewRouter(h, p, cfg, logger)
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("baseURL", cfg.BaseURL),
			zap.String("environment", cfg.Environment))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	log.Println("server stopped")
}

// internalRoot is the internal identifier Initialize bootstraps as the
// root BasicContainer — trellis:data/, the empty path under
// internalBase.
const internalRoot = "trellis:data/"

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newConnection picks the Connection backend from
// cfg.TriplestoreLocation: empty for in-memory, an http(s):// URL for
// a remote dataset endpoint, anything else as an embedded bbolt file
// path.
func newConnection(cfg *config.Config) (triplestore.Connection, error) {
	switch {
	case cfg.TriplestoreLocation == "":
		return triplestore.NewMemoryConnection(), nil
	case strings.HasPrefix(cfg.TriplestoreLocation, "http://") || strings.HasPrefix(cfg.TriplestoreLocation, "https://"):
		return triplestore.NewRemoteConnection(cfg.TriplestoreLocation, nil), nil
	default:
		return triplestore.OpenBoltConnection(cfg.TriplestoreLocation)
	}
}
