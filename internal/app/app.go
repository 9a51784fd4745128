package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/atvirokodosprendimai/movieapi/internal/adapters/httpapi"
	"github.com/atvirokodosprendimai/movieapi/internal/adapters/metrics"
	sqliteadapter "github.com/atvirokodosprendimai/movieapi/internal/adapters/sqlite"
	"github.com/atvirokodosprendimai/movieapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
	"github.com/atvirokodosprendimai/movieapi/internal/core/usecase"
	"github.com/atvirokodosprendimai/movieapi/migrations"
)

const metricsNamespace = "movieapi"

type Config struct {
	Addr      string
	DBPath    string
	SeedFile  string
	BatchSize int
	Logger    *slog.Logger
}

// Runtime is the wired core of the service: an open store, the movie and
// ingest services and the metrics registry. Close releases the store.
type Runtime struct {
	Movies   *usecase.MovieService
	Ingest   *usecase.IngestService
	Registry *prometheus.Registry

	closer io.Closer
}

func (rt *Runtime) Close() error {
	return rt.closer.Close()
}

// Open connects to the store, applies migrations and installs the movie
// schema. It fails fast when the store is unusable.
func Open(ctx context.Context, cfg Config) (*Runtime, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	db, err := gormsqlite.Open(ctx, cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	writeSQLDB, err := db.WriteSQLDB()
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("resolve writer sql db: %w", err)
	}

	setupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	version, err := migrations.Up(setupCtx, writeSQLDB)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("database ready", slog.String("path", cfg.DBPath), slog.Int64("schema_version", version))

	schemaService := usecase.NewSchemaService(sqliteadapter.NewSchemaRepository(db))
	if _, err := schemaService.Install(setupCtx, domain.MoviesCollection, domain.MovieSchema(time.Now())); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("install movie schema: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	observer := metrics.NewIngestObserver(metricsNamespace, registry)

	movieService := usecase.NewMovieService(sqliteadapter.NewMovieRepository(db), schemaService)
	ingestService := usecase.NewIngestService(movieService, observer, logger, cfg.BatchSize)

	return &Runtime{
		Movies:   movieService,
		Ingest:   ingestService,
		Registry: registry,
		closer:   db,
	}, nil
}

func NewServer(ctx context.Context, cfg Config) (*http.Server, io.Closer, error) {
	rt, err := Open(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	handler := httpapi.NewHandler(rt.Movies, rt.Ingest, httpapi.Config{
		SeedFile: cfg.SeedFile,
		Metrics:  metrics.Handler(rt.Registry),
		Logger:   cfg.Logger,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, rt, nil
}
