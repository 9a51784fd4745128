package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atvirokodosprendimai/movieapi/internal/app"
	"github.com/atvirokodosprendimai/movieapi/internal/core/usecase"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "movieapi",
		Usage: "REST API over a movie document collection",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   ":3000",
				Sources: cli.EnvVars("MOVIES_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Value:   "./movies.sqlite",
				Sources: cli.EnvVars("MOVIES_DB_PATH"),
				Usage:   "SQLite file path or DSN of the document store",
			},
			&cli.StringFlag{
				Name:    "seed-file",
				Value:   "./data/generated.json",
				Sources: cli.EnvVars("MOVIES_SEED_FILE"),
				Usage:   "JSON array of movies loaded by the reseed endpoint",
			},
			&cli.IntFlag{
				Name:    "batch-size",
				Value:   usecase.DefaultBatchSize,
				Sources: cli.EnvVars("MOVIES_SEED_BATCH_SIZE"),
				Usage:   "Documents per insert during reseed",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Sources: cli.EnvVars("MOVIES_LOG_LEVEL"),
				Usage:   "Log level: debug, info, warn or error",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Value:   "text",
				Sources: cli.EnvVars("MOVIES_LOG_FORMAT"),
				Usage:   "Log format: text or json",
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the HTTP API",
				Action: serve,
			},
			{
				Name:      "seed",
				Usage:     "Replace all movies with the contents of a JSON array",
				ArgsUsage: "[file|-]",
				Action:    seed,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("movieapi failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func config(c *cli.Command) (app.Config, error) {
	logger, err := newLogger(c.String("log-level"), c.String("log-format"), os.Stderr)
	if err != nil {
		return app.Config{}, err
	}
	slog.SetDefault(logger)

	return app.Config{
		Addr:      c.String("addr"),
		DBPath:    c.String("db-path"),
		SeedFile:  c.String("seed-file"),
		BatchSize: int(c.Int("batch-size")),
		Logger:    logger,
	}, nil
}

func newLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch format {
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

func serve(ctx context.Context, c *cli.Command) error {
	cfg, err := config(c)
	if err != nil {
		return err
	}
	logger := cfg.Logger

	server, closer, err := app.NewServer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			logger.Error("close resources", slog.Any("error", closeErr))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return shutdown(server)
	case sig := <-sigCh:
		logger.Info("received signal", slog.String("signal", sig.String()))
		return shutdown(server)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func shutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func seed(ctx context.Context, c *cli.Command) error {
	cfg, err := config(c)
	if err != nil {
		return err
	}

	path := c.Args().First()
	if path == "" {
		path = cfg.SeedFile
	}

	var src io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open seed file: %w", err)
		}
		defer f.Close()
		src = f
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rt.Close(); closeErr != nil {
			cfg.Logger.Error("close resources", slog.Any("error", closeErr))
		}
	}()

	result, err := rt.Ingest.Ingest(ctx, bufio.NewReader(src))
	if err != nil {
		return fmt.Errorf("seed movies: %w", err)
	}

	fmt.Fprintf(os.Stdout, "inserted %d movies in %d batches\n", result.InsertedCount, result.Batches)
	return nil
}
