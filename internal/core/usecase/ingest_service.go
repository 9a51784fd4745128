package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/atvirokodosprendimai/movieapi/internal/core/ports"
)

const DefaultBatchSize = 500

type IngestResult struct {
	InsertedCount int
	Batches       int
}

// IngestService reseeds the movie collection from a JSON array stream.
//
// Parsing and inserting run as a producer and a consumer joined by unbuffered
// channels. After handing over a full batch the producer waits for the
// consumer's acknowledgement before it parses further, so at most one batch is
// held in memory and at most one insert is in flight per ingest.
//
// Concurrent ingests are not coordinated; two reseeds running at once
// interleave their clears and inserts.
type IngestService struct {
	movies    *MovieService
	observer  ports.IngestObserver
	logger    *slog.Logger
	batchSize int
}

func NewIngestService(movies *MovieService, observer ports.IngestObserver, logger *slog.Logger, batchSize int) *IngestService {
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &IngestService{movies: movies, observer: observer, logger: logger, batchSize: batchSize}
}

func (s *IngestService) BatchSize() int {
	return s.batchSize
}

// Ingest clears the collection and inserts every element of the array read
// from src. Batches inserted before a failure stay committed; the returned
// result counts them.
func (s *IngestService) Ingest(ctx context.Context, src io.Reader) (IngestResult, error) {
	started := time.Now()
	result, err := s.run(ctx, src)
	s.observer.IngestFinished(result.InsertedCount, err)

	if err != nil {
		s.logger.ErrorContext(ctx, "movie ingest failed",
			slog.Int("inserted", result.InsertedCount),
			slog.Int("batches", result.Batches),
			slog.Any("error", err),
		)
		return result, err
	}
	s.logger.InfoContext(ctx, "movie ingest completed",
		slog.Int("inserted", result.InsertedCount),
		slog.Int("batches", result.Batches),
		slog.Duration("duration", time.Since(started)),
	)
	return result, nil
}

func (s *IngestService) run(ctx context.Context, src io.Reader) (IngestResult, error) {
	var result IngestResult
	if err := s.movies.DeleteAll(ctx); err != nil {
		return result, fmt.Errorf("clear movies: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan []json.RawMessage)
	acks := make(chan struct{})

	g.Go(func() error {
		defer close(batches)
		return s.produce(gctx, newArrayDecoder(src), batches, acks)
	})
	g.Go(func() error {
		return s.consume(gctx, batches, acks, &result)
	})

	err := g.Wait()
	return result, err
}

func (s *IngestService) produce(ctx context.Context, dec *arrayDecoder, batches chan<- []json.RawMessage, acks <-chan struct{}) error {
	buf := make([]json.RawMessage, 0, s.batchSize)

	flush := func() error {
		select {
		case batches <- buf:
		case <-ctx.Done():
			return ctx.Err()
		}
		// Paused until the consumer is done with buf.
		select {
		case <-acks:
		case <-ctx.Done():
			return ctx.Err()
		}
		buf = buf[:0]
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		buf = append(buf, doc)
		if len(buf) >= s.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if len(buf) > 0 {
		return flush()
	}
	return nil
}

func (s *IngestService) consume(ctx context.Context, batches <-chan []json.RawMessage, acks chan<- struct{}, result *IngestResult) error {
	for batch := range batches {
		started := time.Now()
		n, err := s.movies.CreateBatch(ctx, batch)
		if err != nil {
			return fmt.Errorf("insert batch %d: %w", result.Batches+1, err)
		}
		result.InsertedCount += n
		result.Batches++
		s.observer.BatchInserted(n, time.Since(started))

		select {
		case acks <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

type noopObserver struct{}

func (noopObserver) BatchInserted(int, time.Duration) {}
func (noopObserver) IngestFinished(int, error)       {}
