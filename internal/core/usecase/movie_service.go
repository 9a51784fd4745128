package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
	"github.com/atvirokodosprendimai/movieapi/internal/core/ports"
)

type MovieService struct {
	repo   ports.MovieRepository
	schema *SchemaService
}

func NewMovieService(repo ports.MovieRepository, schema *SchemaService) *MovieService {
	return &MovieService{repo: repo, schema: schema}
}

func (s *MovieService) List(ctx context.Context) ([]domain.Movie, error) {
	return s.repo.List(ctx)
}

// Get treats a malformed id the same as an unknown one.
func (s *MovieService) Get(ctx context.Context, id string) (domain.Movie, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Movie{}, domain.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

func (s *MovieService) Create(ctx context.Context, doc json.RawMessage) (domain.Movie, error) {
	data, err := s.decode(ctx, doc)
	if err != nil {
		return domain.Movie{}, err
	}
	return s.repo.Insert(ctx, data)
}

// CreateBatch validates every document first and writes the batch only when
// all of them pass.
func (s *MovieService) CreateBatch(ctx context.Context, docs []json.RawMessage) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	batch := make([]domain.MovieData, 0, len(docs))
	for i, doc := range docs {
		data, err := s.decode(ctx, doc)
		if err != nil {
			return 0, fmt.Errorf("document %d: %w", i, err)
		}
		batch = append(batch, data)
	}
	return s.repo.InsertBatch(ctx, batch)
}

// Update replaces all content fields of the movie. Fields missing from doc
// fail validation rather than keeping their stored values.
func (s *MovieService) Update(ctx context.Context, id string, doc json.RawMessage) (domain.Movie, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Movie{}, domain.ErrNotFound
	}
	data, err := s.decode(ctx, doc)
	if err != nil {
		return domain.Movie{}, err
	}
	return s.repo.Update(ctx, id, data)
}

func (s *MovieService) Delete(ctx context.Context, id string) (domain.Movie, error) {
	if err := domain.ValidateID(id); err != nil {
		return domain.Movie{}, domain.ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func (s *MovieService) DeleteAll(ctx context.Context) error {
	return s.repo.DeleteAll(ctx)
}

func (s *MovieService) AverageRatingByGenre(ctx context.Context) ([]domain.GenreRating, error) {
	return s.repo.AverageRatingByGenre(ctx)
}

// movieDocument mirrors domain.MovieData but accepts integral floats such as
// 1999.0 for the release year, which the schema treats as integers.
type movieDocument struct {
	Title       string  `json:"title"`
	Director    string  `json:"director"`
	Genre       string  `json:"genre"`
	ReleaseYear float64 `json:"releaseYear"`
	Rating      float64 `json:"rating"`
}

func (s *MovieService) decode(ctx context.Context, doc json.RawMessage) (domain.MovieData, error) {
	if err := s.schema.Validate(ctx, domain.MoviesCollection, doc); err != nil {
		return domain.MovieData{}, err
	}
	var m movieDocument
	if err := json.Unmarshal(doc, &m); err != nil {
		return domain.MovieData{}, &domain.ErrSchemaViolation{Errors: []string{err.Error()}}
	}
	return domain.MovieData{
		Title:       m.Title,
		Director:    m.Director,
		Genre:       m.Genre,
		ReleaseYear: int(m.ReleaseYear),
		Rating:      m.Rating,
	}, nil
}
