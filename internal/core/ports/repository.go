package ports

import (
	"context"

	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
)

type MovieRepository interface {
	List(ctx context.Context) ([]domain.Movie, error)
	Get(ctx context.Context, id string) (domain.Movie, error)
	Insert(ctx context.Context, data domain.MovieData) (domain.Movie, error)
	InsertBatch(ctx context.Context, batch []domain.MovieData) (int, error)
	Update(ctx context.Context, id string, data domain.MovieData) (domain.Movie, error)
	Delete(ctx context.Context, id string) (domain.Movie, error)
	DeleteAll(ctx context.Context) error
	AverageRatingByGenre(ctx context.Context) ([]domain.GenreRating, error)
}
