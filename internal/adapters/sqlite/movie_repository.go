package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/movieapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
	"gorm.io/gorm"
)

// insertChunkSize bounds the rows per INSERT statement so large batches stay
// under SQLite's bound-parameter limit.
const insertChunkSize = 1000

type documentModel struct {
	Seq        int64     `gorm:"column:seq;primaryKey;autoIncrement"`
	Collection string    `gorm:"column:collection;not null"`
	ID         string    `gorm:"column:id;not null"`
	Data       string    `gorm:"column:data;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (documentModel) TableName() string {
	return "documents"
}

type genreRatingRow struct {
	Genre         string
	AverageRating float64
}

// MovieRepository keeps movies as JSON documents in the movies collection.
type MovieRepository struct {
	db *gormsqlite.DB
}

func NewMovieRepository(db *gormsqlite.DB) *MovieRepository {
	return &MovieRepository{db: db}
}

func (r *MovieRepository) List(ctx context.Context) ([]domain.Movie, error) {
	var models []documentModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("collection = ?", domain.MoviesCollection).Order("seq ASC").Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}

	movies := make([]domain.Movie, 0, len(models))
	for _, model := range models {
		movie, err := toMovie(model)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, nil
}

func (r *MovieRepository) Get(ctx context.Context, id string) (domain.Movie, error) {
	var model documentModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("collection = ? AND id = ?", domain.MoviesCollection, id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Movie{}, domain.ErrNotFound
		}
		return domain.Movie{}, fmt.Errorf("get movie: %w", err)
	}
	return toMovie(model)
}

func (r *MovieRepository) Insert(ctx context.Context, data domain.MovieData) (domain.Movie, error) {
	model, err := newDocument(domain.NewMovieID(), data, time.Now().UTC())
	if err != nil {
		return domain.Movie{}, err
	}

	err = r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.Movie{}, fmt.Errorf("insert movie: %w", err)
	}
	return domain.Movie{ID: model.ID, MovieData: data}, nil
}

// InsertBatch writes the batch in one transaction. Batches committed by
// earlier calls are not affected by a failure here.
func (r *MovieRepository) InsertBatch(ctx context.Context, batch []domain.MovieData) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	models := make([]documentModel, 0, len(batch))
	for _, data := range batch {
		model, err := newDocument(domain.NewMovieID(), data, now)
		if err != nil {
			return 0, err
		}
		models = append(models, model)
	}

	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.CreateInBatches(&models, insertChunkSize).Error
	})
	if err != nil {
		return 0, fmt.Errorf("insert movie batch: %w", err)
	}
	return len(models), nil
}

func (r *MovieRepository) Update(ctx context.Context, id string, data domain.MovieData) (domain.Movie, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return domain.Movie{}, fmt.Errorf("encode movie: %w", err)
	}

	err = r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		res := tx.Model(&documentModel{}).
			Where("collection = ? AND id = ?", domain.MoviesCollection, id).
			Updates(map[string]any{"data": string(encoded), "updated_at": time.Now().UTC()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Movie{}, err
		}
		return domain.Movie{}, fmt.Errorf("update movie: %w", err)
	}
	return domain.Movie{ID: id, MovieData: data}, nil
}

func (r *MovieRepository) Delete(ctx context.Context, id string) (domain.Movie, error) {
	var deleted domain.Movie
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		var model documentModel
		if err := tx.Where("collection = ? AND id = ?", domain.MoviesCollection, id).First(&model).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}
		movie, err := toMovie(model)
		if err != nil {
			return err
		}
		if err := tx.Delete(&model).Error; err != nil {
			return err
		}
		deleted = movie
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Movie{}, err
		}
		return domain.Movie{}, fmt.Errorf("delete movie: %w", err)
	}
	return deleted, nil
}

func (r *MovieRepository) DeleteAll(ctx context.Context) error {
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("collection = ?", domain.MoviesCollection).Delete(&documentModel{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete all movies: %w", err)
	}
	return nil
}

func (r *MovieRepository) AverageRatingByGenre(ctx context.Context) ([]domain.GenreRating, error) {
	var rows []genreRatingRow
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Model(&documentModel{}).
			Select("json_extract(data, '$.genre') AS genre, AVG(json_extract(data, '$.rating')) AS average_rating").
			Where("collection = ?", domain.MoviesCollection).
			Group("json_extract(data, '$.genre')").
			Order("genre ASC").
			Scan(&rows).Error
	})
	if err != nil {
		return nil, fmt.Errorf("average rating by genre: %w", err)
	}

	result := make([]domain.GenreRating, 0, len(rows))
	for _, row := range rows {
		result = append(result, domain.GenreRating{Genre: row.Genre, AverageRating: row.AverageRating})
	}
	return result, nil
}

func newDocument(id string, data domain.MovieData, now time.Time) (documentModel, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return documentModel{}, fmt.Errorf("encode movie: %w", err)
	}
	return documentModel{
		Collection: domain.MoviesCollection,
		ID:         id,
		Data:       string(encoded),
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func toMovie(model documentModel) (domain.Movie, error) {
	var data domain.MovieData
	if err := json.Unmarshal([]byte(model.Data), &data); err != nil {
		return domain.Movie{}, fmt.Errorf("decode movie %s: %w", model.ID, err)
	}
	return domain.Movie{ID: model.ID, MovieData: data}, nil
}
