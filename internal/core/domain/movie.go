package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

const MoviesCollection = "movies"

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
)

// MovieData holds the content fields of a movie. It is what callers submit on
// create and update; the store assigns the ID.
type MovieData struct {
	Title       string  `json:"title"`
	Director    string  `json:"director"`
	Genre       string  `json:"genre"`
	ReleaseYear int     `json:"releaseYear"`
	Rating      float64 `json:"rating"`
}

type Movie struct {
	ID string `json:"id"`
	MovieData
}

type GenreRating struct {
	Genre         string  `json:"genre"`
	AverageRating float64 `json:"averageRating"`
}

func NewMovieID() string {
	return uuid.NewString()
}

// ValidateID reports ErrInvalidID for anything that is not a canonical UUID.
func ValidateID(id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed.String() != strings.ToLower(id) {
		return ErrInvalidID
	}
	return nil
}
