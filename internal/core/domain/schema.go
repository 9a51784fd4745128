package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	MinReleaseYear = 1880
	MinRating      = 1.0
	MaxRating      = 10.0
)

// ErrSchemaViolation is returned when a document does not conform to the
// collection's JSON schema. The Errors field contains machine-readable details.
type ErrSchemaViolation struct {
	Errors []string
}

func (e *ErrSchemaViolation) Error() string {
	return fmt.Sprintf("schema validation failed: %s", strings.Join(e.Errors, "; "))
}

// CollectionSchema holds the JSON Schema document configured for a collection.
type CollectionSchema struct {
	Collection string
	Schema     json.RawMessage
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// MovieSchema returns the JSON schema every movie document must satisfy.
// The release year upper bound follows the calendar, so the schema is built
// for the year of now.
func MovieSchema(now time.Time) json.RawMessage {
	nonEmpty := map[string]any{"type": "string", "minLength": 1, "pattern": `\S`}
	schema := map[string]any{
		"$schema":  "http://json-schema.org/draft-07/schema#",
		"title":    "movie",
		"type":     "object",
		"required": []string{"title", "director", "genre", "releaseYear", "rating"},
		"properties": map[string]any{
			"title":    nonEmpty,
			"director": nonEmpty,
			"genre":    nonEmpty,
			"releaseYear": map[string]any{
				"type":    "integer",
				"minimum": MinReleaseYear,
				"maximum": now.Year() + 1,
			},
			"rating": map[string]any{
				"type":    "number",
				"minimum": MinRating,
				"maximum": MaxRating,
			},
		},
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("marshal movie schema: %v", err))
	}
	return raw
}
