package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
)

func TestSchemaRepositoryUpsertReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewSchemaRepository(newTestDB(t))

	if _, err := repo.Upsert(ctx, domain.CollectionSchema{Collection: "movies", Schema: json.RawMessage(`{"type":"object"}`)}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	first, err := repo.Get(ctx, "movies")
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	saved, err := repo.Upsert(ctx, domain.CollectionSchema{Collection: "movies", Schema: json.RawMessage(`{"type":"array"}`)})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if string(saved.Schema) != `{"type":"array"}` {
		t.Fatalf("unexpected schema: %s", saved.Schema)
	}

	got, err := repo.Get(ctx, "movies")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got.Schema) != `{"type":"array"}` {
		t.Fatalf("unexpected stored schema: %s", got.Schema)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected created_at to be kept, got %s want %s", got.CreatedAt, first.CreatedAt)
	}
}

func TestSchemaRepositoryUpsertSameDefinitionIsNoop(t *testing.T) {
	ctx := context.Background()
	repo := NewSchemaRepository(newTestDB(t))
	schema := domain.CollectionSchema{Collection: "movies", Schema: json.RawMessage(`{"type":"object"}`)}

	if _, err := repo.Upsert(ctx, schema); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	first, err := repo.Get(ctx, "movies")
	if err != nil {
		t.Fatalf("get first: %v", err)
	}
	if _, err := repo.Upsert(ctx, schema); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	again, err := repo.Get(ctx, "movies")
	if err != nil {
		t.Fatalf("get again: %v", err)
	}
	if !again.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("expected updated_at unchanged, got %s want %s", again.UpdatedAt, first.UpdatedAt)
	}
}

func TestSchemaRepositoryGetMissing(t *testing.T) {
	repo := NewSchemaRepository(newTestDB(t))

	_, err := repo.Get(context.Background(), "movies")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
