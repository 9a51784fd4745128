package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	santhosh "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
	"github.com/atvirokodosprendimai/movieapi/internal/core/ports"
)

// SchemaService keeps one JSON schema per collection in the store and checks
// documents against it before they are written.
type SchemaService struct {
	repo     ports.CollectionSchemaRepository
	compiled sync.Map // collection → *santhosh.Schema
}

func NewSchemaService(repo ports.CollectionSchemaRepository) *SchemaService {
	return &SchemaService{repo: repo}
}

// Install replaces the schema of collection. The definition must compile as
// a draft-07 schema.
func (s *SchemaService) Install(ctx context.Context, collection string, definition json.RawMessage) (domain.CollectionSchema, error) {
	if collection == "" {
		return domain.CollectionSchema{}, errors.New("collection is required")
	}
	if !json.Valid(definition) {
		return domain.CollectionSchema{}, errors.New("schema must be valid json")
	}
	sch, err := compile(definition)
	if err != nil {
		return domain.CollectionSchema{}, fmt.Errorf("invalid json schema: %w", err)
	}

	s.compiled.Delete(collection)
	saved, err := s.repo.Upsert(ctx, domain.CollectionSchema{Collection: collection, Schema: definition})
	if err != nil {
		return domain.CollectionSchema{}, err
	}
	s.compiled.Store(collection, sch)
	return saved, nil
}

func (s *SchemaService) Get(ctx context.Context, collection string) (domain.CollectionSchema, error) {
	return s.repo.Get(ctx, collection)
}

// Validate checks doc against the schema of collection. Collections without a
// schema accept anything. A rejected document yields *domain.ErrSchemaViolation.
func (s *SchemaService) Validate(ctx context.Context, collection string, doc json.RawMessage) error {
	sch, err := s.schemaFor(ctx, collection)
	if err != nil || sch == nil {
		return err
	}

	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return &domain.ErrSchemaViolation{Errors: []string{"document is not valid json"}}
	}
	err = sch.Validate(v)
	if err == nil {
		return nil
	}
	var ve *santhosh.ValidationError
	if errors.As(err, &ve) {
		return &domain.ErrSchemaViolation{Errors: violations(ve, nil)}
	}
	return &domain.ErrSchemaViolation{Errors: []string{err.Error()}}
}

func (s *SchemaService) schemaFor(ctx context.Context, collection string) (*santhosh.Schema, error) {
	if sch, ok := s.compiled.Load(collection); ok {
		return sch.(*santhosh.Schema), nil
	}

	stored, err := s.repo.Get(ctx, collection)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	sch, err := compile(stored.Schema)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	s.compiled.Store(collection, sch)
	return sch, nil
}

func compile(definition json.RawMessage) (*santhosh.Schema, error) {
	compiler := santhosh.NewCompiler()
	compiler.Draft = santhosh.Draft7
	if err := compiler.AddResource("schema.json", bytes.NewReader(definition)); err != nil {
		return nil, err
	}
	return compiler.Compile("schema.json")
}

// violations flattens the cause tree into "<field>: <message>" lines, one per
// leaf.
func violations(ve *santhosh.ValidationError, out []string) []string {
	if len(ve.Causes) == 0 {
		field := ve.InstanceLocation
		if field == "" {
			field = "/"
		}
		return append(out, field+": "+ve.Message)
	}
	for _, cause := range ve.Causes {
		out = violations(cause, out)
	}
	return out
}
