package sqlite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/atvirokodosprendimai/movieapi/internal/adapters/sqlite/gormsqlite"
	"github.com/atvirokodosprendimai/movieapi/internal/core/domain"
	"gorm.io/gorm"
)

type schemaModel struct {
	Collection string    `gorm:"column:collection;primaryKey"`
	Definition string    `gorm:"column:schema_json;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (schemaModel) TableName() string {
	return "collection_schemas"
}

// SchemaRepository stores one JSON schema per collection.
type SchemaRepository struct {
	db *gormsqlite.DB
}

func NewSchemaRepository(db *gormsqlite.DB) *SchemaRepository {
	return &SchemaRepository{db: db}
}

// Upsert installs schema for its collection. Reinstalling an identical
// definition leaves the stored row and its updated_at untouched.
func (r *SchemaRepository) Upsert(ctx context.Context, schema domain.CollectionSchema) (domain.CollectionSchema, error) {
	var saved schemaModel
	err := r.db.WriteTX(ctx, func(tx *gormsqlite.Tx) error {
		now := time.Now().UTC()

		err := tx.Where("collection = ?", schema.Collection).Take(&saved).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			saved = schemaModel{
				Collection: schema.Collection,
				Definition: string(schema.Schema),
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := tx.Create(&saved).Error; err != nil {
				return fmt.Errorf("insert schema: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("load schema: %w", err)
		}

		if bytes.Equal([]byte(saved.Definition), schema.Schema) {
			return nil
		}
		res := tx.Model(&schemaModel{}).
			Where("collection = ?", schema.Collection).
			Updates(map[string]any{"schema_json": string(schema.Schema), "updated_at": now})
		if res.Error != nil {
			return fmt.Errorf("update schema: %w", res.Error)
		}
		saved.Definition = string(schema.Schema)
		saved.UpdatedAt = now
		return nil
	})
	if err != nil {
		return domain.CollectionSchema{}, err
	}
	return saved.toDomain(), nil
}

func (r *SchemaRepository) Get(ctx context.Context, collection string) (domain.CollectionSchema, error) {
	var model schemaModel
	err := r.db.ReadTX(ctx, func(tx *gormsqlite.Tx) error {
		return tx.Where("collection = ?", collection).Take(&model).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.CollectionSchema{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.CollectionSchema{}, fmt.Errorf("get schema: %w", err)
	}
	return model.toDomain(), nil
}

func (m schemaModel) toDomain() domain.CollectionSchema {
	return domain.CollectionSchema{
		Collection: m.Collection,
		Schema:     json.RawMessage(m.Definition),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
