// This file implements the categories table accessor for the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// CreateCategory inserts a category with a generated UUID v7.
func (b *Backend) CreateCategory(ctx context.Context, in types.CategoryInput) (*types.Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r, err := b.createLookup(ctx, categoriesTable, in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	c := r.category()
	return &c, nil
}

// GetCategory retrieves a category by ID.
func (b *Backend) GetCategory(ctx context.Context, id string) (*types.Category, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	r, err := b.getLookup(ctx, categoriesTable, id)
	if err != nil {
		return nil, err
	}
	c := r.category()
	return &c, nil
}

// ListCategories returns all categories in creation order.
func (b *Backend) ListCategories(ctx context.Context) ([]types.Category, error) {
	rows, err := b.listLookups(ctx, categoriesTable)
	if err != nil {
		return nil, err
	}
	out := make([]types.Category, len(rows))
	for i, r := range rows {
		out[i] = r.category()
	}
	return out, nil
}

// UpdateCategory applies a partial update.
func (b *Backend) UpdateCategory(ctx context.Context, id string, patch types.CategoryPatch) (*types.Category, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	r, err := b.updateLookup(ctx, categoriesTable, id, patch.Name, patch.Description)
	if err != nil {
		return nil, err
	}
	c := r.category()
	return &c, nil
}

// DeleteCategory removes a category. Returns ErrReferentialConstraint while
// any item still belongs to it.
func (b *Backend) DeleteCategory(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return b.deleteLookup(ctx, categoriesTable, id, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM items WHERE category_id = ?", id,
		).Scan(&count)
		if err != nil {
			return fmt.Errorf("counting category items: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("category %s has %d items: %w", id, count, types.ErrReferentialConstraint)
		}
		return nil
	})
}
