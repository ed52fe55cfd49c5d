// This file implements the tags table accessor for the SQLite backend.
package sqlite

import (
	"context"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// CreateTag inserts a tag with a generated UUID v7.
func (b *Backend) CreateTag(ctx context.Context, in types.TagInput) (*types.Tag, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r, err := b.createLookup(ctx, tagsTable, in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	t := r.tag()
	return &t, nil
}

// GetTag retrieves a tag by ID.
func (b *Backend) GetTag(ctx context.Context, id string) (*types.Tag, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	r, err := b.getLookup(ctx, tagsTable, id)
	if err != nil {
		return nil, err
	}
	t := r.tag()
	return &t, nil
}

// ListTags returns all tags in creation order.
func (b *Backend) ListTags(ctx context.Context) ([]types.Tag, error) {
	rows, err := b.listLookups(ctx, tagsTable)
	if err != nil {
		return nil, err
	}
	out := make([]types.Tag, len(rows))
	for i, r := range rows {
		out[i] = r.tag()
	}
	return out, nil
}

// UpdateTag applies a partial update.
func (b *Backend) UpdateTag(ctx context.Context, id string, patch types.TagPatch) (*types.Tag, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	r, err := b.updateLookup(ctx, tagsTable, id, patch.Name, patch.Description)
	if err != nil {
		return nil, err
	}
	t := r.tag()
	return &t, nil
}

// DeleteTag removes a tag and its item associations. Items keep existing.
func (b *Backend) DeleteTag(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return b.deleteLookup(ctx, tagsTable, id, nil)
}
