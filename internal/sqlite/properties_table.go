// This file implements the properties and uses table accessors for the
// SQLite backend. Both are lookup tables whose note column is "source".
package sqlite

import (
	"context"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// CreateProperty inserts a property with a generated UUID v7.
func (b *Backend) CreateProperty(ctx context.Context, in types.PropertyInput) (*types.Property, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r, err := b.createLookup(ctx, propertiesTable, in.Name, in.Source)
	if err != nil {
		return nil, err
	}
	p := r.property()
	return &p, nil
}

// GetProperty retrieves a property by ID.
func (b *Backend) GetProperty(ctx context.Context, id string) (*types.Property, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	r, err := b.getLookup(ctx, propertiesTable, id)
	if err != nil {
		return nil, err
	}
	p := r.property()
	return &p, nil
}

// ListProperties returns all properties in creation order.
func (b *Backend) ListProperties(ctx context.Context) ([]types.Property, error) {
	rows, err := b.listLookups(ctx, propertiesTable)
	if err != nil {
		return nil, err
	}
	out := make([]types.Property, len(rows))
	for i, r := range rows {
		out[i] = r.property()
	}
	return out, nil
}

// UpdateProperty applies a partial update.
func (b *Backend) UpdateProperty(ctx context.Context, id string, patch types.PropertyPatch) (*types.Property, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	r, err := b.updateLookup(ctx, propertiesTable, id, patch.Name, patch.Source)
	if err != nil {
		return nil, err
	}
	p := r.property()
	return &p, nil
}

// DeleteProperty removes a property and its item associations.
func (b *Backend) DeleteProperty(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return b.deleteLookup(ctx, propertiesTable, id, nil)
}

// CreateUse inserts a use with a generated UUID v7.
func (b *Backend) CreateUse(ctx context.Context, in types.UseInput) (*types.Use, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	r, err := b.createLookup(ctx, usesTable, in.Name, in.Source)
	if err != nil {
		return nil, err
	}
	u := r.use()
	return &u, nil
}

// GetUse retrieves a use by ID.
func (b *Backend) GetUse(ctx context.Context, id string) (*types.Use, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	r, err := b.getLookup(ctx, usesTable, id)
	if err != nil {
		return nil, err
	}
	u := r.use()
	return &u, nil
}

// ListUses returns all uses in creation order.
func (b *Backend) ListUses(ctx context.Context) ([]types.Use, error) {
	rows, err := b.listLookups(ctx, usesTable)
	if err != nil {
		return nil, err
	}
	out := make([]types.Use, len(rows))
	for i, r := range rows {
		out[i] = r.use()
	}
	return out, nil
}

// UpdateUse applies a partial update.
func (b *Backend) UpdateUse(ctx context.Context, id string, patch types.UsePatch) (*types.Use, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	r, err := b.updateLookup(ctx, usesTable, id, patch.Name, patch.Source)
	if err != nil {
		return nil, err
	}
	u := r.use()
	return &u, nil
}

// DeleteUse removes a use and its item associations.
func (b *Backend) DeleteUse(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return b.deleteLookup(ctx, usesTable, id, nil)
}
