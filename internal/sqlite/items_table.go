// This file implements the items table accessor for the SQLite backend,
// including the item_tags, item_properties, and item_uses junctions.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// itemSelect reads an item joined with its category. Callers append
// joins, WHERE, and ORDER BY.
const itemSelect = `SELECT i.item_id, i.name, i.description, i.properties_text, i.uses_text,
       i.potential_side_effects, i.image_url, i.category_id, i.created_at, i.updated_at,
       c.category_id, c.name, c.description, c.created_at
FROM items i
JOIN categories c ON c.category_id = i.category_id`

// hydrateItem scans a row produced by itemSelect.
func hydrateItem(row rowScanner) (types.Item, error) {
	var (
		it                                  types.Item
		propsText, usesText, sideFx, imgURL sql.NullString
		createdAt, updatedAt                string
	)
	cat, err := hydrateLookup(row,
		&it.ID, &it.Name, &it.Description, &propsText, &usesText,
		&sideFx, &imgURL, &it.CategoryID, &createdAt, &updatedAt,
	)
	if err != nil {
		return types.Item{}, err
	}
	it.PropertiesText = nullString(propsText)
	it.UsesText = nullString(usesText)
	it.PotentialSideEffects = nullString(sideFx)
	it.ImageURL = nullString(imgURL)
	if it.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return types.Item{}, err
	}
	if it.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return types.Item{}, err
	}
	it.Category = cat.category()
	return it, nil
}

// queryItems runs an itemSelect-based query and resolves relations.
func queryItems(ctx context.Context, q querier, query string, args ...any) ([]types.Item, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}

	items := []types.Item{}
	for rows.Next() {
		it, err := hydrateItem(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating items: %w", err)
	}
	rows.Close()

	if err := loadItemRelations(ctx, q, items); err != nil {
		return nil, err
	}
	return items, nil
}

// getItem reads one item with relations resolved.
func getItem(ctx context.Context, q querier, id string) (*types.Item, error) {
	items, err := queryItems(ctx, q, itemSelect+" WHERE i.item_id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("item %s: %w", id, types.ErrNotFound)
	}
	return &items[0], nil
}

// loadItemRelations fills Tags, Properties, and Uses for every item with one
// query per junction table. Empty associations become empty slices.
func loadItemRelations(ctx context.Context, q querier, items []types.Item) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ID
	}

	tags, err := lookupItemAssociations(ctx, q, tagsTable, ids)
	if err != nil {
		return err
	}
	props, err := lookupItemAssociations(ctx, q, propertiesTable, ids)
	if err != nil {
		return err
	}
	uses, err := lookupItemAssociations(ctx, q, usesTable, ids)
	if err != nil {
		return err
	}

	for i := range items {
		it := &items[i]
		it.Tags = make([]types.Tag, 0, len(tags[it.ID]))
		for _, r := range tags[it.ID] {
			it.Tags = append(it.Tags, r.tag())
		}
		it.Properties = make([]types.Property, 0, len(props[it.ID]))
		for _, r := range props[it.ID] {
			it.Properties = append(it.Properties, r.property())
		}
		it.Uses = make([]types.Use, 0, len(uses[it.ID]))
		for _, r := range uses[it.ID] {
			it.Uses = append(it.Uses, r.use())
		}
	}
	return nil
}

// requireLookups returns ErrNotFound naming the first id in ids that has no
// row in the lookup table.
func requireLookups(ctx context.Context, q querier, s lookupTable, ids []string) error {
	for _, id := range ids {
		if err := requireRow(ctx, q, s.entity, s.table, s.idCol, id); err != nil {
			return err
		}
	}
	return nil
}

// replaceAssociations rewrites the junction rows of one item.
func replaceAssociations(ctx context.Context, tx *sql.Tx, s lookupTable, itemID string, ids []string) error {
	if _, err := tx.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE item_id = ?", s.junction), itemID,
	); err != nil {
		return fmt.Errorf("clearing item %s: %w", s.table, err)
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (item_id, %s) VALUES (?, ?)", s.junction, s.idCol),
			itemID, id,
		); err != nil {
			return fmt.Errorf("linking item %s: %w", s.entity, err)
		}
	}
	return nil
}

// insertItem inserts an item and its associations inside tx. The id lists
// of in must already be normalized. Returns ErrNotFound if the category or
// any tag, property, or use does not exist.
func insertItem(ctx context.Context, tx *sql.Tx, in types.ItemInput) (string, error) {
	if err := requireRow(ctx, tx, "category", "categories", "category_id", in.CategoryID); err != nil {
		return "", err
	}
	if err := requireLookups(ctx, tx, tagsTable, in.TagIDs); err != nil {
		return "", err
	}
	if err := requireLookups(ctx, tx, propertiesTable, in.PropertyIDs); err != nil {
		return "", err
	}
	if err := requireLookups(ctx, tx, usesTable, in.UseIDs); err != nil {
		return "", err
	}

	id := newID()
	ts := formatTime(now())
	_, err := tx.ExecContext(ctx,
		`INSERT INTO items (item_id, name, description, properties_text, uses_text,
			potential_side_effects, image_url, category_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, strings.TrimSpace(in.Name), in.Description, in.PropertiesText, in.UsesText,
		in.PotentialSideEffects, in.ImageURL, in.CategoryID, ts, ts,
	)
	if err != nil {
		return "", fmt.Errorf("inserting item: %w", err)
	}

	if err := replaceAssociations(ctx, tx, tagsTable, id, in.TagIDs); err != nil {
		return "", err
	}
	if err := replaceAssociations(ctx, tx, propertiesTable, id, in.PropertyIDs); err != nil {
		return "", err
	}
	if err := replaceAssociations(ctx, tx, usesTable, id, in.UseIDs); err != nil {
		return "", err
	}
	return id, nil
}

// CreateItem inserts an item and its associations in one transaction.
// Returns ErrNotFound if the category or any tag, property, or use does not
// exist; nothing is written in that case.
func (b *Backend) CreateItem(ctx context.Context, in types.ItemInput) (*types.Item, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var err error
	if in.TagIDs, err = types.NormalizeIDs(in.TagIDs); err != nil {
		return nil, err
	}
	if in.PropertyIDs, err = types.NormalizeIDs(in.PropertyIDs); err != nil {
		return nil, err
	}
	if in.UseIDs, err = types.NormalizeIDs(in.UseIDs); err != nil {
		return nil, err
	}

	var item *types.Item
	err = b.write(ctx, func(tx *sql.Tx) error {
		id, err := insertItem(ctx, tx, in)
		if err != nil {
			return err
		}
		item, err = getItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	b.log.Debug("created item", zap.String("id", item.ID), zap.String("category_id", in.CategoryID))
	return item, nil
}

// GetItem retrieves an item with category, tags, properties, and uses.
func (b *Backend) GetItem(ctx context.Context, id string) (*types.Item, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var item *types.Item
	err := b.read(func(q querier) error {
		var err error
		item, err = getItem(ctx, q, id)
		return err
	})
	return item, err
}

// ListItems returns items in creation order, narrowed by filter. A filter
// naming a category or tag that does not exist yields an empty list.
func (b *Backend) ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error) {
	var (
		query = itemSelect
		conds []string
		args  []any
	)
	if filter.TagID != "" {
		query += " JOIN item_tags ft ON ft.item_id = i.item_id"
		conds = append(conds, "ft.tag_id = ?")
		args = append(args, filter.TagID)
	}
	if filter.CategoryID != "" {
		conds = append(conds, "i.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY i.created_at, i.item_id"

	var items []types.Item
	err := b.read(func(q querier) error {
		var err error
		items, err = queryItems(ctx, q, query, args...)
		return err
	})
	return items, err
}

// UpdateItem applies a partial update in one transaction. A non-nil id list
// in the patch replaces that association set.
func (b *Backend) UpdateItem(ctx context.Context, id string, patch types.ItemPatch) (*types.Item, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	assoc := []struct {
		table lookupTable
		ids   *[]string
	}{
		{tagsTable, patch.TagIDs},
		{propertiesTable, patch.PropertyIDs},
		{usesTable, patch.UseIDs},
	}
	normalized := make([][]string, len(assoc))
	for i, a := range assoc {
		if a.ids == nil {
			continue
		}
		ids, err := types.NormalizeIDs(*a.ids)
		if err != nil {
			return nil, err
		}
		normalized[i] = ids
	}

	sets := []string{"updated_at = ?"}
	args := []any{formatTime(now())}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*patch.Name))
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	for _, f := range []struct {
		col string
		val types.OptionalString
	}{
		{"properties_text", patch.PropertiesText},
		{"uses_text", patch.UsesText},
		{"potential_side_effects", patch.PotentialSideEffects},
		{"image_url", patch.ImageURL},
	} {
		if f.val.Set {
			sets = append(sets, f.col+" = ?")
			args = append(args, f.val.Value)
		}
	}
	args = append(args, id)

	var item *types.Item
	err := b.write(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, "item", "items", "item_id", id); err != nil {
			return err
		}
		if patch.CategoryID != nil {
			if err := requireRow(ctx, tx, "category", "categories", "category_id", *patch.CategoryID); err != nil {
				return err
			}
		}
		for i, a := range assoc {
			if a.ids == nil {
				continue
			}
			if err := requireLookups(ctx, tx, a.table, normalized[i]); err != nil {
				return err
			}
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE items SET "+strings.Join(sets, ", ")+" WHERE item_id = ?", args...,
		); err != nil {
			return fmt.Errorf("updating item %s: %w", id, err)
		}

		for i, a := range assoc {
			if a.ids == nil {
				continue
			}
			if err := replaceAssociations(ctx, tx, a.table, id, normalized[i]); err != nil {
				return err
			}
		}

		var err error
		item, err = getItem(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	b.log.Debug("updated item", zap.String("id", id))
	return item, nil
}

// DeleteItem removes an item, its associations, and its protocol
// memberships in one transaction.
func (b *Backend) DeleteItem(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	err := b.write(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, "item", "items", "item_id", id); err != nil {
			return err
		}
		for _, table := range []string{"item_tags", "item_properties", "item_uses", "protocol_items", "items"} {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE item_id = ?", table), id,
			); err != nil {
				return fmt.Errorf("deleting item %s from %s: %w", id, table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.log.Debug("deleted item", zap.String("id", id))
	return nil
}
