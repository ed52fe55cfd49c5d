// This file implements the shared accessor for the four lookup tables
// (categories, tags, properties, uses). Each has an id, a name, an optional
// note column, and a creation timestamp.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// lookupTable names the table layout of one lookup entity.
type lookupTable struct {
	entity   string // singular name used in errors and logs
	table    string
	idCol    string
	noteCol  string // "description" or "source"
	junction string // item association table, empty for none
}

var (
	categoriesTable = lookupTable{entity: "category", table: "categories", idCol: "category_id", noteCol: "description"}
	tagsTable       = lookupTable{entity: "tag", table: "tags", idCol: "tag_id", noteCol: "description", junction: "item_tags"}
	propertiesTable = lookupTable{entity: "property", table: "properties", idCol: "property_id", noteCol: "source", junction: "item_properties"}
	usesTable       = lookupTable{entity: "use", table: "uses", idCol: "use_id", noteCol: "source", junction: "item_uses"}
)

// lookupRow is the common shape of a lookup table row.
type lookupRow struct {
	id        string
	name      string
	note      *string
	createdAt time.Time
}

func (r lookupRow) category() types.Category {
	return types.Category{ID: r.id, Name: r.name, Description: r.note, CreatedAt: r.createdAt}
}

func (r lookupRow) tag() types.Tag {
	return types.Tag{ID: r.id, Name: r.name, Description: r.note, CreatedAt: r.createdAt}
}

func (r lookupRow) property() types.Property {
	return types.Property{ID: r.id, Name: r.name, Source: r.note, CreatedAt: r.createdAt}
}

func (r lookupRow) use() types.Use {
	return types.Use{ID: r.id, Name: r.name, Source: r.note, CreatedAt: r.createdAt}
}

func (s lookupTable) columns(alias string) string {
	p := ""
	if alias != "" {
		p = alias + "."
	}
	return fmt.Sprintf("%s%s, %sname, %s%s, %screated_at", p, s.idCol, p, p, s.noteCol, p)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// hydrateLookup scans id, name, note, created_at from a row.
func hydrateLookup(row rowScanner, extra ...any) (lookupRow, error) {
	var (
		r         lookupRow
		note      sql.NullString
		createdAt string
	)
	dest := append(extra, &r.id, &r.name, &note, &createdAt)
	if err := row.Scan(dest...); err != nil {
		return lookupRow{}, err
	}
	r.note = nullString(note)
	t, err := parseTime("created_at", createdAt)
	if err != nil {
		return lookupRow{}, err
	}
	r.createdAt = t
	return r, nil
}

func getLookup(ctx context.Context, q querier, s lookupTable, id string) (lookupRow, error) {
	row := q.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", s.columns(""), s.table, s.idCol), id)
	r, err := hydrateLookup(row)
	if err == sql.ErrNoRows {
		return lookupRow{}, fmt.Errorf("%s %s: %w", s.entity, id, types.ErrNotFound)
	}
	if err != nil {
		return lookupRow{}, fmt.Errorf("getting %s %s: %w", s.entity, id, err)
	}
	return r, nil
}

func listLookups(ctx context.Context, q querier, s lookupTable) ([]lookupRow, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY created_at, %s", s.columns(""), s.table, s.idCol))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.table, err)
	}
	defer rows.Close()

	out := []lookupRow{}
	for rows.Next() {
		r, err := hydrateLookup(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", s.entity, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// inChunkSize caps the ids bound into one IN list, keeping each query well
// under SQLite's host parameter limit.
var inChunkSize = 500

// lookupItemAssociations loads the lookup rows associated with each of the
// given items through the table's junction, keyed by item id.
func lookupItemAssociations(ctx context.Context, q querier, s lookupTable, itemIDs []string) (map[string][]lookupRow, error) {
	out := make(map[string][]lookupRow, len(itemIDs))
	for start := 0; start < len(itemIDs); start += inChunkSize {
		chunk := itemIDs[start:min(start+inChunkSize, len(itemIDs))]
		if err := loadItemAssociations(ctx, q, s, chunk, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// loadItemAssociations adds the rows for itemIDs to out. Each item's rows
// arrive in one query, so their order is preserved.
func loadItemAssociations(ctx context.Context, q querier, s lookupTable, itemIDs []string, out map[string][]lookupRow) error {
	query := fmt.Sprintf(
		"SELECT j.item_id, %s FROM %s j JOIN %s t ON t.%s = j.%s WHERE j.item_id IN (%s) ORDER BY t.created_at, t.%s",
		s.columns("t"), s.junction, s.table, s.idCol, s.idCol, placeholders(len(itemIDs)), s.idCol,
	)
	rows, err := q.QueryContext(ctx, query, anyArgs(itemIDs)...)
	if err != nil {
		return fmt.Errorf("loading item %s: %w", s.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemID string
		r, err := hydrateLookup(rows, &itemID)
		if err != nil {
			return fmt.Errorf("scanning item %s: %w", s.entity, err)
		}
		out[itemID] = append(out[itemID], r)
	}
	return rows.Err()
}

// insertLookup inserts one lookup row inside tx.
func insertLookup(ctx context.Context, tx *sql.Tx, s lookupTable, name string, note *string) (lookupRow, error) {
	r := lookupRow{id: newID(), name: strings.TrimSpace(name), note: note, createdAt: now()}
	_, err := tx.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO %s (%s, name, %s, created_at) VALUES (?, ?, ?, ?)", s.table, s.idCol, s.noteCol),
		r.id, r.name, r.note, formatTime(r.createdAt),
	)
	if err != nil {
		return lookupRow{}, fmt.Errorf("inserting %s: %w", s.entity, err)
	}
	return r, nil
}

func (b *Backend) createLookup(ctx context.Context, s lookupTable, name string, note *string) (lookupRow, error) {
	var r lookupRow
	err := b.write(ctx, func(tx *sql.Tx) error {
		var err error
		r, err = insertLookup(ctx, tx, s, name, note)
		return err
	})
	if err != nil {
		return lookupRow{}, err
	}
	b.log.Debug("created "+s.entity, zap.String("id", r.id))
	return r, nil
}

func (b *Backend) getLookup(ctx context.Context, s lookupTable, id string) (lookupRow, error) {
	var r lookupRow
	err := b.read(func(q querier) error {
		var err error
		r, err = getLookup(ctx, q, s, id)
		return err
	})
	return r, err
}

func (b *Backend) listLookups(ctx context.Context, s lookupTable) ([]lookupRow, error) {
	var out []lookupRow
	err := b.read(func(q querier) error {
		var err error
		out, err = listLookups(ctx, q, s)
		return err
	})
	return out, err
}

// updateLookup applies a partial update. Absent fields keep their value;
// a present nil note clears the column.
func (b *Backend) updateLookup(ctx context.Context, s lookupTable, id string, name *string, note types.OptionalString) (lookupRow, error) {
	var r lookupRow
	err := b.write(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, s.entity, s.table, s.idCol, id); err != nil {
			return err
		}

		var (
			sets []string
			args []any
		)
		if name != nil {
			sets = append(sets, "name = ?")
			args = append(args, strings.TrimSpace(*name))
		}
		if note.Set {
			sets = append(sets, s.noteCol+" = ?")
			args = append(args, note.Value)
		}
		if len(sets) > 0 {
			args = append(args, id)
			_, err := tx.ExecContext(ctx,
				fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?", s.table, strings.Join(sets, ", "), s.idCol),
				args...,
			)
			if err != nil {
				return fmt.Errorf("updating %s %s: %w", s.entity, id, err)
			}
		}

		var err error
		r, err = getLookup(ctx, tx, s, id)
		return err
	})
	if err != nil {
		return lookupRow{}, err
	}
	b.log.Debug("updated "+s.entity, zap.String("id", id))
	return r, nil
}

// deleteLookup removes a lookup row and, when the table has a junction
// table, its item associations. guard runs first inside the transaction.
func (b *Backend) deleteLookup(ctx context.Context, s lookupTable, id string, guard func(tx *sql.Tx) error) error {
	err := b.write(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, s.entity, s.table, s.idCol, id); err != nil {
			return err
		}
		if guard != nil {
			if err := guard(tx); err != nil {
				return err
			}
		}
		if s.junction != "" {
			_, err := tx.ExecContext(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.junction, s.idCol), id)
			if err != nil {
				return fmt.Errorf("deleting %s associations: %w", s.entity, err)
			}
		}
		_, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE %s = ?", s.table, s.idCol), id)
		if err != nil {
			return fmt.Errorf("deleting %s %s: %w", s.entity, id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.log.Debug("deleted "+s.entity, zap.String("id", id))
	return nil
}

// placeholders returns "?, ?, ..." with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func anyArgs(ids []string) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
