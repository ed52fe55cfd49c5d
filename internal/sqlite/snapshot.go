// This file implements snapshot export and import: one JSONL file per
// table, written atomically and read back as an upsert.
package sqlite

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// maxLineBytes bounds a single snapshot record; item descriptions can be long.
const maxLineBytes = 4 << 20

// snapshotTable describes how one table maps to its JSONL file.
type snapshotTable struct {
	name     string
	keys     []string // primary key columns
	columns  []string // remaining columns
	required []string // non-key columns that must be present and non-null
}

func (t snapshotTable) file() string {
	return t.name + ".jsonl"
}

func (t snapshotTable) allColumns() []string {
	return append(append([]string{}, t.keys...), t.columns...)
}

// check reports why rec cannot be stored in t, or nil if it can.
func (t snapshotTable) check(rec map[string]any) error {
	for _, k := range t.keys {
		if s, ok := rec[k].(string); !ok || strings.TrimSpace(s) == "" {
			return fmt.Errorf("missing key %s", k)
		}
	}
	for _, c := range t.required {
		if rec[c] == nil {
			return fmt.Errorf("missing %s", c)
		}
	}
	if v, ok := rec["name"]; ok {
		if s, isString := v.(string); !isString || strings.TrimSpace(s) == "" {
			return errors.New("name must be a non-blank string")
		}
	}
	for _, c := range t.columns {
		if !strings.HasSuffix(c, "_at") || rec[c] == nil {
			continue
		}
		s, ok := rec[c].(string)
		if !ok {
			return fmt.Errorf("%s must be a timestamp string", c)
		}
		if _, err := parseTime(c, s); err != nil {
			return err
		}
	}
	return nil
}

var lookupRequired = []string{"name", "created_at"}

// snapshotTables lists every table in dependency order.
var snapshotTables = []snapshotTable{
	{name: "categories", keys: []string{"category_id"}, columns: []string{"name", "description", "created_at"}, required: lookupRequired},
	{name: "tags", keys: []string{"tag_id"}, columns: []string{"name", "description", "created_at"}, required: lookupRequired},
	{name: "properties", keys: []string{"property_id"}, columns: []string{"name", "source", "created_at"}, required: lookupRequired},
	{name: "uses", keys: []string{"use_id"}, columns: []string{"name", "source", "created_at"}, required: lookupRequired},
	{
		name: "items",
		keys: []string{"item_id"},
		columns: []string{
			"name", "description", "properties_text", "uses_text", "potential_side_effects",
			"image_url", "category_id", "created_at", "updated_at",
		},
		required: []string{"name", "description", "category_id", "created_at", "updated_at"},
	},
	{name: "item_tags", keys: []string{"item_id", "tag_id"}},
	{name: "item_properties", keys: []string{"item_id", "property_id"}},
	{name: "item_uses", keys: []string{"item_id", "use_id"}},
	{
		name:     "protocols",
		keys:     []string{"protocol_id"},
		columns:  []string{"name", "description", "created_at", "updated_at"},
		required: []string{"name", "created_at", "updated_at"},
	},
	{name: "protocol_items", keys: []string{"protocol_id", "item_id"}, columns: []string{"position"}, required: []string{"position"}},
}

// snapshotRecord is one decoded line of a snapshot file.
type snapshotRecord struct {
	line   int
	fields map[string]any
}

// Export writes every table to <dir>/<table>.jsonl and returns the number
// of records written per table.
func (b *Backend) Export(ctx context.Context, dir string) (map[string]int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating export dir: %w", err)
	}

	counts := make(map[string]int, len(snapshotTables))
	err := b.read(func(q querier) error {
		for _, t := range snapshotTables {
			rows, err := dumpTable(ctx, q, t)
			if err != nil {
				return err
			}
			if err := writeSnapshotFile(filepath.Join(dir, t.file()), rows); err != nil {
				return fmt.Errorf("writing %s: %w", t.file(), err)
			}
			counts[t.name] = len(rows)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("catalog exported", zap.String("dir", dir), zap.Any("counts", counts))
	return counts, nil
}

func dumpTable(ctx context.Context, q querier, t snapshotTable) ([]map[string]any, error) {
	cols := t.allColumns()
	rows, err := q.QueryContext(ctx, fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(cols, ", "), t.name, strings.Join(t.keys, ", ")))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", t.name, err)
	}
	defer rows.Close()

	out := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.name, err)
		}
		rec := make(map[string]any, len(cols))
		for i, c := range cols {
			if raw, ok := values[i].([]byte); ok {
				values[i] = string(raw)
			}
			rec[c] = values[i]
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// writeSnapshotFile writes one JSON object per line to a temp file in the
// target directory, syncs it, and renames it over path.
func writeSnapshotFile(path string, rows []map[string]any) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, row := range rows {
		if err = enc.Encode(row); err != nil {
			return fmt.Errorf("encoding record: %w", err)
		}
	}
	if err = w.Flush(); err != nil {
		return fmt.Errorf("flushing: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// readSnapshotFile decodes every JSON object line of path. Blank lines are
// ignored and malformed lines are logged and skipped.
func (b *Backend) readSnapshotFile(path string) ([]snapshotRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []snapshotRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Bytes()
		if len(strings.TrimSpace(string(text))) == 0 {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(text, &fields); err != nil {
			b.log.Warn("skipping malformed snapshot line",
				zap.String("file", filepath.Base(path)), zap.Int("line", line), zap.Error(err))
			continue
		}
		records = append(records, snapshotRecord{line: line, fields: fields})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// Import upserts every <table>.jsonl found in dir in one transaction and
// returns the number of records applied per table. Missing files are
// ignored. Malformed lines and records that lack a key, lack a required
// column, or carry an unparseable timestamp are skipped. A record that
// references a missing row aborts the whole import.
func (b *Backend) Import(ctx context.Context, dir string) (map[string]int, error) {
	counts := make(map[string]int, len(snapshotTables))
	err := b.write(ctx, func(tx *sql.Tx) error {
		for _, t := range snapshotTables {
			records, err := b.readSnapshotFile(filepath.Join(dir, t.file()))
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return err
			}
			n, err := b.upsertRecords(ctx, tx, t, records)
			if err != nil {
				return err
			}
			counts[t.name] = n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	b.log.Info("catalog imported", zap.String("dir", dir), zap.Any("counts", counts))
	return counts, nil
}

func (b *Backend) upsertRecords(ctx context.Context, tx *sql.Tx, t snapshotTable, records []snapshotRecord) (int, error) {
	cols := t.allColumns()
	conflict := "DO NOTHING"
	if len(t.columns) > 0 {
		sets := make([]string, len(t.columns))
		for i, c := range t.columns {
			sets[i] = fmt.Sprintf("%s = excluded.%s", c, c)
		}
		conflict = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		t.name, strings.Join(cols, ", "), placeholders(len(cols)), strings.Join(t.keys, ", "), conflict)

	n := 0
	for _, rec := range records {
		if err := t.check(rec.fields); err != nil {
			b.log.Warn("skipping snapshot record",
				zap.String("file", t.file()), zap.Int("line", rec.line), zap.Error(err))
			continue
		}
		args := make([]any, len(cols))
		for i, c := range cols {
			args[i] = rec.fields[c]
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return 0, fmt.Errorf("importing %s line %d: %w", t.file(), rec.line, err)
		}
		n++
	}
	return n, nil
}
