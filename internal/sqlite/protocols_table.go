// This file implements the protocols and protocol_items table accessors for
// the SQLite backend.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

func hydrateProtocol(row rowScanner) (types.Protocol, error) {
	var (
		p                    types.Protocol
		desc                 sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Name, &desc, &createdAt, &updatedAt); err != nil {
		return types.Protocol{}, err
	}
	p.Description = nullString(desc)
	var err error
	if p.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return types.Protocol{}, err
	}
	if p.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return types.Protocol{}, err
	}
	return p, nil
}

const protocolSelect = "SELECT protocol_id, name, description, created_at, updated_at FROM protocols"

// fetchProtocolItems reads member items in membership order without
// checking that the protocol exists.
func fetchProtocolItems(ctx context.Context, q querier, protocolID string) ([]types.Item, error) {
	return queryItems(ctx, q,
		itemSelect+" JOIN protocol_items pi ON pi.item_id = i.item_id WHERE pi.protocol_id = ? ORDER BY pi.position",
		protocolID,
	)
}

func getProtocol(ctx context.Context, q querier, id string) (*types.ProtocolWithItems, error) {
	p, err := hydrateProtocol(q.QueryRowContext(ctx, protocolSelect+" WHERE protocol_id = ?", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("protocol %s: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting protocol %s: %w", id, err)
	}
	items, err := fetchProtocolItems(ctx, q, id)
	if err != nil {
		return nil, err
	}
	return &types.ProtocolWithItems{Protocol: p, Items: items}, nil
}

// setProtocolItems rewrites the membership rows, numbering positions in
// the order given.
func setProtocolItems(ctx context.Context, tx *sql.Tx, protocolID string, itemIDs []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM protocol_items WHERE protocol_id = ?", protocolID); err != nil {
		return fmt.Errorf("clearing protocol items: %w", err)
	}
	for pos, itemID := range itemIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO protocol_items (protocol_id, item_id, position) VALUES (?, ?, ?)",
			protocolID, itemID, pos,
		); err != nil {
			return fmt.Errorf("adding protocol item: %w", err)
		}
	}
	return nil
}

func requireItems(ctx context.Context, q querier, ids []string) error {
	for _, id := range ids {
		if err := requireRow(ctx, q, "item", "items", "item_id", id); err != nil {
			return err
		}
	}
	return nil
}

// insertProtocol inserts a protocol and its memberships inside tx. in.ItemIDs
// must already be normalized. Returns ErrNotFound if any item does not exist.
func insertProtocol(ctx context.Context, tx *sql.Tx, in types.ProtocolInput) (string, error) {
	if err := requireItems(ctx, tx, in.ItemIDs); err != nil {
		return "", err
	}
	id := newID()
	ts := formatTime(now())
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO protocols (protocol_id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		id, strings.TrimSpace(in.Name), in.Description, ts, ts,
	); err != nil {
		return "", fmt.Errorf("inserting protocol: %w", err)
	}
	if err := setProtocolItems(ctx, tx, id, in.ItemIDs); err != nil {
		return "", err
	}
	return id, nil
}

// CreateProtocol inserts a protocol and its memberships in one transaction.
// Returns ErrNotFound if any item does not exist.
func (b *Backend) CreateProtocol(ctx context.Context, in types.ProtocolInput) (*types.ProtocolWithItems, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var err error
	if in.ItemIDs, err = types.NormalizeIDs(in.ItemIDs); err != nil {
		return nil, err
	}

	var p *types.ProtocolWithItems
	err = b.write(ctx, func(tx *sql.Tx) error {
		id, err := insertProtocol(ctx, tx, in)
		if err != nil {
			return err
		}
		p, err = getProtocol(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	b.log.Debug("created protocol", zap.String("id", p.ID), zap.Int("items", len(in.ItemIDs)))
	return p, nil
}

// GetProtocol retrieves a protocol with its member items.
func (b *Backend) GetProtocol(ctx context.Context, id string) (*types.ProtocolWithItems, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	var p *types.ProtocolWithItems
	err := b.read(func(q querier) error {
		var err error
		p, err = getProtocol(ctx, q, id)
		return err
	})
	return p, err
}

// ListProtocols returns all protocols in creation order with their items.
func (b *Backend) ListProtocols(ctx context.Context) ([]types.ProtocolWithItems, error) {
	var out []types.ProtocolWithItems
	err := b.read(func(q querier) error {
		rows, err := q.QueryContext(ctx, protocolSelect+" ORDER BY created_at, protocol_id")
		if err != nil {
			return fmt.Errorf("listing protocols: %w", err)
		}
		var protocols []types.Protocol
		for rows.Next() {
			p, err := hydrateProtocol(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("scanning protocol: %w", err)
			}
			protocols = append(protocols, p)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterating protocols: %w", err)
		}
		rows.Close()

		out = make([]types.ProtocolWithItems, 0, len(protocols))
		for _, p := range protocols {
			items, err := fetchProtocolItems(ctx, q, p.ID)
			if err != nil {
				return err
			}
			out = append(out, types.ProtocolWithItems{Protocol: p, Items: items})
		}
		return nil
	})
	return out, err
}

// UpdateProtocol applies a partial update in one transaction. A non-nil
// ItemIDs replaces the membership.
func (b *Backend) UpdateProtocol(ctx context.Context, id string, patch types.ProtocolPatch) (*types.ProtocolWithItems, error) {
	if id == "" {
		return nil, types.ErrInvalidID
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	var itemIDs []string
	if patch.ItemIDs != nil {
		var err error
		if itemIDs, err = types.NormalizeIDs(*patch.ItemIDs); err != nil {
			return nil, err
		}
	}

	sets := []string{"updated_at = ?"}
	args := []any{formatTime(now())}
	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, strings.TrimSpace(*patch.Name))
	}
	if patch.Description.Set {
		sets = append(sets, "description = ?")
		args = append(args, patch.Description.Value)
	}
	args = append(args, id)

	var p *types.ProtocolWithItems
	err := b.write(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, "protocol", "protocols", "protocol_id", id); err != nil {
			return err
		}
		if patch.ItemIDs != nil {
			if err := requireItems(ctx, tx, itemIDs); err != nil {
				return err
			}
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE protocols SET "+strings.Join(sets, ", ")+" WHERE protocol_id = ?", args...,
		); err != nil {
			return fmt.Errorf("updating protocol %s: %w", id, err)
		}
		if patch.ItemIDs != nil {
			if err := setProtocolItems(ctx, tx, id, itemIDs); err != nil {
				return err
			}
		}
		var err error
		p, err = getProtocol(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	b.log.Debug("updated protocol", zap.String("id", id))
	return p, nil
}

// DeleteProtocol removes a protocol and its memberships. Member items are
// not affected.
func (b *Backend) DeleteProtocol(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	err := b.write(ctx, func(tx *sql.Tx) error {
		if err := requireRow(ctx, tx, "protocol", "protocols", "protocol_id", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM protocol_items WHERE protocol_id = ?", id); err != nil {
			return fmt.Errorf("deleting protocol items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM protocols WHERE protocol_id = ?", id); err != nil {
			return fmt.Errorf("deleting protocol %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.log.Debug("deleted protocol", zap.String("id", id))
	return nil
}

// FetchProtocolItems returns the member items of a protocol in membership
// order. Returns ErrNotFound if the protocol does not exist.
func (b *Backend) FetchProtocolItems(ctx context.Context, protocolID string) ([]types.Item, error) {
	if protocolID == "" {
		return nil, types.ErrInvalidID
	}
	var items []types.Item
	err := b.read(func(q querier) error {
		if err := requireRow(ctx, q, "protocol", "protocols", "protocol_id", protocolID); err != nil {
			return err
		}
		var err error
		items, err = fetchProtocolItems(ctx, q, protocolID)
		return err
	})
	return items, err
}
