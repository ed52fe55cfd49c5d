// This file implements seeding of the sample catalog.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

// Sample catalog content.
const (
	SeedCategory = "Herbs"
	SeedProtocol = "Digestive support"
)

// seedItem describes an item to seed and the names of its associations.
type seedItem struct {
	name        string
	description string
	sideEffects string
	tags        []string
	properties  []string
	uses        []string
}

var seedItems = []seedItem{
	{
		name:        "Turmeric",
		description: "A golden rhizome used in cooking and traditional remedies.",
		sideEffects: "stomach upset",
		tags:        []string{"Anti-inflammatory", "Digestive"},
		properties:  []string{"Anti-inflammatory"},
		uses:        []string{"Joint health"},
	},
	{
		name:        "Ginger",
		description: "A pungent root taken fresh, dried, or as tea.",
		sideEffects: "heartburn",
		tags:        []string{"Anti-inflammatory"},
		properties:  []string{"Digestive"},
		uses:        []string{"Nausea relief"},
	},
}

// Seed inserts the sample catalog when no categories exist. It reports
// whether anything was inserted. The emptiness check and every insert run
// in one transaction.
func (b *Backend) Seed(ctx context.Context) (bool, error) {
	var memberIDs []string
	err := b.write(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&n); err != nil {
			return fmt.Errorf("counting categories: %w", err)
		}
		if n > 0 {
			return nil
		}

		cat, err := insertLookup(ctx, tx, categoriesTable, SeedCategory,
			types.StringPtr("Plants valued for their medicinal properties"))
		if err != nil {
			return err
		}

		created := map[string]map[string]string{}
		lookupID := func(s lookupTable, name string) (string, error) {
			ids := created[s.table]
			if ids == nil {
				ids = map[string]string{}
				created[s.table] = ids
			}
			if id, ok := ids[name]; ok {
				return id, nil
			}
			r, err := insertLookup(ctx, tx, s, name, nil)
			if err != nil {
				return "", err
			}
			ids[name] = r.id
			return r.id, nil
		}
		lookupIDs := func(s lookupTable, names []string) ([]string, error) {
			out := make([]string, 0, len(names))
			for _, name := range names {
				id, err := lookupID(s, name)
				if err != nil {
					return nil, err
				}
				out = append(out, id)
			}
			return out, nil
		}

		for _, si := range seedItems {
			in := types.ItemInput{
				Name:                 si.name,
				Description:          si.description,
				PotentialSideEffects: types.StringPtr(si.sideEffects),
				CategoryID:           cat.id,
			}
			if in.TagIDs, err = lookupIDs(tagsTable, si.tags); err != nil {
				return err
			}
			if in.PropertyIDs, err = lookupIDs(propertiesTable, si.properties); err != nil {
				return err
			}
			if in.UseIDs, err = lookupIDs(usesTable, si.uses); err != nil {
				return err
			}
			id, err := insertItem(ctx, tx, in)
			if err != nil {
				return err
			}
			memberIDs = append(memberIDs, id)
		}

		_, err = insertProtocol(ctx, tx, types.ProtocolInput{
			Name:        SeedProtocol,
			Description: types.StringPtr("Turmeric and ginger taken together"),
			ItemIDs:     memberIDs,
		})
		return err
	})
	if err != nil || len(memberIDs) == 0 {
		return false, err
	}

	b.log.Info("sample catalog seeded", zap.Int("items", len(memberIDs)))
	return true, nil
}
