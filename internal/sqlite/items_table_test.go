// Tests for the items accessor and its junction tables.
package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

func TestCreateItem(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend)
	}{
		{
			name: "create resolves category and associations",
			check: func(t *testing.T, b *Backend) {
				c := mustCategory(t, b, "Herbs")
				tag := mustTag(t, b, "Anti-inflammatory")
				p := mustProperty(t, b, "Antioxidant")
				u := mustUse(t, b, "Joint health")

				it, err := b.CreateItem(ctx, types.ItemInput{
					Name:                 "Turmeric",
					Description:          "Golden root",
					PotentialSideEffects: types.StringPtr("stomach upset"),
					ImageURL:             types.StringPtr("https://example.com/turmeric.png"),
					CategoryID:           c.ID,
					TagIDs:               []string{tag.ID},
					PropertyIDs:          []string{p.ID},
					UseIDs:               []string{u.ID},
				})
				require.NoError(t, err)
				assert.NotEmpty(t, it.ID)
				assert.Equal(t, c.ID, it.Category.ID)
				assert.Equal(t, "Herbs", it.Category.Name)
				assert.Equal(t, []types.Tag{*tag}, it.Tags)
				assert.Equal(t, []types.Property{*p}, it.Properties)
				assert.Equal(t, []types.Use{*u}, it.Uses)
				assert.Equal(t, "stomach upset", *it.PotentialSideEffects)
				assert.False(t, it.UpdatedAt.IsZero())
			},
		},
		{
			name: "item without associations has empty slices",
			check: func(t *testing.T, b *Backend) {
				c := mustCategory(t, b, "Herbs")
				it := mustItem(t, b, types.ItemInput{Name: "Sage", CategoryID: c.ID})
				assert.NotNil(t, it.Tags)
				assert.NotNil(t, it.Properties)
				assert.NotNil(t, it.Uses)
				assert.Empty(t, it.Tags)
			},
		},
		{
			name: "duplicate ids collapse to one association",
			check: func(t *testing.T, b *Backend) {
				c := mustCategory(t, b, "Herbs")
				tag := mustTag(t, b, "Calming")
				it := mustItem(t, b, types.ItemInput{Name: "Lavender", CategoryID: c.ID, TagIDs: []string{tag.ID, tag.ID}})
				assert.Len(t, it.Tags, 1)
			},
		},
		{
			name: "missing category returns ErrNotFound and writes nothing",
			check: func(t *testing.T, b *Backend) {
				_, err := b.CreateItem(ctx, types.ItemInput{Name: "Ghost", Description: "d", CategoryID: "nope"})
				assert.ErrorIs(t, err, types.ErrNotFound)

				items, err := b.ListItems(ctx, types.ItemFilter{})
				require.NoError(t, err)
				assert.Empty(t, items)
			},
		},
		{
			name: "missing tag returns ErrNotFound and writes nothing",
			check: func(t *testing.T, b *Backend) {
				c := mustCategory(t, b, "Herbs")
				_, err := b.CreateItem(ctx, types.ItemInput{Name: "Ghost", Description: "d", CategoryID: c.ID, TagIDs: []string{"nope"}})
				assert.ErrorIs(t, err, types.ErrNotFound)
				assert.ErrorContains(t, err, "tag nope")

				items, err := b.ListItems(ctx, types.ItemFilter{})
				require.NoError(t, err)
				assert.Empty(t, items)
			},
		},
		{
			name: "invalid input rejected before storage",
			check: func(t *testing.T, b *Backend) {
				c := mustCategory(t, b, "Herbs")
				_, err := b.CreateItem(ctx, types.ItemInput{Name: "", Description: "d", CategoryID: c.ID})
				assert.ErrorIs(t, err, types.ErrInvalidName)
				_, err = b.CreateItem(ctx, types.ItemInput{Name: "x", Description: " ", CategoryID: c.ID})
				assert.ErrorIs(t, err, types.ErrInvalidData)
				_, err = b.CreateItem(ctx, types.ItemInput{Name: "x", Description: "d", CategoryID: c.ID, ImageURL: types.StringPtr("not a url")})
				assert.ErrorIs(t, err, types.ErrInvalidURL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, setupBackend(t))
		})
	}
}

func TestListItems(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	herbs := mustCategory(t, b, "Herbs")
	oils := mustCategory(t, b, "Oils")
	calming := mustTag(t, b, "Calming")
	bitter := mustTag(t, b, "Bitter")

	chamomile := mustItem(t, b, types.ItemInput{Name: "Chamomile", CategoryID: herbs.ID, TagIDs: []string{calming.ID}})
	dandelion := mustItem(t, b, types.ItemInput{Name: "Dandelion", CategoryID: herbs.ID, TagIDs: []string{bitter.ID}})
	lavender := mustItem(t, b, types.ItemInput{Name: "Lavender oil", CategoryID: oils.ID, TagIDs: []string{calming.ID}})

	ids := func(items []types.Item) []string {
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = it.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter types.ItemFilter
		want   []string
	}{
		{name: "no filter", want: []string{chamomile.ID, dandelion.ID, lavender.ID}},
		{name: "by category", filter: types.ItemFilter{CategoryID: herbs.ID}, want: []string{chamomile.ID, dandelion.ID}},
		{name: "by tag", filter: types.ItemFilter{TagID: calming.ID}, want: []string{chamomile.ID, lavender.ID}},
		{name: "by category and tag", filter: types.ItemFilter{CategoryID: herbs.ID, TagID: calming.ID}, want: []string{chamomile.ID}},
		{name: "unknown category", filter: types.ItemFilter{CategoryID: "nope"}, want: []string{}},
		{name: "unknown tag", filter: types.ItemFilter{TagID: "nope"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.ListItems(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("tag filter still returns every tag of the item", func(t *testing.T) {
		both := mustItem(t, b, types.ItemInput{Name: "Hops", CategoryID: herbs.ID, TagIDs: []string{calming.ID, bitter.ID}})
		got, err := b.ListItems(ctx, types.ItemFilter{TagID: bitter.ID})
		require.NoError(t, err)
		require.Equal(t, []string{dandelion.ID, both.ID}, ids(got))
		assert.Len(t, got[1].Tags, 2)
	})
}

func TestListItemsAcrossAssociationChunks(t *testing.T) {
	prev := inChunkSize
	inChunkSize = 2
	t.Cleanup(func() { inChunkSize = prev })

	ctx := context.Background()
	b := setupBackend(t)
	herbs := mustCategory(t, b, "Herbs")
	calming := mustTag(t, b, "Calming")
	bitter := mustTag(t, b, "Bitter")
	sedative := mustProperty(t, b, "Sedative")

	want := map[string][]string{}
	for i, name := range []string{"Chamomile", "Dandelion", "Hops", "Lavender", "Valerian"} {
		in := types.ItemInput{Name: name, CategoryID: herbs.ID, TagIDs: []string{calming.ID}, PropertyIDs: []string{sedative.ID}}
		if i%2 == 1 {
			in.TagIDs = append(in.TagIDs, bitter.ID)
		}
		it := mustItem(t, b, in)
		want[it.ID] = in.TagIDs
	}

	got, err := b.ListItems(ctx, types.ItemFilter{})
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, it := range got {
		tagIDs := make([]string, len(it.Tags))
		for i, tag := range it.Tags {
			tagIDs[i] = tag.ID
		}
		assert.Equal(t, want[it.ID], tagIDs, "tags of %s", it.Name)
		require.Len(t, it.Properties, 1, "properties of %s", it.Name)
		assert.Equal(t, sedative.ID, it.Properties[0].ID)
		assert.Empty(t, it.Uses)
	}
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name  string
		check func(t *testing.T, b *Backend, it *types.Item)
	}{
		{
			name: "absent fields unchanged",
			check: func(t *testing.T, b *Backend, it *types.Item) {
				name := "Curcuma"
				got, err := b.UpdateItem(ctx, it.ID, types.ItemPatch{Name: &name})
				require.NoError(t, err)
				assert.Equal(t, "Curcuma", got.Name)
				assert.Equal(t, it.Description, got.Description)
				assert.Equal(t, *it.PotentialSideEffects, *got.PotentialSideEffects)
				assert.Len(t, got.Tags, 1)
				assert.False(t, got.UpdatedAt.Before(it.UpdatedAt))
			},
		},
		{
			name: "null clears nullable field",
			check: func(t *testing.T, b *Backend, it *types.Item) {
				got, err := b.UpdateItem(ctx, it.ID, types.ItemPatch{PotentialSideEffects: types.Null()})
				require.NoError(t, err)
				assert.Nil(t, got.PotentialSideEffects)
			},
		},
		{
			name: "empty id list clears associations",
			check: func(t *testing.T, b *Backend, it *types.Item) {
				empty := []string{}
				got, err := b.UpdateItem(ctx, it.ID, types.ItemPatch{TagIDs: &empty})
				require.NoError(t, err)
				assert.Empty(t, got.Tags)
			},
		},
		{
			name: "id list replaces associations",
			check: func(t *testing.T, b *Backend, it *types.Item) {
				p := mustProperty(t, b, "Warming")
				ids := []string{p.ID}
				got, err := b.UpdateItem(ctx, it.ID, types.ItemPatch{PropertyIDs: &ids})
				require.NoError(t, err)
				require.Len(t, got.Properties, 1)
				assert.Equal(t, "Warming", got.Properties[0].Name)
				assert.Len(t, got.Tags, 1, "tags untouched")
			},
		},
		{
			name: "move to another category",
			check: func(t *testing.T, b *Backend, it *types.Item) {
				spices := mustCategory(t, b, "Spices")
				got, err := b.UpdateItem(ctx, it.ID, types.ItemPatch{CategoryID: &spices.ID})
				require.NoError(t, err)
				assert.Equal(t, "Spices", got.Category.Name)
			},
		},
		{
			name: "missing reference aborts whole update",
			check: func(t *testing.T, b *Backend, it *types.Item) {
				name := "Renamed"
				ids := []string{"nope"}
				_, err := b.UpdateItem(ctx, it.ID, types.ItemPatch{Name: &name, UseIDs: &ids})
				assert.ErrorIs(t, err, types.ErrNotFound)

				got, err := b.GetItem(ctx, it.ID)
				require.NoError(t, err)
				assert.Equal(t, it.Name, got.Name)
			},
		},
		{
			name: "missing item",
			check: func(t *testing.T, b *Backend, it *types.Item) {
				_, err := b.UpdateItem(ctx, "nope", types.ItemPatch{})
				assert.ErrorIs(t, err, types.ErrNotFound)
			},
		},
		{
			name: "invalid image url",
			check: func(t *testing.T, b *Backend, it *types.Item) {
				_, err := b.UpdateItem(ctx, it.ID, types.ItemPatch{ImageURL: types.Some("ftp://x/y")})
				assert.ErrorIs(t, err, types.ErrInvalidURL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := setupBackend(t)
			c := mustCategory(t, b, "Herbs")
			tag := mustTag(t, b, "Digestive")
			it := mustItem(t, b, types.ItemInput{
				Name:                 "Turmeric",
				CategoryID:           c.ID,
				PotentialSideEffects: types.StringPtr("stomach upset"),
				TagIDs:               []string{tag.ID},
			})
			tt.check(t, b, it)
		})
	}
}

func TestDeleteItem(t *testing.T) {
	ctx := context.Background()
	b := setupBackend(t)

	c := mustCategory(t, b, "Herbs")
	tag := mustTag(t, b, "Calming")
	keep := mustItem(t, b, types.ItemInput{Name: "Sage", CategoryID: c.ID})
	gone := mustItem(t, b, types.ItemInput{Name: "Chamomile", CategoryID: c.ID, TagIDs: []string{tag.ID}})
	p, err := b.CreateProtocol(ctx, types.ProtocolInput{Name: "Evening", ItemIDs: []string{gone.ID, keep.ID}})
	require.NoError(t, err)

	require.NoError(t, b.DeleteItem(ctx, gone.ID))

	_, err = b.GetItem(ctx, gone.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	items, err := b.FetchProtocolItems(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, keep.ID, items[0].ID)

	_, err = b.GetTag(ctx, tag.ID)
	assert.NoError(t, err, "tag survives item deletion")

	assert.ErrorIs(t, b.DeleteItem(ctx, gone.ID), types.ErrNotFound)
	assert.ErrorIs(t, b.DeleteCategory(ctx, c.ID), types.ErrReferentialConstraint)
}
