package catalog

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/apothecary/internal/sqlite"
	"github.com/mesh-intelligence/apothecary/pkg/aggregate"
	"github.com/mesh-intelligence/apothecary/pkg/types"
)

type fixture struct {
	svc      *Service
	protocol string
	empty    string
	herbs    *types.Category
	tags     map[string]*types.Tag
	props    map[string]*types.Property
	uses     map[string]*types.Use
}

// setupFixture builds the Turmeric and Ginger catalog through the store.
func setupFixture(t *testing.T, mode aggregate.Mode) fixture {
	t.Helper()
	ctx := context.Background()

	b := sqlite.NewBackend(zap.NewNop())
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { b.Detach() })

	agg, err := aggregate.New(mode)
	require.NoError(t, err)
	svc := New(b, agg, nil)

	f := fixture{
		svc:   svc,
		tags:  map[string]*types.Tag{},
		props: map[string]*types.Property{},
		uses:  map[string]*types.Use{},
	}
	f.herbs, err = svc.CreateCategory(ctx, types.CategoryInput{Name: "Herbs"})
	require.NoError(t, err)
	for _, name := range []string{"Anti-inflammatory", "Digestive"} {
		f.tags[name], err = svc.CreateTag(ctx, types.TagInput{Name: name})
		require.NoError(t, err)
		f.props[name], err = svc.CreateProperty(ctx, types.PropertyInput{Name: name})
		require.NoError(t, err)
	}
	for _, name := range []string{"Joint health", "Nausea relief"} {
		f.uses[name], err = svc.CreateUse(ctx, types.UseInput{Name: name})
		require.NoError(t, err)
	}

	turmeric, err := svc.CreateItem(ctx, types.ItemInput{
		Name:                 "Turmeric",
		Description:          "Golden root",
		PropertiesText:       types.StringPtr("Anti-inflammatory, Antioxidant"),
		UsesText:             types.StringPtr("Joint health"),
		PotentialSideEffects: types.StringPtr("stomach upset"),
		CategoryID:           f.herbs.ID,
		TagIDs:               []string{f.tags["Anti-inflammatory"].ID, f.tags["Digestive"].ID},
		PropertyIDs:          []string{f.props["Anti-inflammatory"].ID},
		UseIDs:               []string{f.uses["Joint health"].ID},
	})
	require.NoError(t, err)
	ginger, err := svc.CreateItem(ctx, types.ItemInput{
		Name:                 "Ginger",
		Description:          "Pungent root",
		PropertiesText:       types.StringPtr("Antioxidant, Digestive"),
		UsesText:             types.StringPtr("Nausea relief, Joint health"),
		PotentialSideEffects: types.StringPtr("heartburn"),
		CategoryID:           f.herbs.ID,
		TagIDs:               []string{f.tags["Anti-inflammatory"].ID},
		PropertyIDs:          []string{f.props["Digestive"].ID},
		UseIDs:               []string{f.uses["Nausea relief"].ID},
	})
	require.NoError(t, err)

	p, err := svc.CreateProtocol(ctx, types.ProtocolInput{Name: "Digestive support", ItemIDs: []string{turmeric.ID, ginger.ID}})
	require.NoError(t, err)
	f.protocol = p.ID

	e, err := svc.CreateProtocol(ctx, types.ProtocolInput{Name: "Nothing yet"})
	require.NoError(t, err)
	f.empty = e.ID
	return f
}

func TestDescribeProtocolEntityMode(t *testing.T) {
	f := setupFixture(t, aggregate.ModeEntity)

	got, err := f.svc.DescribeProtocol(context.Background(), f.protocol)
	require.NoError(t, err)
	assert.Equal(t, "Digestive support", got.Name)
	require.Len(t, got.Items, 2)

	want := types.ProtocolAggregatedMetadata{
		CommonProperties: []types.Property{*f.props["Anti-inflammatory"], *f.props["Digestive"]},
		CommonUses:       []types.Use{*f.uses["Joint health"], *f.uses["Nausea relief"]},
		AllSideEffects:   []string{"stomach upset", "heartburn"},
		Categories:       []types.Category{*f.herbs},
		Tags:             []types.Tag{*f.tags["Anti-inflammatory"], *f.tags["Digestive"]},
	}
	if diff := cmp.Diff(want, got.AggregatedMetadata, cmpopts.EquateApproxTime(0)); diff != "" {
		t.Errorf("aggregated metadata mismatch (-want +got):\n%s", diff)
	}
}

func TestProtocolMetadataFreeTextMode(t *testing.T) {
	f := setupFixture(t, aggregate.ModeFreeText)
	assert.Equal(t, aggregate.ModeFreeText, f.svc.AggregationMode())

	got, err := f.svc.ProtocolMetadata(context.Background(), f.protocol)
	require.NoError(t, err)

	names := func(ps []types.Property) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name
		}
		return out
	}
	assert.Equal(t, []string{"Anti-inflammatory", "Antioxidant", "Digestive"}, names(got.CommonProperties))
	require.Len(t, got.CommonUses, 2)
	assert.Equal(t, "Joint health", got.CommonUses[0].Name)
	assert.Equal(t, "Nausea relief", got.CommonUses[1].Name)
}

func TestDescribeEmptyProtocol(t *testing.T) {
	f := setupFixture(t, aggregate.ModeEntity)

	got, err := f.svc.DescribeProtocol(context.Background(), f.empty)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.Empty(t, got.AggregatedMetadata.CommonProperties)
	assert.NotNil(t, got.AggregatedMetadata.AllSideEffects)
}

func TestMissingProtocol(t *testing.T) {
	f := setupFixture(t, aggregate.ModeEntity)
	ctx := context.Background()

	_, err := f.svc.DescribeProtocol(ctx, "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = f.svc.ProtocolMetadata(ctx, "nope")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNewDefaultsToEntityMode(t *testing.T) {
	svc := New(sqlite.NewBackend(nil), nil, nil)
	assert.Equal(t, aggregate.ModeEntity, svc.AggregationMode())
}
