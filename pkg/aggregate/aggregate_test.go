package aggregate

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/apothecary/pkg/types"
)

var (
	herbs  = types.Category{ID: "cat-herbs", Name: "Herbs"}
	spices = types.Category{ID: "cat-spices", Name: "Spices"}

	tagAntiInflammatory = types.Tag{ID: "tag-ai", Name: "Anti-inflammatory"}
	tagDigestive        = types.Tag{ID: "tag-dig", Name: "Digestive"}

	propAntiInflammatory = types.Property{ID: "prop-ai", Name: "Anti-inflammatory"}
	propDigestive        = types.Property{ID: "prop-dig", Name: "Digestive"}

	useJointHealth  = types.Use{ID: "use-joint", Name: "Joint health"}
	useNauseaRelief = types.Use{ID: "use-nausea", Name: "Nausea relief"}
)

func item(name string, cat types.Category, sideEffects *string) types.Item {
	return types.Item{ID: "item-" + name, Name: name, CategoryID: cat.ID, Category: cat, PotentialSideEffects: sideEffects}
}

func str(s string) *string { return &s }

func TestAggregate(t *testing.T) {
	tests := []struct {
		name  string
		items func() []types.Item
		check func(t *testing.T, got types.ProtocolAggregatedMetadata)
	}{
		{
			name:  "empty input yields empty collections",
			items: func() []types.Item { return nil },
			check: func(t *testing.T, got types.ProtocolAggregatedMetadata) {
				want := types.ProtocolAggregatedMetadata{
					CommonProperties: []types.Property{},
					CommonUses:       []types.Use{},
					AllSideEffects:   []string{},
					Categories:       []types.Category{},
					Tags:             []types.Tag{},
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
				}
			},
		},
		{
			name: "properties are a union not an intersection",
			items: func() []types.Item {
				a := item("a", herbs, nil)
				a.Properties = []types.Property{propAntiInflammatory}
				b := item("b", herbs, nil)
				b.Properties = []types.Property{propDigestive}
				return []types.Item{a, b}
			},
			check: func(t *testing.T, got types.ProtocolAggregatedMetadata) {
				assert.Equal(t, []types.Property{propAntiInflammatory, propDigestive}, got.CommonProperties)
			},
		},
		{
			name: "uses are a union not an intersection",
			items: func() []types.Item {
				a := item("a", herbs, nil)
				a.Uses = []types.Use{useJointHealth}
				b := item("b", herbs, nil)
				b.Uses = []types.Use{useNauseaRelief}
				return []types.Item{a, b}
			},
			check: func(t *testing.T, got types.ProtocolAggregatedMetadata) {
				assert.Equal(t, []types.Use{useJointHealth, useNauseaRelief}, got.CommonUses)
			},
		},
		{
			name: "shared tag counted once",
			items: func() []types.Item {
				a := item("a", herbs, nil)
				a.Tags = []types.Tag{tagAntiInflammatory}
				b := item("b", herbs, nil)
				b.Tags = []types.Tag{tagAntiInflammatory}
				return []types.Item{a, b}
			},
			check: func(t *testing.T, got types.ProtocolAggregatedMetadata) {
				assert.Equal(t, []types.Tag{tagAntiInflammatory}, got.Tags)
			},
		},
		{
			name: "side effects split on commas",
			items: func() []types.Item {
				return []types.Item{
					item("a", herbs, str("stomach upset, blood thinning")),
					item("b", herbs, nil),
				}
			},
			check: func(t *testing.T, got types.ProtocolAggregatedMetadata) {
				assert.Equal(t, []string{"stomach upset", "blood thinning"}, got.AllSideEffects)
			},
		},
		{
			name: "side effects deduplicated across items",
			items: func() []types.Item {
				return []types.Item{
					item("a", herbs, str("heartburn")),
					item("b", herbs, str("heartburn, nausea")),
				}
			},
			check: func(t *testing.T, got types.ProtocolAggregatedMetadata) {
				assert.Equal(t, []string{"heartburn", "nausea"}, got.AllSideEffects)
			},
		},
		{
			name: "side effect fragments trimmed and empties dropped",
			items: func() []types.Item {
				return []types.Item{item("a", herbs, str("  nausea ,heartburn  ,, "))}
			},
			check: func(t *testing.T, got types.ProtocolAggregatedMetadata) {
				assert.Equal(t, []string{"nausea", "heartburn"}, got.AllSideEffects)
			},
		},
		{
			name: "categories appear once each across items",
			items: func() []types.Item {
				return []types.Item{
					item("a", herbs, nil),
					item("b", spices, nil),
					item("c", herbs, nil),
				}
			},
			check: func(t *testing.T, got types.ProtocolAggregatedMetadata) {
				assert.Equal(t, []types.Category{herbs, spices}, got.Categories)
			},
		},
		{
			name: "last instance of an id wins but keeps first position",
			items: func() []types.Item {
				renamed := herbs
				renamed.Name = "Herbs (renamed)"
				return []types.Item{
					item("a", herbs, nil),
					item("b", spices, nil),
					item("c", renamed, nil),
				}
			},
			check: func(t *testing.T, got types.ProtocolAggregatedMetadata) {
				require.Len(t, got.Categories, 2)
				assert.Equal(t, "Herbs (renamed)", got.Categories[0].Name)
				assert.Equal(t, spices, got.Categories[1])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Aggregate(tt.items()))
		})
	}
}

func turmericAndGinger() []types.Item {
	turmeric := item("Turmeric", herbs, str("stomach upset"))
	turmeric.Properties = []types.Property{propAntiInflammatory}
	turmeric.Uses = []types.Use{useJointHealth}
	turmeric.Tags = []types.Tag{tagAntiInflammatory, tagDigestive}
	turmeric.PropertiesText = str("Anti-inflammatory, Antioxidant")
	turmeric.UsesText = str("Joint health")

	ginger := item("Ginger", herbs, str("heartburn"))
	ginger.Properties = []types.Property{propDigestive}
	ginger.Uses = []types.Use{useNauseaRelief}
	ginger.Tags = []types.Tag{tagAntiInflammatory}
	ginger.PropertiesText = str("Antioxidant, Digestive")
	ginger.UsesText = str("Nausea relief, Joint health")

	return []types.Item{turmeric, ginger}
}

func TestAggregateTurmericAndGinger(t *testing.T) {
	got := Aggregate(turmericAndGinger())

	want := types.ProtocolAggregatedMetadata{
		CommonProperties: []types.Property{propAntiInflammatory, propDigestive},
		CommonUses:       []types.Use{useJointHealth, useNauseaRelief},
		AllSideEffects:   []string{"stomach upset", "heartburn"},
		Categories:       []types.Category{herbs},
		Tags:             []types.Tag{tagAntiInflammatory, tagDigestive},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregatorFreeTextMode(t *testing.T) {
	agg, err := New(ModeFreeText)
	require.NoError(t, err)
	assert.Equal(t, ModeFreeText, agg.Mode())

	got := agg.Aggregate(turmericAndGinger())

	assert.Equal(t, []types.Property{
		{Name: "Anti-inflammatory"},
		{Name: "Antioxidant"},
		{Name: "Digestive"},
	}, got.CommonProperties)
	assert.Equal(t, []types.Use{
		{Name: "Joint health"},
		{Name: "Nausea relief"},
	}, got.CommonUses)
	// Categories, tags, and side effects are mode independent.
	assert.Equal(t, []types.Category{herbs}, got.Categories)
	assert.Equal(t, []types.Tag{tagAntiInflammatory, tagDigestive}, got.Tags)
	assert.Equal(t, []string{"stomach upset", "heartburn"}, got.AllSideEffects)
}

func TestAggregatorEntityModeMatchesPackageFunc(t *testing.T) {
	agg, err := New(ModeEntity)
	require.NoError(t, err)
	items := turmericAndGinger()
	assert.Equal(t, Aggregate(items), agg.Aggregate(items))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{in: "", want: ModeEntity},
		{in: "entity", want: ModeEntity},
		{in: " free_text ", want: ModeFreeText},
		{in: "intersection", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := New("bogus")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSplitFragments(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitFragments(" a ,b"))
	assert.Equal(t, []string{}, SplitFragments(""))
	assert.Equal(t, []string{}, SplitFragments(" , ,"))
	assert.Equal(t, []string{"a", "a"}, SplitFragments("a,a"))
}

func TestAggregateConcurrentCallers(t *testing.T) {
	items := turmericAndGinger()
	want := Aggregate(items)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Aggregate(items))
		}()
	}
	wg.Wait()
}
