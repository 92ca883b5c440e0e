package catalog

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
)

func TestMention_EffectiveCount(t *testing.T) {
	assert.Equal(t, 1, Mention{}.EffectiveCount())
	assert.Equal(t, 1, Mention{Count: -4}.EffectiveCount())
	assert.Equal(t, 7, Mention{Count: 7}.EffectiveCount())
}

func TestMention_WorkspaceIDs(t *testing.T) {
	assert.Equal(t, []string{"ws-1"}, Mention{Origin: "ws-1"}.WorkspaceIDs())
	assert.Equal(t, []string{"a", "b"}, Mention{Origin: "ws-1", Workspaces: []string{"a", "b"}}.WorkspaceIDs())
	assert.Empty(t, Mention{}.WorkspaceIDs())
}

func TestProduct_Clone(t *testing.T) {
	p := &Product{Name: "Desk", Workspaces: []string{"a"}, OftenWith: []Partner{{"Chair", 2}}}
	c := p.Clone()
	c.Workspaces[0] = "changed"
	c.OftenWith[0].Count = 99

	assert.Equal(t, "a", p.Workspaces[0])
	assert.Equal(t, 2, p.OftenWith[0].Count)
	assert.Nil(t, (*Product)(nil).Clone())
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	require.Len(t, cats, 6)

	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
		assert.Equal(t, i+1, c.SlotPosition)
	}
	assert.Equal(t, []string{"monitor", "keyboard", "mouse", "chair", "desk", "headphones"}, names)
	assert.Equal(t, "Audio", cats[5].DisplayName)
}

func TestFilterToCategories(t *testing.T) {
	products := []*Product{
		{Name: "Studio Display", Category: "monitor"},
		{Name: "Key Light", Category: "lighting"},
		{Name: "Aeron", Category: "chair"},
		{Name: "Mystery", Category: "accessory"},
	}

	got := FilterToCategories(products, DefaultCategories())
	require.Len(t, got, 2)
	assert.Equal(t, "Studio Display", got[0].Name)
	assert.Equal(t, "Aeron", got[1].Name)

	counts := CountByCategory(products)
	assert.Equal(t, 1, counts["lighting"])
	assert.Equal(t, 0, counts["desk"])
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	err := s.ReplaceAll(ctx, []*Product{
		{Name: "A", Category: "mouse", Count: 3},
		{Name: "B", Category: "keyboard", Count: 1},
		{Name: "C", Category: "mouse", Count: 9},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())

	p, err := s.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "B", p.Name)
	assert.Equal(t, int64(2), p.ID)

	_, err = s.GetByID(ctx, 42)
	assert.True(t, dserrors.IsNotFound(err))

	mice, err := s.ListByCategory(ctx, "mouse")
	require.NoError(t, err)
	require.Len(t, mice, 2)
	assert.Equal(t, "A", mice[0].Name, "stored order is kept")
	assert.Equal(t, "C", mice[1].Name)

	// Returned products are copies.
	mice[0].Name = "mutated"
	again, _ := s.GetByID(ctx, 1)
	assert.Equal(t, "A", again.Name)

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 6)
}

func TestMemoryStore_ReplaceCategories(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.ReplaceAll(ctx, nil, []Category{
		{Name: "desk", DisplayName: "Desk", SlotPosition: 2},
		{Name: "chair", DisplayName: "Chair", SlotPosition: 1},
	}))

	cats, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "chair", cats[0].Name)
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, NewMemoryStore().ReplaceAll(ctx, nil, nil))
}

func TestDecodeMentions(t *testing.T) {
	input := `[
		{"name": "MX Master 3S", "brand": "Logi", "count": 3, "workspaces": ["w1", "w2"],
		 "oftenWith": [{"product": "Keychron Q1", "count": 2}]},
		{"name": "Pothos", "brand": "Unknown", "originWorkspace": "w9"}
	]`

	mentions, err := DecodeMentions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, mentions, 2)

	assert.Equal(t, "Logi", mentions[0].Brand)
	assert.Equal(t, 3, mentions[0].EffectiveCount())
	assert.Equal(t, []Partner{{Product: "Keychron Q1", Count: 2}}, mentions[0].OftenWith)
	assert.Equal(t, []string{"w9"}, mentions[1].WorkspaceIDs())
}

func TestDecodeMentions_Malformed(t *testing.T) {
	_, err := DecodeMentions(strings.NewReader(`{"name":`))
	assert.Error(t, err)
}

func TestWriteAndReadProductsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "products-clean.json")
	products := []*Product{{Name: "Apple Studio Display", Brand: "Apple", Category: "monitor", Count: 4}}

	require.NoError(t, WriteJSONFile(path, products))

	got, err := ReadProductsFile(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Apple Studio Display", got[0].Name)
	assert.Equal(t, 4, got[0].Count)
	assert.NotNil(t, got[0].Workspaces)
	assert.NotNil(t, got[0].OftenWith)
}

func TestEncodeJSON_FieldNames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeJSON(&buf, &Product{Name: "X", OftenWith: []Partner{{"Y", 1}}}))
	assert.Contains(t, buf.String(), `"oftenWith"`)
	assert.Contains(t, buf.String(), `"product": "Y"`)
}

func TestReadMentionsFile_Missing(t *testing.T) {
	_, err := ReadMentionsFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
