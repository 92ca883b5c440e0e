package cooccur

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
)

func TestObserve_Symmetric(t *testing.T) {
	a := New()
	a.Observe([]string{"desk", "chair"})
	a.Observe([]string{"chair", "desk", "lamp"})

	assert.Equal(t, 2, a.Count("desk", "chair"))
	assert.Equal(t, 2, a.Count("chair", "desk"))
	assert.Equal(t, 1, a.Count("lamp", "desk"))
	assert.Equal(t, 0, a.Count("desk", "desk"))
}

func TestObserve_DuplicatesCollapse(t *testing.T) {
	a := New()
	a.Observe([]string{"desk", "desk", "chair", ""})
	assert.Equal(t, 1, a.Count("desk", "chair"))
	assert.Equal(t, 0, a.Count("desk", ""))
}

func TestTop_OrderAndCap(t *testing.T) {
	a := New()
	// hub appears with everything; ties among the rest resolve by first sight.
	a.Observe([]string{"hub", "p1", "p2", "p3", "p4", "p5", "p6"})
	a.Observe([]string{"hub", "p4"})
	a.Observe([]string{"hub", "p6"})
	a.Label("p4", "Product Four")

	top := a.Top("hub", 5)
	require.Len(t, top, 5)
	assert.Equal(t, []catalog.Partner{
		{Product: "Product Four", Count: 2},
		{Product: "p6", Count: 2},
		{Product: "p1", Count: 1},
		{Product: "p2", Count: 1},
		{Product: "p3", Count: 1},
	}, top)
}

func TestTop_Unknown(t *testing.T) {
	a := New()
	assert.Empty(t, a.Top("missing", 5))
	assert.NotNil(t, a.Top("missing", 5))
}

func TestApply(t *testing.T) {
	a := New()
	a.Observe([]string{"k-desk", "k-chair"})
	a.Label("k-desk", "Desk")
	a.Label("k-chair", "Chair")

	products := []*catalog.Product{
		{Name: "Desk", OftenWith: []catalog.Partner{{Product: "stale", Count: 9}}},
		{Name: "Chair"},
		{Name: "Lonely"},
	}
	keys := map[string]string{"Desk": "k-desk", "Chair": "k-chair", "Lonely": "k-lonely"}
	a.Apply(products, func(p *catalog.Product) string { return keys[p.Name] })

	assert.Equal(t, []catalog.Partner{{Product: "Chair", Count: 1}}, products[0].OftenWith)
	assert.Equal(t, []catalog.Partner{{Product: "Desk", Count: 1}}, products[1].OftenWith)
	assert.Empty(t, products[2].OftenWith)
}

func TestReset(t *testing.T) {
	a := New()
	a.Observe([]string{"x", "y"})
	a.Reset()
	assert.Equal(t, 0, a.Count("x", "y"))
	assert.Empty(t, a.Top("x", 5))
}
