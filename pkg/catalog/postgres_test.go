package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
)

func TestProductRow(t *testing.T) {
	row, err := productRow(&Product{
		Name:       "Elgato Key Light",
		Brand:      "Elgato",
		Category:   "lighting",
		Count:      0,
		Workspaces: []string{"w1"},
		OftenWith:  []Partner{{Product: "Elgato Stream Deck", Count: 3}},
	})
	require.NoError(t, err)
	require.Len(t, row, 9)

	assert.Equal(t, "Elgato Key Light", row[0])
	assert.Nil(t, row[2], "empty model is stored as NULL")
	assert.Equal(t, 1, row[6], "count is floored at 1")
	assert.Equal(t, `["w1"]`, row[7])
	assert.JSONEq(t, `[{"product":"Elgato Stream Deck","count":3}]`, row[8].(string))
}

func TestProductRow_EmptyCollections(t *testing.T) {
	row, err := productRow(&Product{Name: "X", Category: "desk", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, "[]", row[7])
	assert.Equal(t, "[]", row[8])
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch v := d.(type) {
		case *int64:
			*v = r.values[i].(int64)
		case *int:
			*v = r.values[i].(int)
		case *string:
			*v = r.values[i].(string)
		case **string:
			if r.values[i] == nil {
				*v = nil
			} else {
				s := r.values[i].(string)
				*v = &s
			}
		default:
			return fmt.Errorf("unexpected dest %T", d)
		}
	}
	return nil
}

func TestScanProduct(t *testing.T) {
	p, err := scanProduct(fakeRow{values: []any{
		int64(7), "Herman Miller Aeron", "Herman Miller", nil, "chair", nil,
		"chair", 12, `["a","b"]`, `[{"product":"Apple Studio Display","count":2}]`,
	}})
	require.NoError(t, err)

	assert.Equal(t, int64(7), p.ID)
	assert.Equal(t, "Herman Miller", p.Brand)
	assert.Equal(t, "", p.Model)
	assert.Equal(t, []string{"a", "b"}, p.Workspaces)
	assert.Equal(t, []Partner{{Product: "Apple Studio Display", Count: 2}}, p.OftenWith)
}

func TestScanProduct_BadJSON(t *testing.T) {
	_, err := scanProduct(fakeRow{values: []any{
		int64(1), "X", nil, nil, nil, nil, "desk", 1, `not json`, `[]`,
	}})
	assert.Error(t, err)
}

func TestUnavailable(t *testing.T) {
	err := unavailable("list products", errors.New("dial tcp: connection refused"))
	assert.True(t, dserrors.IsUnavailable(err))

	err = unavailable("list products", context.Canceled)
	assert.False(t, dserrors.IsUnavailable(err))
	assert.ErrorIs(t, err, context.Canceled)
}
