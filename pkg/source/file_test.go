package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jane.json"),
		[]byte(`{"name":"Jane","products":[{"name":"Aeron Chair"}]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`nope`), 0o644))

	s := NewFileSource(dir)

	ws, err := s.Fetch(context.Background(), "jane")
	require.NoError(t, err)
	assert.Equal(t, "jane", ws.ID)
	assert.Equal(t, "Aeron Chair", ws.Products[0].Name)

	ws, err = s.Fetch(context.Background(), filepath.Join(dir, "jane.json"))
	require.NoError(t, err)
	assert.Equal(t, "jane", ws.ID)

	_, err = s.Fetch(context.Background(), "nobody")
	assert.True(t, dserrors.IsFetchFailed(err))

	_, err = s.Fetch(context.Background(), "bad")
	assert.Error(t, err)
}
