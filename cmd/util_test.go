package cmd

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/deskspin/config"
	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/db"
	"github.com/otherjamesbrown/deskspin/pkg/events"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
)

// fakePublisher records published events.
type fakePublisher struct {
	published []events.CatalogImportedParams
	err       error
	closed    bool
}

func (f *fakePublisher) PublishCatalogImported(ctx context.Context, params events.CatalogImportedParams) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, params)
	return nil
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

// testEnv is a CommandDeps whose store is in memory and whose output is captured.
type testEnv struct {
	deps  *CommandDeps
	out   *bytes.Buffer
	cfg   *config.Config
	store *catalog.MemoryStore
	pub   *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		out:   &bytes.Buffer{},
		cfg:   config.DefaultConfig(),
		store: catalog.NewMemoryStore(),
		pub:   &fakePublisher{},
	}
	env.deps = &CommandDeps{
		Out:        env.out,
		Err:        &bytes.Buffer{},
		LoadConfig: func() (*config.Config, error) { return env.cfg, nil },
		NewLogger:  func(*config.Config) logging.Logger { return logging.NewNopLogger() },
		OpenStore: func(context.Context, *config.Config, logging.Logger, prometheus.Registerer) (catalog.Store, db.Pinger, func(), error) {
			return env.store, nil, func() {}, nil
		},
		NewPublisher: func(context.Context, *config.Config, logging.Logger) (EventPublisher, error) {
			return env.pub, nil
		},
		Registry: prometheus.NewRegistry(),
	}
	return env
}

func TestResolveFormat(t *testing.T) {
	cfg := config.DefaultConfig()

	f, err := resolveFormat(cfg, "")
	require.NoError(t, err)
	assert.Equal(t, config.OutputFormatText, f)

	f, err = resolveFormat(cfg, "yaml")
	require.NoError(t, err)
	assert.Equal(t, config.OutputFormatYAML, f)

	_, err = resolveFormat(cfg, "csv")
	assert.Error(t, err)
}

func TestWriteOutput(t *testing.T) {
	v := map[string]int{"count": 3}

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, config.OutputFormatJSON, v, nil))
	assert.JSONEq(t, `{"count":3}`, buf.String())

	buf.Reset()
	require.NoError(t, writeOutput(&buf, config.OutputFormatYAML, v, nil))
	assert.Equal(t, "count: 3\n", buf.String())

	buf.Reset()
	called := false
	require.NoError(t, writeOutput(&buf, config.OutputFormatText, v, func(w io.Writer) error {
		called = true
		return nil
	}))
	assert.True(t, called)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Logitec...", truncate("Logitech MX Master 3S", 10))
	assert.Equal(t, "Ａｉｒ...", truncate("ＡｉｒＰｏｄｓ Max", 6))
}

func TestOpenStore_CatalogFile(t *testing.T) {
	env := newTestEnv(t)
	env.deps.OpenStore = func(context.Context, *config.Config, logging.Logger, prometheus.Registerer) (catalog.Store, db.Pinger, func(), error) {
		t.Fatal("database must not be opened when a catalog file is given")
		return nil, nil, nil, nil
	}

	path := writeCatalogFile(t, []*catalog.Product{
		{Name: "Keychron Q1 Pro", Brand: "Keychron", Category: "keyboard", Count: 2},
	})

	store, pinger, closeFn, err := env.deps.openStore(context.Background(), env.cfg, logging.NewNopLogger(), path)
	require.NoError(t, err)
	defer closeFn()
	assert.Nil(t, pinger)

	got, err := store.ListByCategory(context.Background(), "keyboard")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestNewRedisPublisher_Disabled(t *testing.T) {
	pub, err := newRedisPublisher(context.Background(), config.DefaultConfig(), logging.NewNopLogger())
	require.NoError(t, err)
	assert.Nil(t, pub)
}

func writeCatalogFile(t *testing.T, products []*catalog.Product) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, catalog.WriteJSONFile(path, products))
	return path
}
